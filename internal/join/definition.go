package join

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Observer watches a JoinDefinition's decision-cycle outcomes. OnFired
// runs on the executor goroutine just before a matched reaction's body
// runs; OnComplete runs right after, once every sync input has either
// been replied to or swept to NO_REPLY. Implementations must not block
// or call back into the JoinDefinition that owns them.
type Observer interface {
	OnFired(reactionName string, values []any)
	OnComplete(reactionName string, replied, noReply int, err error)
}

// JoinDefinition is the owning aggregate: a bag, an immutable reaction
// set, a decision lock, and a reference to the executor(s) reaction
// bodies and sync replies run on.
type JoinDefinition struct {
	mu        sync.Mutex // the decision lock
	bag       *bag
	reactions []*ReactionInfo

	executor      Executor
	replyExecutor Executor // optional second pool for sync replies

	logger   *leveledLogger
	observer atomic.Pointer[Observer]

	activated bool
}

// SetObserver installs o as this definition's decision-cycle observer,
// replacing any previous one. Pass nil to stop observing.
func (jd *JoinDefinition) SetObserver(o Observer) {
	if o == nil {
		jd.observer.Store(nil)
		return
	}
	jd.observer.Store(&o)
}

// Activate binds every input species named across reactions to a fresh
// JoinDefinition and makes the reaction set immutable thereafter.
// executor runs reaction bodies; if replyExecutor is non-nil it is
// otherwise unused by the core (it exists so a host can route
// reply-side work to a separate pool without the core needing to know
// which work is "reply work" — reaction bodies call Reply() directly,
// so the two pools only differ if a caller's own body code chooses to
// use them differently; JoinDefinition only schedules bodies on
// executor).
func Activate(executor Executor, reactions ...*ReactionInfo) (*JoinDefinition, error) {
	return ActivateWithOptions(executor, nil, NewNoOpLogger(), reactions...)
}

// ActivateWithOptions is the full form of Activate, accepting an optional
// reply executor and logger.
func ActivateWithOptions(executor Executor, replyExecutor Executor, logger Logger, reactions ...*ReactionInfo) (*JoinDefinition, error) {
	if executor == nil {
		return nil, newError(KindExecutorRejected, "executor must not be nil")
	}

	// Step 1: reject nonlinear reactions.
	for _, r := range reactions {
		if r.hasNonlinearInputs() {
			return nil, newError(KindNonlinear, "reaction %q has two input sites of the same species", r.Name)
		}
	}

	// Step 3: every sync input site must be backed by a body that can
	// reply. The runtime can only verify the structural half of this
	// (that the site is indeed a sync species); whether the body
	// actually replies exactly once is enforced dynamically by the
	// NO_REPLY sweep at completion.
	for _, r := range reactions {
		for _, site := range r.Inputs {
			if site.Species.kind == kindSync && r.Body == nil {
				return nil, newError(KindInvalidReply, "reaction %q has a sync input but no body", r.Name)
			}
		}
	}

	jd := &JoinDefinition{
		bag:           newBag(),
		reactions:     reactions,
		executor:      executor,
		replyExecutor: replyExecutor,
		logger:        newLeveledLogger(logger),
	}

	// Step 2 + 4: bind every input species, rolling back on conflict so
	// activation is all-or-nothing.
	bound := make([]*speciesHandle, 0)
	for _, r := range reactions {
		for _, site := range r.Inputs {
			if !site.Species.bindTo(jd) {
				for _, b := range bound {
					b.bound.Store(nil)
				}
				return nil, newError(KindAlreadyBound, "species %q is already bound to another join definition", site.Species.name)
			}
			bound = append(bound, site.Species)
		}
	}

	jd.activated = true
	return jd, nil
}

// SetLogLevel adjusts the verbosity of this definition's logger.
func (jd *JoinDefinition) SetLogLevel(level LogLevel) {
	jd.logger.setLevel(level)
}

// CurrentContents returns a human-readable snapshot of the bag and
// reaction set, for diagnostics only.
func (jd *JoinDefinition) CurrentContents() string {
	jd.mu.Lock()
	snap := jd.bag.snapshot()
	jd.mu.Unlock()

	out := fmt.Sprintf("join definition: %d reaction(s)\n", len(jd.reactions))
	for species, values := range snap {
		out += fmt.Sprintf("  %s: %v\n", species, values)
	}
	return out
}

// emitAsync performs the decision cycle for a non-blocking emission.
func (jd *JoinDefinition) emitAsync(species *speciesHandle, value any) {
	jd.runDecisionCycle(species, value, nil)
}

// emitSync performs the decision cycle for a blocking emission, passing
// the caller's reply channel through so the chosen reaction body (if any)
// receives it.
func (jd *JoinDefinition) emitSync(species *speciesHandle, value any, reply any) {
	jd.runDecisionCycle(species, value, reply)
}

// runDecisionCycle is the critical section: acquire the lock, insert,
// match, and — on a hit — remove the selected instances, all before
// releasing the lock; the matched reaction is handed to the executor
// only after the lock is released.
func (jd *JoinDefinition) runDecisionCycle(species *speciesHandle, value any, reply any) {
	jd.mu.Lock()

	jd.bag.add(species, newInstance(species, value, reply))

	order := shuffledReactionOrder(len(jd.reactions))
	for _, idx := range order {
		r := jd.reactions[idx]
		ok, chosen := matchReaction(jd.bag, r)
		if !ok {
			continue
		}

		ids := make(map[InstanceID]struct{}, len(chosen))
		for _, c := range chosen {
			ids[c.id] = struct{}{}
		}
		jd.bag.remove(ids)

		jd.mu.Unlock()
		jd.schedule(r, chosen)
		return
	}

	jd.mu.Unlock()
}

// schedule submits a matched reaction's body to the executor with its
// bound values and sync-input reply handles.
func (jd *JoinDefinition) schedule(r *ReactionInfo, chosen []instance) {
	values := make([]any, len(chosen))
	replies := make([]any, 0, r.syncSiteCount())
	signals := make([]replySignal, 0, r.syncSiteCount())

	for i, inst := range chosen {
		values[i] = inst.value
		if inst.reply != nil {
			replies = append(replies, inst.reply)
			signals = append(signals, inst.replySignal())
		}
	}

	err := jd.executor.Submit(func() {
		jd.runBody(r, values, replies, signals)
	})
	if err != nil {
		jd.logger.Errorf("join: executor rejected reaction %q: %v", r.Name, err)
		_, noReply := sweepUnreplied(signals)
		if obs := jd.observer.Load(); obs != nil {
			(*obs).OnComplete(r.Name, 0, noReply, err)
		}
	}
}

// runBody executes a matched reaction's body off the decision lock and
// enforces the exactly-once-reply contract afterward.
func (jd *JoinDefinition) runBody(r *ReactionInfo, values []any, replies []any, signals []replySignal) {
	if obs := jd.observer.Load(); obs != nil {
		(*obs).OnFired(r.Name, values)
	}

	var bodyErr error
	defer func() {
		if rec := recover(); rec != nil {
			jd.logger.Errorf("join: reaction %q panicked: %v", r.Name, rec)
			bodyErr = fmt.Errorf("panic: %v", rec)
		}
		replied, noReply := sweepUnreplied(signals)
		if obs := jd.observer.Load(); obs != nil {
			(*obs).OnComplete(r.Name, replied, noReply, bodyErr)
		}
	}()

	if err := r.Body(values, replies); err != nil {
		jd.logger.Errorf("join: reaction %q returned error: %v", r.Name, err)
		bodyErr = err
	}
}

// sweepUnreplied completes, with NO_REPLY, every sync input whose
// channel the body never replied to, and reports how many of the
// signals had already been replied to versus were just swept.
func sweepUnreplied(signals []replySignal) (replied, noReply int) {
	for _, sig := range signals {
		if sig.markNoReply() {
			noReply++
		} else {
			replied++
		}
	}
	return replied, noReply
}
