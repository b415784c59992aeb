package dsl

import (
	"fmt"

	"github.com/arcflow/joincore/internal/join"
)

// CompiledSchema is the lowered form of a SchemaConfig: one untyped
// emitter per declared species plus the reaction set ready for
// join.Activate.
type CompiledSchema struct {
	Name      string
	Species   map[string]join.Emitter
	Reactions []*join.ReactionInfo
}

// IsSync reports whether name is a sync species, for callers deciding
// whether to call EmitAsync or EmitSync without probing by trial.
func (c *CompiledSchema) IsSync(name string) bool {
	e, ok := c.Species[name]
	if !ok {
		return false
	}
	_, ok = e.(*join.EmitterSync[any, any])
	return ok
}

// EmitAsync emits v on the named async species.
func (c *CompiledSchema) EmitAsync(name string, v any) error {
	e, ok := c.Species[name]
	if !ok {
		return fmt.Errorf("dsl: unknown species %q", name)
	}
	async, ok := e.(*join.EmitterAsync[any])
	if !ok {
		return fmt.Errorf("dsl: species %q is not async", name)
	}
	return async.Emit(v)
}

// EmitSync emits v on the named sync species and blocks for a reply.
func (c *CompiledSchema) EmitSync(name string, v any) (any, error) {
	e, ok := c.Species[name]
	if !ok {
		return nil, fmt.Errorf("dsl: unknown species %q", name)
	}
	sync, ok := e.(*join.EmitterSync[any, any])
	if !ok {
		return nil, fmt.Errorf("dsl: species %q is not sync", name)
	}
	return sync.Emit(v)
}

// Compile validates cfg and lowers it into a CompiledSchema. Every
// species becomes a dynamically-typed join emitter (EmitterAsync[any] or
// EmitterSync[any, any]) so a schema loaded from a config file — which
// carries no Go type information — can still drive the generic core.
func Compile(cfg SchemaConfig) (*CompiledSchema, error) {
	if err := Validate(cfg); err != nil {
		return nil, err
	}

	species := make(map[string]join.Emitter, len(cfg.Species))
	isSyncSpecies := make(map[string]bool, len(cfg.Species))
	for _, sp := range cfg.Species {
		if sp.Kind == KindSync {
			species[sp.Name] = join.NewEmitterSync[any, any](sp.Name)
			isSyncSpecies[sp.Name] = true
		} else {
			species[sp.Name] = join.NewEmitterAsync[any](sp.Name)
		}
	}

	reactions := make([]*join.ReactionInfo, 0, len(cfg.Reactions))
	for _, rc := range cfg.Reactions {
		r, err := compileReaction(rc, species, isSyncSpecies)
		if err != nil {
			return nil, err
		}
		reactions = append(reactions, r)
	}

	return &CompiledSchema{Name: cfg.Name, Species: species, Reactions: reactions}, nil
}

func compileReaction(rc ReactionConfig, species map[string]join.Emitter, isSyncSpecies map[string]bool) (*join.ReactionInfo, error) {
	inputs := make([]join.InputSite, len(rc.Inputs))
	binds := make(map[string]int, len(rc.Inputs))
	// replyIndexByBind maps a bind name whose input is a sync species to
	// its position within the replies slice the runtime builds (sync
	// sites only, in input order) — computed here since that ordering is
	// only visible to the compiler, not recoverable from join.InputSite.
	replyIndexByBind := make(map[string]int, len(rc.Inputs))

	syncSeen := 0
	for i, in := range rc.Inputs {
		emitter, ok := species[in.Species]
		if !ok {
			return nil, fmt.Errorf("dsl: reaction %q references unknown species %q", rc.ID, in.Species)
		}
		if in.Bind != "" {
			binds[in.Bind] = i
			if isSyncSpecies[in.Species] {
				replyIndexByBind[in.Bind] = syncSeen
			}
		}
		if isSyncSpecies[in.Species] {
			syncSeen++
		}

		if len(in.Where) > 0 {
			conds := in.Where
			inputs[i] = join.OtherSite(emitter, func(value any) bool {
				for _, c := range conds {
					fv, ok := resolveField(value, c.Field)
					if !ok {
						return false
					}
					if !compareValues(fv, c.Value, c.Op) {
						return false
					}
				}
				return true
			})
		} else {
			inputs[i] = join.VariableSite(emitter)
		}
	}

	name := rc.Name
	if name == "" {
		name = rc.ID
	}

	emitEffects := rc.Emit
	replyEffects := rc.Reply

	body := func(values []any, replies []any) error {
		bound := make(map[string]any, len(binds))
		for bindName, idx := range binds {
			bound[bindName] = values[idx]
		}

		for _, eff := range emitEffects {
			target, ok := species[eff.Species]
			if !ok {
				return fmt.Errorf("dsl: reaction %q emits unknown species %q", rc.ID, eff.Species)
			}
			async, ok := target.(*join.EmitterAsync[any])
			if !ok {
				return fmt.Errorf("dsl: reaction %q emits sync species %q via an emit effect (use reply)", rc.ID, eff.Species)
			}
			var value any
			if eff.Payload != nil {
				value = resolvePayload(eff.Payload, bound)
			} else {
				value = resolveRef(eff.Value, bound)
			}
			if err := async.Emit(value); err != nil {
				return fmt.Errorf("dsl: reaction %q failed to emit %q: %w", rc.ID, eff.Species, err)
			}
		}

		for _, rep := range replyEffects {
			replyIdx, ok := replyIndexByBind[rep.InputBind]
			if !ok {
				return fmt.Errorf("dsl: reaction %q replies to %q, which is not a bound sync input", rc.ID, rep.InputBind)
			}
			rch, ok := replies[replyIdx].(*join.ReplyChannel[any])
			if !ok {
				return fmt.Errorf("dsl: reaction %q: reply slot for %q has an unexpected type", rc.ID, rep.InputBind)
			}
			rch.Reply(resolveRef(rep.Value, bound))
		}

		return nil
	}

	return join.NewReaction(name, body, inputs...), nil
}
