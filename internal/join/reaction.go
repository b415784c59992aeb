package join

import (
	"fmt"
	"hash/fnv"
	"strings"
)

// Body is a reaction body: given the bound values of every input site in
// source order, and the ReplyChannel handles of the sync input sites (in
// source order, as `*ReplyChannel[R]` boxed in `any`), it performs the
// reaction's effect. A body that returns a non-nil error is treated as
// an exceptional termination: the runtime logs it and completes any
// unreplied sync input with NO_REPLY.
type Body func(values []any, replies []any) error

// ReactionInfo is the static, immutable-after-activation description of
// one reaction.
type ReactionInfo struct {
	Name        string
	Inputs      []InputSite
	Body        Body
	Outputs     []*speciesHandle
	fingerprint string
}

// NewReaction builds a ReactionInfo from its ordered input sites and
// body. The content fingerprint is derived purely from the pattern
// structure (the reaction name and, for each site in order, its species
// name and kind, match flag, and any constant), never from the
// body's code or closures, so two reactions declared identically —
// possibly in different activations — compare equal for diagnostic
// purposes.
func NewReaction(name string, body Body, inputs ...InputSite) *ReactionInfo {
	r := &ReactionInfo{Name: name, Inputs: inputs, Body: body}
	r.fingerprint = computeFingerprint(name, inputs)
	return r
}

// WithOutputs records the species a reaction may emit, for diagnostics
// only; the runtime never validates that a body only emits its
// declared outputs.
func (r *ReactionInfo) WithOutputs(outputs ...Emitter) *ReactionInfo {
	for _, o := range outputs {
		r.Outputs = append(r.Outputs, o.handle())
	}
	return r
}

// Fingerprint returns the reaction's stable structural hash.
func (r *ReactionInfo) Fingerprint() string { return r.fingerprint }

// computeFingerprint hashes each site's species *name* and kind rather
// than the species pointer: two independently-constructed species
// handles of the same name/kind are structurally the same input site for
// diagnostic purposes even though they're distinct objects in memory, so
// activating an identical reaction set on a fresh JoinDefinition must
// still produce equal fingerprints.
func computeFingerprint(name string, inputs []InputSite) string {
	var sb strings.Builder
	sb.WriteString(name)
	for _, site := range inputs {
		sb.WriteByte('|')
		sb.WriteString(fmt.Sprintf("%s:%d:%d", site.Species.name, site.Species.kind, site.Flag))
		if site.Flag == Constant {
			sb.WriteString(fmt.Sprintf(":%v", site.Const))
		}
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(sb.String()))
	return fmt.Sprintf("%x", h.Sum64())
}

// syncSiteCount returns how many of a reaction's input sites are sync
// species, used by the decision cycle to size the replies vector passed
// to Body.
func (r *ReactionInfo) syncSiteCount() int {
	n := 0
	for _, s := range r.Inputs {
		if s.Species.kind == kindSync {
			n++
		}
	}
	return n
}

// hasNonlinearInputs reports whether two input sites of r name the same
// species — no reaction may have two input positions of the same
// species.
func (r *ReactionInfo) hasNonlinearInputs() bool {
	seen := make(map[*speciesHandle]bool, len(r.Inputs))
	for _, s := range r.Inputs {
		if seen[s.Species] {
			return true
		}
		seen[s.Species] = true
	}
	return false
}
