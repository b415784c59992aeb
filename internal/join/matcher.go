package join

import "math/rand/v2"

// matchReaction attempts to bind every input site of r to a distinct
// candidate instance currently in b. It returns the chosen instances in
// the same order as r.Inputs, or ok=false if some site has no
// satisfying candidate.
//
// Candidate search within a species' pending list starts at a random
// offset and wraps around, so that, among several instances of the same
// species, selection is not
// biased toward insertion order — this avoids pathological livelock
// against a deterministic scan order, though it is not a strict
// fairness guarantee.
func matchReaction(b *bag, r *ReactionInfo) (bool, []instance) {
	chosen := make([]instance, len(r.Inputs))
	for i, site := range r.Inputs {
		candidates := b.pending[site.Species]
		idx := findAcceptingCandidate(candidates, site)
		if idx < 0 {
			return false, nil
		}
		chosen[i] = candidates[idx]
	}
	return true, chosen
}

func findAcceptingCandidate(candidates []instance, site InputSite) int {
	if len(candidates) == 0 {
		return -1
	}
	start := rand.IntN(len(candidates))
	for offset := 0; offset < len(candidates); offset++ {
		idx := (start + offset) % len(candidates)
		if site.accepts(candidates[idx].value) {
			return idx
		}
	}
	return -1
}

// shuffledReactionOrder returns a permutation of [0, n) used to iterate
// a JoinDefinition's reaction set in a fresh random order on every
// decision cycle, for liveness across reaction alternatives that could
// otherwise starve under a fixed scan order.
func shuffledReactionOrder(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	rand.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })
	return order
}
