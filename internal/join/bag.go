package join

// bag is the multiset store for a single JoinDefinition: a mapping from
// species to an ordered collection of pending instances. All methods
// assume the caller already holds the owning JoinDefinition's decision
// lock; bag itself does no locking of its own.
type bag struct {
	pending map[*speciesHandle][]instance
}

func newBag() *bag {
	return &bag{pending: make(map[*speciesHandle][]instance)}
}

func (b *bag) add(species *speciesHandle, inst instance) {
	b.pending[species] = append(b.pending[species], inst)
}

// remove deletes exactly the instances named by ids, regardless of which
// species they belong to. Used to atomically retire a firing reaction's
// selected inputs within the same critical section that selected them.
func (b *bag) remove(ids map[InstanceID]struct{}) {
	if len(ids) == 0 {
		return
	}
	for species, list := range b.pending {
		filtered := list[:0:0]
		for _, inst := range list {
			if _, drop := ids[inst.id]; drop {
				continue
			}
			filtered = append(filtered, inst)
		}
		if len(filtered) == 0 {
			delete(b.pending, species)
		} else {
			b.pending[species] = filtered
		}
	}
}

func (b *bag) countOf(species *speciesHandle) int {
	return len(b.pending[species])
}

// snapshot returns a read-only copy of the bag's contents keyed by
// species name, for current-contents diagnostics.
func (b *bag) snapshot() map[string][]any {
	out := make(map[string][]any, len(b.pending))
	for species, list := range b.pending {
		values := make([]any, len(list))
		for i, inst := range list {
			values[i] = inst.value
		}
		out[species.name] = values
	}
	return out
}
