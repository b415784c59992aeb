package join

// InstanceID uniquely identifies one pending molecule instance within a
// bag, used by MoleculeBag.remove to atomically delete exactly the
// instances a firing reaction selected.
type InstanceID string

// instance is a concrete pending molecule: a species, its value, and —
// for sync species — the reply machinery the consuming reaction body
// must use exactly once.
type instance struct {
	id      InstanceID
	species *speciesHandle
	value   any
	// reply holds the concrete *ReplyChannel[R] for a sync species, or
	// nil for async. It is stored as `any` (rather than replySignal)
	// because the reaction body needs the concrete typed channel to call
	// Reply(v R); runtime code that doesn't know R recovers replySignal
	// via a type assertion.
	reply any
}

func newInstance(species *speciesHandle, value any, reply any) instance {
	return instance{
		id:      InstanceID(newRandomID()),
		species: species,
		value:   value,
		reply:   reply,
	}
}

func (inst instance) replySignal() replySignal {
	if inst.reply == nil {
		return nil
	}
	rs, _ := inst.reply.(replySignal)
	return rs
}
