package demos

import "github.com/arcflow/joincore/internal/join"

// Counter is the minimal join pattern: a running total held as a cell,
// nudged by async Incr/Decr molecules and read out through a blocking
// Fetch.
type Counter struct {
	Definition *join.JoinDefinition

	Value *join.EmitterAsync[int]
	Incr  *join.EmitterAsync[struct{}]
	Decr  *join.EmitterAsync[struct{}]
	Fetch *join.EmitterSync[struct{}, int]
}

// NewCounter activates a Counter starting at initial.
func NewCounter(exec join.Executor, initial int) (*Counter, error) {
	c := &Counter{
		Value: join.NewEmitterAsync[int]("counter-value"),
		Incr:  join.NewEmitterAsync[struct{}]("counter-incr"),
		Decr:  join.NewEmitterAsync[struct{}]("counter-decr"),
		Fetch: join.NewEmitterSync[struct{}, int]("counter-fetch"),
	}

	incrReaction := join.NewReaction("counter-incr",
		func(values, _ []any) error {
			return c.Value.Emit(values[0].(int) + 1)
		},
		join.VariableSite(c.Value), join.VariableSite(c.Incr),
	)
	decrReaction := join.NewReaction("counter-decr",
		func(values, _ []any) error {
			return c.Value.Emit(values[0].(int) - 1)
		},
		join.VariableSite(c.Value), join.VariableSite(c.Decr),
	)
	fetchReaction := join.NewReaction("counter-fetch",
		func(values, replies []any) error {
			n := values[0].(int)
			replies[0].(*join.ReplyChannel[int]).Reply(n)
			return c.Value.Emit(n)
		},
		join.VariableSite(c.Value), join.VariableSite(c.Fetch),
	)

	jd, err := join.Activate(exec, incrReaction, decrReaction, fetchReaction)
	if err != nil {
		return nil, err
	}
	c.Definition = jd

	if err := c.Value.Emit(initial); err != nil {
		return nil, err
	}
	return c, nil
}
