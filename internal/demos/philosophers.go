package demos

import (
	"sync/atomic"

	"github.com/arcflow/joincore/internal/join"
)

// DiningPhilosophers wires up the classic five-philosophers problem as
// a join pattern: eating requires both neighboring forks as separate
// input sites, so the matcher itself enforces mutual exclusion over
// shared forks without any explicit locking in the reaction bodies.
type DiningPhilosophers struct {
	Definition *join.JoinDefinition

	N        int
	Hungry   []*join.EmitterAsync[int]
	Thinking []*join.EmitterAsync[int]
	Fork     []*join.EmitterAsync[int]

	mealsServed int64
}

// MealsServed returns how many times a philosopher has successfully
// eaten so far.
func (d *DiningPhilosophers) MealsServed() int64 {
	return atomic.LoadInt64(&d.mealsServed)
}

// NewDiningPhilosophers activates n philosophers and their n forks and
// seeds every philosopher thinking with its fork available.
func NewDiningPhilosophers(exec join.Executor, n int) (*DiningPhilosophers, error) {
	d := &DiningPhilosophers{N: n}
	d.Hungry = make([]*join.EmitterAsync[int], n)
	d.Thinking = make([]*join.EmitterAsync[int], n)
	d.Fork = make([]*join.EmitterAsync[int], n)

	for i := 0; i < n; i++ {
		d.Hungry[i] = join.NewEmitterAsync[int]("hungry")
		d.Thinking[i] = join.NewEmitterAsync[int]("thinking")
		d.Fork[i] = join.NewEmitterAsync[int]("fork")
	}

	reactions := make([]*join.ReactionInfo, 0, 2*n)
	for i := 0; i < n; i++ {
		i := i
		left := d.Fork[i]
		right := d.Fork[(i+1)%n]

		eat := join.NewReaction("eat",
			func(_, _ []any) error {
				atomic.AddInt64(&d.mealsServed, 1)
				if err := left.Emit(0); err != nil {
					return err
				}
				if err := right.Emit(0); err != nil {
					return err
				}
				return d.Thinking[i].Emit(0)
			},
			join.VariableSite(d.Hungry[i]), join.VariableSite(left), join.VariableSite(right),
		).WithOutputs(d.Thinking[i], left, right)

		think := join.NewReaction("think",
			func(_, _ []any) error {
				return d.Hungry[i].Emit(0)
			},
			join.VariableSite(d.Thinking[i]),
		).WithOutputs(d.Hungry[i])

		reactions = append(reactions, eat, think)
	}

	jd, err := join.Activate(exec, reactions...)
	if err != nil {
		return nil, err
	}
	d.Definition = jd

	for i := 0; i < n; i++ {
		if err := d.Fork[i].Emit(0); err != nil {
			return nil, err
		}
		if err := d.Thinking[i].Emit(0); err != nil {
			return nil, err
		}
	}
	return d, nil
}
