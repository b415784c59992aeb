package demos

import "github.com/arcflow/joincore/internal/join"

// MapReduceSquares sums the squares of 1..N using a fan-out map
// ("square") and a reduce ("reduce") that merges each squared value into
// a single running accumulator, with a blocking Fetch that only replies
// once every squared value has merged into it.
type MapReduceSquares struct {
	Definition *join.JoinDefinition

	Work    *join.EmitterAsync[int]
	Partial *join.EmitterAsync[[2]int] // accumulator: [count, sum]
	Fetch   *join.EmitterSync[struct{}, int]

	upper       int
	expectedSum int
}

// NewMapReduceSquares activates a MapReduceSquares pipeline for 1..upper
// and seeds the accumulator at [0, 0] and the work queue.
func NewMapReduceSquares(exec join.Executor, upper int) (*MapReduceSquares, error) {
	m := &MapReduceSquares{
		Work:    join.NewEmitterAsync[int]("mr-work"),
		Partial: join.NewEmitterAsync[[2]int]("mr-partial"),
		Fetch:   join.NewEmitterSync[struct{}, int]("mr-fetch"),
		upper:   upper,
	}
	for x := 1; x <= upper; x++ {
		m.expectedSum += x * x
	}

	squared := join.NewEmitterAsync[[2]int]("mr-squared") // [1, x*x]

	square := join.NewReaction("square", func(values, _ []any) error {
		x := values[0].(int)
		return squared.Emit([2]int{1, x * x})
	}, join.VariableSite(m.Work)).WithOutputs(squared)

	reduce := join.NewReaction("reduce", func(values, _ []any) error {
		a := values[0].([2]int)
		b := values[1].([2]int)
		return m.Partial.Emit([2]int{a[0] + b[0], a[1] + b[1]})
	}, join.VariableSite(squared), join.VariableSite(m.Partial)).WithOutputs(m.Partial)

	fetch := join.NewReaction("mr-fetch", func(values, replies []any) error {
		p := values[0].([2]int)
		rc := replies[0].(*join.ReplyChannel[int])
		if p[0] == upper {
			rc.Reply(p[1])
			return nil
		}
		rc.Reply(-1)
		return m.Partial.Emit(p)
	}, join.ConstantSite(m.Partial, [2]int{upper, m.expectedSum}), join.VariableSite(m.Fetch))

	jd, err := join.Activate(exec, square, reduce, fetch)
	if err != nil {
		return nil, err
	}
	m.Definition = jd

	if err := m.Partial.Emit([2]int{0, 0}); err != nil {
		return nil, err
	}
	for x := 1; x <= upper; x++ {
		if err := m.Work.Emit(x); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ExpectedSum returns the sum of squares 1..upper this pipeline should
// eventually converge on.
func (m *MapReduceSquares) ExpectedSum() int { return m.expectedSum }
