package join

import (
	"sync/atomic"
	"testing"
	"time"
)

// Emitting and then decrementing a shared counter species should leave
// exactly one counter instance holding the net value.
func TestScenarioCounter(t *testing.T) {
	counter := NewEmitterAsync[int]("counter")
	incr := NewEmitterAsync[struct{}]("incr")
	decr := NewEmitterAsync[struct{}]("decr")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	rIncr := NewReaction("incr", func(values, replies []any) error {
		n := values[0].(int)
		counter.Emit(n + 1)
		return nil
	}, VariableSite(counter), VariableSite(incr))

	rDecr := NewReaction("decr", func(values, replies []any) error {
		n := values[0].(int)
		counter.Emit(n - 1)
		return nil
	}, VariableSite(counter), VariableSite(decr))

	jd, err := Activate(exec, rIncr, rDecr)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	_ = jd

	counter.Emit(100)
	incr.Emit(struct{}{})
	decr.Emit(struct{}{})
	decr.Emit(struct{}{})

	waitForCondition(t, func() bool {
		snap := jd.bag.snapshot()
		vals := snap["counter"]
		return len(vals) == 1 && vals[0] == 99
	})
}

// A sync species can block until a matching async condition holds; here
// fetch only fires once the counter has been driven down to zero by a
// long run of decrements.
func TestScenarioBlockingFetchAtZero(t *testing.T) {
	const start = 50

	counter := NewEmitterAsync[int]("counter2")
	decr := NewEmitterAsync[struct{}]("decr2")
	fetch := NewEmitterSync[struct{}, struct{}]("fetch")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	rDecr := NewReaction("decr2", func(values, replies []any) error {
		n := values[0].(int)
		counter.Emit(n - 1)
		return nil
	}, VariableSite(counter), VariableSite(decr))

	rFetch := NewReaction("fetch-at-zero", func(values, replies []any) error {
		counter.Emit(0)
		rc := replies[0].(*ReplyChannel[struct{}])
		rc.Reply(struct{}{})
		return nil
	}, ConstantSite(counter, 0), VariableSite(fetch))

	jd, err := Activate(exec, rDecr, rFetch)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	counter.Emit(start)
	for i := 0; i < start; i++ {
		decr.Emit(struct{}{})
	}

	if _, err := fetch.Emit(struct{}{}); err != nil {
		t.Fatalf("fetch: %v", err)
	}

	snap := jd.bag.snapshot()
	vals := snap["counter2"]
	if len(vals) != 1 || vals[0] != 0 {
		t.Fatalf("expected exactly one counter2(0) remaining, got %v", vals)
	}
}

// Five philosophers sharing five forks must never let the same fork be
// consumed by two reactions at once.
func TestScenarioDiningPhilosophersForkMutualExclusion(t *testing.T) {
	const n = 5
	exec := NewPoolExecutor(n*2, n*4)
	defer exec.Shutdown()

	hungry := make([]*EmitterAsync[int], n)
	thinking := make([]*EmitterAsync[int], n)
	fork := make([]*EmitterAsync[int], n)

	for i := 0; i < n; i++ {
		hungry[i] = NewEmitterAsync[int]("hungry")
		thinking[i] = NewEmitterAsync[int]("thinking")
		fork[i] = NewEmitterAsync[int]("fork")
	}

	var inUse [n]int32
	var violated int32
	var mealsDone int32

	reactions := make([]*ReactionInfo, 0, n*2)
	for i := 0; i < n; i++ {
		i := i
		left := fork[i]
		right := fork[(i+1)%n]
		rightIdx := (i + 1) % n
		reactions = append(reactions, NewReaction("eat",
			func(values, replies []any) error {
				if !atomic.CompareAndSwapInt32(&inUse[i], 0, 1) {
					atomic.AddInt32(&violated, 1)
				}
				if !atomic.CompareAndSwapInt32(&inUse[rightIdx], 0, 1) {
					atomic.AddInt32(&violated, 1)
				}
				time.Sleep(time.Millisecond)
				atomic.StoreInt32(&inUse[i], 0)
				atomic.StoreInt32(&inUse[rightIdx], 0)
				atomic.AddInt32(&mealsDone, 1)
				left.Emit(0)
				right.Emit(0)
				thinking[i].Emit(0)
				return nil
			},
			VariableSite(hungry[i]), VariableSite(left), VariableSite(right)).
			WithOutputs(thinking[i], left, right))

		reactions = append(reactions, NewReaction("think",
			func(values, replies []any) error {
				hungry[i].Emit(0)
				return nil
			},
			VariableSite(thinking[i])).WithOutputs(hungry[i]))
	}

	jd, err := Activate(exec, reactions...)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	_ = jd

	for i := 0; i < n; i++ {
		fork[i].Emit(0)
		thinking[i].Emit(0)
	}

	waitForCondition(t, func() bool {
		return atomic.LoadInt32(&mealsDone) >= 50
	})

	if atomic.LoadInt32(&violated) != 0 {
		t.Fatalf("fork mutual exclusion violated %d times", violated)
	}
}

// A fan-out/fan-in accumulation over 1..100 squared should converge on
// the known sum.
func TestScenarioMapReduceSquares(t *testing.T) {
	const upper = 100

	work := NewEmitterAsync[int]("work")
	squared := NewEmitterAsync[[2]int]("squared") // [1, x*x]
	partial := NewEmitterAsync[[2]int]("partial") // accumulator: [count, sum]
	fetch := NewEmitterSync[struct{}, int]("mr-fetch")
	exec := NewPoolExecutor(8, 32)
	defer exec.Shutdown()

	square := NewReaction("square", func(values, replies []any) error {
		x := values[0].(int)
		squared.Emit([2]int{1, x * x})
		return nil
	}, VariableSite(work)).WithOutputs(squared)

	reduce := NewReaction("reduce", func(values, replies []any) error {
		a := values[0].([2]int)
		b := values[1].([2]int)
		partial.Emit([2]int{a[0] + b[0], a[1] + b[1]})
		return nil
	}, VariableSite(squared), VariableSite(partial)).WithOutputs(partial)

	expectedSum := 0
	for x := 1; x <= upper; x++ {
		expectedSum += x * x
	}

	fetchReaction := NewReaction("mr-fetch", func(values, replies []any) error {
		p := values[0].([2]int)
		rc := replies[0].(*ReplyChannel[int])
		if p[0] == upper {
			rc.Reply(p[1])
		} else {
			partial.Emit(p)
			rc.Reply(-1)
		}
		return nil
	}, ConstantSite(partial, [2]int{upper, expectedSum}), VariableSite(fetch))

	jd, err := Activate(exec, square, reduce, fetchReaction)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	_ = jd

	partial.Emit([2]int{0, 0})
	for x := 1; x <= upper; x++ {
		work.Emit(x)
	}

	var result int
	waitForCondition(t, func() bool {
		snap := jd.bag.snapshot()
		for _, v := range snap["partial"] {
			if p := v.([2]int); p[0] == upper {
				result = p[1]
				return true
			}
		}
		return false
	})

	if result != expectedSum {
		t.Fatalf("expected accumulated sum %d, got %d", expectedSum, result)
	}

	v, err := fetch.Emit(struct{}{})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if v != expectedSum {
		t.Fatalf("expected fetch to return %d, got %d", expectedSum, v)
	}
}

func TestScenarioNonlinearRejection(t *testing.T) {
	x := NewEmitterAsync[int]("nonlinear-x")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	_, err := Activate(exec, NewReaction("bad",
		func(values, replies []any) error { return nil },
		VariableSite(x), VariableSite(x)))
	if err == nil || err.(*Error).Kind != KindNonlinear {
		t.Fatalf("expected NONLINEAR, got %v", err)
	}

	if err := x.Emit(1); err == nil || err.(*Error).Kind != KindUnbound {
		t.Fatalf("expected UNBOUND after failed activation, got %v", err)
	}
}

func TestScenarioNoReplyDetection(t *testing.T) {
	f := NewEmitterSync[struct{}, struct{}]("f")
	c := NewEmitterAsync[int]("c")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	r := NewReaction("silent", func(values, replies []any) error {
		n := values[1].(int)
		c.Emit(n + 1)
		return nil // never calls Reply on replies[0]
	}, VariableSite(f), VariableSite(c))

	jd, err := Activate(exec, r)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}
	_ = jd

	c.Emit(0)
	if _, err := f.Emit(struct{}{}); err == nil || err.(*Error).Kind != KindNoReply {
		t.Fatalf("expected NO_REPLY, got %v", err)
	}
}

func TestSyncEmitWithZeroDeadlineTimesOutPromptly(t *testing.T) {
	f := NewEmitterSync[struct{}, struct{}]("f-unsatisfied")
	x := NewEmitterAsync[int]("never-emitted")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	r := NewReaction("needs-x", func(values, replies []any) error {
		rc := replies[0].(*ReplyChannel[struct{}])
		rc.Reply(struct{}{})
		return nil
	}, VariableSite(f), VariableSite(x))

	_, err := Activate(exec, r)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	start := time.Now()
	_, err = f.EmitWithDeadline(struct{}{}, 0)
	elapsed := time.Since(start)

	if err == nil || err.(*Error).Kind != KindTimeout {
		t.Fatalf("expected TIMEOUT, got %v", err)
	}
	if elapsed > 100*time.Millisecond {
		t.Fatalf("expected prompt timeout, took %v", elapsed)
	}
}

func TestFingerprintRoundTripOnFreshActivation(t *testing.T) {
	build := func() *ReactionInfo {
		x := NewEmitterAsync[int]("rt-x")
		y := NewEmitterAsync[int]("rt-y")
		return NewReaction("rt", func(values, replies []any) error { return nil },
			VariableSite(x), ConstantSite(y, 5))
	}
	r1 := build()
	r2 := build()
	if r1.Fingerprint() != r2.Fingerprint() {
		t.Fatalf("expected equal fingerprints across independent activations, got %s vs %s", r1.Fingerprint(), r2.Fingerprint())
	}
}

func TestAsyncEmitVisibleInCurrentContentsUntilConsumed(t *testing.T) {
	m := NewEmitterAsync[int]("m-visible")
	partner := NewEmitterAsync[int]("m-partner")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	fired := make(chan struct{}, 1)
	r := NewReaction("consume", func(values, replies []any) error {
		fired <- struct{}{}
		return nil
	}, VariableSite(m), VariableSite(partner))

	jd, err := Activate(exec, r)
	if err != nil {
		t.Fatalf("activate: %v", err)
	}

	m.Emit(42)
	snap := jd.bag.snapshot()
	if len(snap["m-visible"]) != 1 || snap["m-visible"][0] != 42 {
		t.Fatalf("expected m-visible(42) pending before its partner arrives, got %v", snap["m-visible"])
	}

	partner.Emit(0)
	<-fired

	waitForCondition(t, func() bool {
		snap := jd.bag.snapshot()
		return len(snap["m-visible"]) == 0
	})
}

func waitForCondition(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	if !cond() {
		t.Fatal("condition not met before deadline")
	}
}
