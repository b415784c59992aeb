package join

import "testing"

func TestEmitAsyncUnboundFails(t *testing.T) {
	e := NewEmitterAsync[int]("unbound")
	if err := e.Emit(1); err == nil {
		t.Fatal("expected UNBOUND error for unbound emitter")
	} else if k := err.(*Error).Kind; k != KindUnbound {
		t.Fatalf("expected KindUnbound, got %v", k)
	}
}

func TestEmitSyncUnboundFails(t *testing.T) {
	e := NewEmitterSync[int, int]("unbound-sync")
	if _, err := e.Emit(1); err == nil {
		t.Fatal("expected UNBOUND error for unbound sync emitter")
	} else if k := err.(*Error).Kind; k != KindUnbound {
		t.Fatalf("expected KindUnbound, got %v", k)
	}
}

func TestBindToIsWriteOnce(t *testing.T) {
	x := NewEmitterAsync[int]("x")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	jd1, err := Activate(exec, NewReaction("noop", func(values, replies []any) error { return nil }, VariableSite(x)))
	if err != nil {
		t.Fatalf("activate jd1: %v", err)
	}
	_ = jd1

	// x is already bound to jd1; a second JoinDefinition claiming it
	// must fail ALREADY_BOUND.
	_, err = Activate(exec, NewReaction("noop2", func(values, replies []any) error { return nil }, VariableSite(x)))
	if err == nil {
		t.Fatal("expected ALREADY_BOUND error")
	}
	if k := err.(*Error).Kind; k != KindAlreadyBound {
		t.Fatalf("expected KindAlreadyBound, got %v", k)
	}
}

func TestUnboundEmitDoesNotMutateBag(t *testing.T) {
	x := NewEmitterAsync[int]("x-never-bound")
	if err := x.Emit(42); err == nil {
		t.Fatal("expected error")
	}
	// Since x was never bound, there is no JoinDefinition to inspect —
	// the absence of a panic and the UNBOUND error together demonstrate
	// no bag was mutated.
}
