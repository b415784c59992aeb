package join

import "testing"

func TestFingerprintStableAcrossEquivalentReactions(t *testing.T) {
	x := NewEmitterAsync[int]("x")
	y := NewEmitterAsync[int]("y")

	body := func(values, replies []any) error { return nil }

	r1 := NewReaction("r", body, VariableSite(x), VariableSite(y))
	r2 := NewReaction("r", body, VariableSite(x), VariableSite(y))

	if r1.Fingerprint() != r2.Fingerprint() {
		t.Fatalf("expected equal fingerprints, got %s != %s", r1.Fingerprint(), r2.Fingerprint())
	}

	r3 := NewReaction("r", body, ConstantSite(x, 1), VariableSite(y))
	if r1.Fingerprint() == r3.Fingerprint() {
		t.Fatal("expected different fingerprints for different match flags")
	}
}

func TestNonlinearRejectedAtActivation(t *testing.T) {
	x := NewEmitterAsync[int]("x-nonlinear")
	exec := NewGoExecutor()
	defer exec.Shutdown()

	r := NewReaction("bad", func(values, replies []any) error { return nil }, VariableSite(x), VariableSite(x))

	_, err := Activate(exec, r)
	if err == nil {
		t.Fatal("expected NONLINEAR error")
	}
	if k := err.(*Error).Kind; k != KindNonlinear {
		t.Fatalf("expected KindNonlinear, got %v", k)
	}

	// x must remain unbound, so a subsequent emit fails UNBOUND.
	if err := x.Emit(1); err == nil {
		t.Fatal("expected UNBOUND after failed nonlinear activation")
	} else if k := err.(*Error).Kind; k != KindUnbound {
		t.Fatalf("expected KindUnbound, got %v", k)
	}
}
