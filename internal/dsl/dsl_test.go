package dsl

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arcflow/joincore/internal/join"
)

func TestCompileCounterSchemaEndToEnd(t *testing.T) {
	cfg, err := NewSchemaBuilder("counter-schema").
		Species("counter", KindAsync).
		Species("incr", KindAsync).
		Reaction("counter-incr").
		Input("counter", "n").
		Input("incr", "").
		Emit("counter", "$in.n").
		Done().
		Build()
	require.NoError(t, err)

	compiled, err := Compile(cfg)
	require.NoError(t, err)
	require.Len(t, compiled.Reactions, 1)

	exec := join.NewGoExecutor()
	defer exec.Shutdown()
	_, err = join.Activate(exec, compiled.Reactions...)
	require.NoError(t, err)

	require.NoError(t, compiled.EmitAsync("counter", 1))
	require.NoError(t, compiled.EmitAsync("incr", nil))
}

func TestCompileRejectsUnknownSpecies(t *testing.T) {
	cfg := SchemaConfig{
		Name:    "bad",
		Species: []SpeciesConfig{{Name: "x", Kind: KindAsync}},
		Reactions: []ReactionConfig{{
			ID:     "r",
			Inputs: []InputConfig{{Species: "does-not-exist"}},
		}},
	}
	_, err := Compile(cfg)
	require.Error(t, err)
}

func TestCompileRejectsNonlinearReaction(t *testing.T) {
	cfg := SchemaConfig{
		Name:    "bad",
		Species: []SpeciesConfig{{Name: "x", Kind: KindAsync}},
		Reactions: []ReactionConfig{{
			ID:     "r",
			Inputs: []InputConfig{{Species: "x"}, {Species: "x"}},
		}},
	}
	_, err := Compile(cfg)
	require.Error(t, err)
}

func TestWhereConditionFiltersCandidates(t *testing.T) {
	cfg, err := NewSchemaBuilder("where-schema").
		Species("order", KindAsync).
		Species("shipped", KindAsync).
		Species("ack", KindAsync).
		Reaction("ship-large-orders").
		Input("order", "o", Where("amount", OpGte, 100.0)).
		Emit("shipped", "$in.o").
		Done().
		// shipped must be an input of some reaction to be bound and hold
		// molecules; ack is never emitted, so hold-shipped never fires.
		Reaction("hold-shipped").
		Input("shipped", "s").
		Input("ack", "").
		Done().
		Build()
	require.NoError(t, err)

	compiled, err := Compile(cfg)
	require.NoError(t, err)

	exec := join.NewGoExecutor()
	defer exec.Shutdown()
	jd, err := join.Activate(exec, compiled.Reactions...)
	require.NoError(t, err)

	require.NoError(t, compiled.EmitAsync("order", map[string]any{"amount": 50.0}))
	require.Never(t, func() bool {
		return len(join.TakeSnapshot(jd).Molecules["shipped"]) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)

	require.NoError(t, compiled.EmitAsync("order", map[string]any{"amount": 150.0}))
	require.Eventually(t, func() bool {
		return len(join.TakeSnapshot(jd).Molecules["shipped"]) > 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReplyEffectCompletesSyncEmitter(t *testing.T) {
	cfg, err := NewSchemaBuilder("fetch-schema").
		Species("counter", KindAsync).
		Species("fetch", KindSync).
		Reaction("fetch-at-zero").
		Input("counter", "n", Where("", OpEq, 0)).
		Input("fetch", "f").
		Reply("f", "done").
		Emit("counter", "$in.n").
		Done().
		Build()
	require.NoError(t, err)

	compiled, err := Compile(cfg)
	require.NoError(t, err)

	exec := join.NewGoExecutor()
	defer exec.Shutdown()
	_, err = join.Activate(exec, compiled.Reactions...)
	require.NoError(t, err)

	require.NoError(t, compiled.EmitAsync("counter", 0))
	v, err := compiled.EmitSync("fetch", nil)
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

func TestYAMLRoundTrip(t *testing.T) {
	cfg, err := NewSchemaBuilder("yaml-schema").
		Species("x", KindAsync).
		Reaction("r").
		Input("x", "v").
		Emit("x", "$in.v").
		Done().
		Build()
	require.NoError(t, err)

	data, err := MarshalYAML(cfg)
	require.NoError(t, err)

	roundTripped, err := LoadYAML(data)
	require.NoError(t, err)
	require.Equal(t, cfg.Name, roundTripped.Name)
	require.Len(t, roundTripped.Reactions, 1)
	require.Equal(t, cfg.Reactions[0].ID, roundTripped.Reactions[0].ID)
}

func TestValidateCatchesDuplicateReactionID(t *testing.T) {
	cfg := SchemaConfig{
		Name:    "dup",
		Species: []SpeciesConfig{{Name: "x", Kind: KindAsync}},
		Reactions: []ReactionConfig{
			{ID: "r1", Inputs: []InputConfig{{Species: "x"}}},
			{ID: "r1", Inputs: []InputConfig{{Species: "x"}}},
		},
	}
	err := Validate(cfg)
	require.Error(t, err)
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	require.True(t, verr.HasIssues())
}
