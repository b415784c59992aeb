package dsl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTOMLRoundTrip(t *testing.T) {
	cfg, err := NewSchemaBuilder("toml-schema").
		Species("x", KindAsync).
		Reaction("r").
		Input("x", "v").
		Emit("x", "$in.v").
		Done().
		Build()
	require.NoError(t, err)

	data, err := MarshalTOML(cfg)
	require.NoError(t, err)

	roundTripped, err := LoadTOML(data)
	require.NoError(t, err)
	require.Equal(t, cfg.Name, roundTripped.Name)
	require.Len(t, roundTripped.Reactions, 1)
	require.Equal(t, cfg.Reactions[0].ID, roundTripped.Reactions[0].ID)
	require.Equal(t, cfg.Species[0].Name, roundTripped.Species[0].Name)
}
