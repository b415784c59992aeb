// Package dsl lowers a declarative reaction schema — authored as YAML,
// JSON, or a fluent builder call chain — into the join.ReactionInfo
// values the runtime consumes. It is a reference implementation of the
// pluggable "reaction source syntax" collaborator; nothing under
// internal/join depends on it.
package dsl

// SpeciesKind distinguishes an async species from a blocking one in a
// declarative schema.
type SpeciesKind string

const (
	KindAsync SpeciesKind = "async"
	KindSync  SpeciesKind = "sync"
)

// SpeciesConfig declares one species by name and blocking behavior.
type SpeciesConfig struct {
	Name string      `yaml:"name" json:"name" toml:"name"`
	Kind SpeciesKind `yaml:"kind" json:"kind" toml:"kind"`
}

// ComparisonOp names a field comparison used by a WhereCondition.
type ComparisonOp string

const (
	OpEq  ComparisonOp = "eq"
	OpNe  ComparisonOp = "ne"
	OpGt  ComparisonOp = "gt"
	OpGte ComparisonOp = "gte"
	OpLt  ComparisonOp = "lt"
	OpLte ComparisonOp = "lte"
)

// WhereCondition restricts an input site to candidates whose bound value
// (or a field of it, when the value is a map[string]any payload)
// satisfies Op against Value. Field accepts a bare key ("amount") or the
// "$m.amount" form for readability in schema files that also reference
// sibling inputs elsewhere. An empty Field compares the candidate's
// whole value.
type WhereCondition struct {
	Field string       `yaml:"field,omitempty" json:"field,omitempty" toml:"field,omitempty"`
	Op    ComparisonOp `yaml:"op" json:"op" toml:"op"`
	Value any          `yaml:"value" json:"value" toml:"value"`
}

// InputConfig is one input position of a declared reaction. Bind names
// the variable later Emit/Reply effects reference via "$in.<bind>"; an
// empty Bind makes the site a wildcard that still consumes a molecule
// but is not addressable from effects.
type InputConfig struct {
	Species string           `yaml:"species" json:"species" toml:"species"`
	Bind    string           `yaml:"bind,omitempty" json:"bind,omitempty" toml:"bind,omitempty"`
	Where   []WhereCondition `yaml:"where,omitempty" json:"where,omitempty" toml:"where,omitempty"`
}

// EmitEffect describes a molecule a firing reaction injects. Value and
// every entry of Payload may be a literal, or a "$in.<bind>" /
// "$in.<bind>.<field>" reference resolved against the reaction's bound
// input values at fire time.
type EmitEffect struct {
	Species string         `yaml:"species" json:"species" toml:"species"`
	Value   any            `yaml:"value,omitempty" json:"value,omitempty" toml:"value,omitempty"`
	Payload map[string]any `yaml:"payload,omitempty" json:"payload,omitempty" toml:"payload,omitempty"`
}

// ReplyEffect completes the sync input bound to InputBind with Value
// (subject to the same "$in.*" reference resolution as EmitEffect).
type ReplyEffect struct {
	InputBind string `yaml:"input_bind" json:"input_bind" toml:"input_bind"`
	Value     any    `yaml:"value,omitempty" json:"value,omitempty" toml:"value,omitempty"`
}

// ReactionConfig declares one reaction: its input pattern and the
// effects it performs when it fires.
type ReactionConfig struct {
	ID     string        `yaml:"id" json:"id" toml:"id"`
	Name   string        `yaml:"name" json:"name" toml:"name"`
	Inputs []InputConfig `yaml:"inputs" json:"inputs" toml:"inputs"`
	Emit   []EmitEffect  `yaml:"emit,omitempty" json:"emit,omitempty" toml:"emit,omitempty"`
	Reply  []ReplyEffect `yaml:"reply,omitempty" json:"reply,omitempty" toml:"reply,omitempty"`
}

// SchemaConfig is the root of a declarative reaction schema.
type SchemaConfig struct {
	Name      string           `yaml:"name" json:"name" toml:"name"`
	Species   []SpeciesConfig  `yaml:"species" json:"species" toml:"species"`
	Reactions []ReactionConfig `yaml:"reactions" json:"reactions" toml:"reactions"`
}
