package dsl

// SchemaBuilder assembles a SchemaConfig through chained calls, for
// callers who would rather build a schema in Go than author YAML/JSON.
type SchemaBuilder struct {
	cfg SchemaConfig
}

// NewSchemaBuilder starts a new schema builder.
func NewSchemaBuilder(name string) *SchemaBuilder {
	return &SchemaBuilder{cfg: SchemaConfig{Name: name}}
}

// Species declares one species.
func (b *SchemaBuilder) Species(name string, kind SpeciesKind) *SchemaBuilder {
	b.cfg.Species = append(b.cfg.Species, SpeciesConfig{Name: name, Kind: kind})
	return b
}

// Reaction starts a nested ReactionBuilder; call Done to return to the
// schema builder.
func (b *SchemaBuilder) Reaction(id string) *ReactionBuilder {
	return &ReactionBuilder{parent: b, cfg: ReactionConfig{ID: id}}
}

// Build validates and returns the assembled schema.
func (b *SchemaBuilder) Build() (SchemaConfig, error) {
	if err := Validate(b.cfg); err != nil {
		return SchemaConfig{}, err
	}
	return b.cfg, nil
}

// Compile validates and lowers the assembled schema in one step.
func (b *SchemaBuilder) Compile() (*CompiledSchema, error) {
	return Compile(b.cfg)
}

// ReactionBuilder assembles one ReactionConfig fluently before it is
// appended back to its parent SchemaBuilder via Done.
type ReactionBuilder struct {
	parent *SchemaBuilder
	cfg    ReactionConfig
}

// Name sets the reaction's display name.
func (r *ReactionBuilder) Name(name string) *ReactionBuilder {
	r.cfg.Name = name
	return r
}

// Input declares an input site, optionally bound to bind for later
// effects to reference. Pass "" for bind to leave it unbound.
func (r *ReactionBuilder) Input(species, bind string, where ...WhereCondition) *ReactionBuilder {
	r.cfg.Inputs = append(r.cfg.Inputs, InputConfig{Species: species, Bind: bind, Where: where})
	return r
}

// Emit appends an emit effect.
func (r *ReactionBuilder) Emit(species string, value any) *ReactionBuilder {
	r.cfg.Emit = append(r.cfg.Emit, EmitEffect{Species: species, Value: value})
	return r
}

// EmitPayload appends an emit effect with a structured payload.
func (r *ReactionBuilder) EmitPayload(species string, payload map[string]any) *ReactionBuilder {
	r.cfg.Emit = append(r.cfg.Emit, EmitEffect{Species: species, Payload: payload})
	return r
}

// Reply appends a reply effect targeting the sync input bound to
// inputBind.
func (r *ReactionBuilder) Reply(inputBind string, value any) *ReactionBuilder {
	r.cfg.Reply = append(r.cfg.Reply, ReplyEffect{InputBind: inputBind, Value: value})
	return r
}

// Done appends the assembled reaction to the parent schema and returns
// it for further chaining.
func (r *ReactionBuilder) Done() *SchemaBuilder {
	r.parent.cfg.Reactions = append(r.parent.cfg.Reactions, r.cfg)
	return r.parent
}

// Where is a convenience constructor for a WhereCondition.
func Where(field string, op ComparisonOp, value any) WhereCondition {
	return WhereCondition{Field: field, Op: op, Value: value}
}
