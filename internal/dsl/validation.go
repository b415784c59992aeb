package dsl

import (
	"fmt"
	"strings"
)

// ValidationError collects every issue found while validating a
// SchemaConfig, rather than failing on the first one.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	switch len(e.Issues) {
	case 0:
		return "invalid schema: unknown validation error"
	case 1:
		return e.Issues[0]
	default:
		return "schema validation errors: " + strings.Join(e.Issues, "; ")
	}
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool { return len(e.Issues) > 0 }

var validOps = map[ComparisonOp]bool{
	OpEq: true, OpNe: true, OpGt: true, OpGte: true, OpLt: true, OpLte: true,
}

// Validate checks a SchemaConfig for structural problems that would
// otherwise surface as a confusing panic or silent no-match during
// compilation: unknown species references, duplicate names and IDs,
// malformed operators, and dangling "$in.*" references.
func Validate(cfg SchemaConfig) error {
	verr := &ValidationError{}

	if cfg.Name == "" {
		verr.Add("schema name is required")
	}

	species := make(map[string]bool, len(cfg.Species))
	for _, sp := range cfg.Species {
		if sp.Name == "" {
			verr.Add("species name is required")
			continue
		}
		if species[sp.Name] {
			verr.Add("duplicate species name: " + sp.Name)
			continue
		}
		if sp.Kind != KindAsync && sp.Kind != KindSync {
			verr.Add(fmt.Sprintf("species %q: kind must be %q or %q, got %q", sp.Name, KindAsync, KindSync, sp.Kind))
		}
		species[sp.Name] = true
	}

	ids := make(map[string]bool, len(cfg.Reactions))
	for i, r := range cfg.Reactions {
		prefix := fmt.Sprintf("reaction at index %d", i)
		if r.ID != "" {
			prefix = fmt.Sprintf("reaction %q", r.ID)
			if ids[r.ID] {
				verr.Add("duplicate reaction ID: " + r.ID)
			}
			ids[r.ID] = true
		} else {
			verr.Add(prefix + ": reaction ID is required")
		}

		if len(r.Inputs) == 0 {
			verr.Add(prefix + ": at least one input is required")
		}

		binds := make(map[string]bool, len(r.Inputs))
		seenSpecies := make(map[string]bool, len(r.Inputs))
		for j, in := range r.Inputs {
			inPrefix := fmt.Sprintf("%s input at index %d", prefix, j)
			if in.Species == "" {
				verr.Add(inPrefix + ": species is required")
			} else if !species[in.Species] {
				verr.Add(fmt.Sprintf("%s: species %q does not exist", inPrefix, in.Species))
			} else if seenSpecies[in.Species] {
				verr.Add(fmt.Sprintf("%s: species %q already used by another input of the same reaction (nonlinear)", inPrefix, in.Species))
			}
			seenSpecies[in.Species] = true
			if in.Bind != "" {
				binds[in.Bind] = true
			}
			for _, w := range in.Where {
				if !validOps[w.Op] {
					verr.Add(fmt.Sprintf("%s: unknown where operator %q", inPrefix, w.Op))
				}
			}
		}

		checkRef := func(context string, v any) {
			s, ok := v.(string)
			if !ok || !strings.HasPrefix(s, "$in.") {
				return
			}
			bindName := strings.TrimPrefix(s, "$in.")
			if idx := strings.IndexByte(bindName, '.'); idx >= 0 {
				bindName = bindName[:idx]
			}
			if !binds[bindName] {
				verr.Add(fmt.Sprintf("%s: reference %q names an unbound input", context, s))
			}
		}

		for k, eff := range r.Emit {
			ctx := fmt.Sprintf("%s emit at index %d", prefix, k)
			if eff.Species == "" {
				verr.Add(ctx + ": species is required")
			}
			checkRef(ctx, eff.Value)
			for _, pv := range eff.Payload {
				checkRef(ctx, pv)
			}
		}

		for k, rep := range r.Reply {
			ctx := fmt.Sprintf("%s reply at index %d", prefix, k)
			if rep.InputBind == "" {
				verr.Add(ctx + ": input_bind is required")
			} else if !binds[rep.InputBind] {
				verr.Add(fmt.Sprintf("%s: input_bind %q names an unbound input", ctx, rep.InputBind))
			}
			checkRef(ctx, rep.Value)
		}
	}

	if verr.HasIssues() {
		return verr
	}
	return nil
}
