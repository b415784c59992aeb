package join

// MatchKind tags how an input site's pattern accepts a candidate value.
type MatchKind int

const (
	// Wildcard matches any value and binds nothing.
	Wildcard MatchKind = iota
	// Variable matches any value and binds it for the reaction body.
	Variable
	// Constant matches iff the value equals Site.Constant under Go's
	// structural (==) equality.
	Constant
	// Other matches iff Site.Predicate(value) returns true, used for
	// structural destructuring the other three flags can't express.
	Other
)

// InputSite is one input position of a reaction: a species plus the
// match predicate applied to candidates of that species.
type InputSite struct {
	Species   *speciesHandle
	Flag      MatchKind
	Const     any
	Predicate func(value any) bool
}

func (s InputSite) accepts(value any) bool {
	switch s.Flag {
	case Wildcard, Variable:
		return true
	case Constant:
		return value == s.Const
	case Other:
		return s.Predicate != nil && s.Predicate(value)
	default:
		return false
	}
}

// WildcardSite declares an input site that matches and discards any
// value of species s.
func WildcardSite(s Emitter) InputSite {
	return InputSite{Species: s.handle(), Flag: Wildcard}
}

// VariableSite declares an input site that matches any value of species
// s and binds it into the reaction body's argument vector.
func VariableSite(s Emitter) InputSite {
	return InputSite{Species: s.handle(), Flag: Variable}
}

// ConstantSite declares an input site that only matches values of
// species s structurally equal to c.
func ConstantSite(s Emitter, c any) InputSite {
	return InputSite{Species: s.handle(), Flag: Constant, Const: c}
}

// OtherSite declares an input site that matches values of species s
// satisfying the supplied pure predicate.
func OtherSite(s Emitter, predicate func(value any) bool) InputSite {
	return InputSite{Species: s.handle(), Flag: Other, Predicate: predicate}
}
