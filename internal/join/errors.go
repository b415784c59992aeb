package join

import "fmt"

// Kind identifies the category of error the runtime surfaces across
// activation and emission.
type Kind int

const (
	// KindUnbound: emission on a species that was never registered as input.
	KindUnbound Kind = iota
	// KindAlreadyBound: activation attempting to claim a species owned by another JoinDefinition.
	KindAlreadyBound
	// KindNonlinear: activation with a reaction that lists one species twice as input.
	KindNonlinear
	// KindInvalidReply: a sync input declared without a reply-binder, or a
	// body statically known to reply multiple times to the same channel.
	KindInvalidReply
	// KindNoReply: a sync emitter's reaction completed without replying.
	KindNoReply
	// KindTimeout: a sync emitter's deadline expired before reply.
	KindTimeout
	// KindExecutorRejected: the executor declined to submit a task.
	KindExecutorRejected
)

func (k Kind) String() string {
	switch k {
	case KindUnbound:
		return "UNBOUND"
	case KindAlreadyBound:
		return "ALREADY_BOUND"
	case KindNonlinear:
		return "NONLINEAR"
	case KindInvalidReply:
		return "INVALID_REPLY"
	case KindNoReply:
		return "NO_REPLY"
	case KindTimeout:
		return "TIMEOUT"
	case KindExecutorRejected:
		return "EXECUTOR_REJECTED"
	default:
		return "UNKNOWN"
	}
}

// Error is the error type returned by every activation and emission
// operation that can fail. It carries a Kind so callers can dispatch on
// errors.Is(err, join.ErrNoReply) style sentinels without string
// matching.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is lets errors.Is match on Kind alone, so callers can write
// errors.Is(err, join.ErrNoReply) against a newly constructed sentinel of
// the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func newError(k Kind, format string, args ...any) *Error {
	return &Error{Kind: k, Message: fmt.Sprintf(format, args...)}
}

// Sentinel errors for errors.Is comparisons against a fixed Kind,
// irrespective of the message.
var (
	ErrUnbound          = &Error{Kind: KindUnbound}
	ErrAlreadyBound     = &Error{Kind: KindAlreadyBound}
	ErrNonlinear        = &Error{Kind: KindNonlinear}
	ErrInvalidReply     = &Error{Kind: KindInvalidReply}
	ErrNoReply          = &Error{Kind: KindNoReply}
	ErrTimeout          = &Error{Kind: KindTimeout}
	ErrExecutorRejected = &Error{Kind: KindExecutorRejected}
)
