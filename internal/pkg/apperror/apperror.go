package apperror

import "errors"

// Kind classifies an error for callers that need to map it to their own representation.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindTooManyRequests:
		return "too_many_requests"
	default:
		return "internal"
	}
}

// Public is implemented by errors whose message is safe to show to a caller.
type Public interface {
	error
	ErrorKind() Kind
}

// AppError is a custom error type that includes a kind and an optional wrapped cause.
type AppError struct {
	Kind    Kind   // Category used for status mapping
	Message string // User-facing error message
	Err     error  // The underlying error, if any (not exposed to user)
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) ErrorKind() Kind {
	return e.Kind
}

// New creates a new AppError with a kind and message.
func New(kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
	}
}

// Wrap creates a new AppError wrapping an existing error.
func Wrap(err error, kind Kind, message string) *AppError {
	return &AppError{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the kind of the first public error in err's chain.
// Errors outside the taxonomy are KindInternal.
func KindOf(err error) Kind {
	var pub Public
	if errors.As(err, &pub) {
		return pub.ErrorKind()
	}
	return KindInternal
}

// IsKind reports whether err belongs to the given kind.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
