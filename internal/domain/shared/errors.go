package shared

// DomainError carries a stable machine-readable code alongside a
// human-readable message. The HTTP layer maps codes onto status codes;
// everything below it only deals in codes.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string { return e.Message }

// Is matches any DomainError with the same code, so a rewrapped error
// still compares equal to its sentinel.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	return ok && t.Code == e.Code
}

// NewDomainError builds a DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Sentinels shared across the domain. Packages define their own codes
// for conditions specific to them.
var (
	ErrNotFound          = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput      = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState      = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrInvalidSignal     = NewDomainError("INVALID_SIGNAL", "Signal carries no identifying field")
	ErrDuplicateIdentity = NewDomainError("DUPLICATE_IDENTITY", "Identity key already exists on the platform")
	ErrRemoteUnavailable = NewDomainError("REMOTE_UNAVAILABLE", "Customer platform is unavailable")
)
