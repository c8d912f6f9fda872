package match

import "errors"

// Error kinds shared by every layer. Wrap them with fmt.Errorf("%w: ...") and
// classify with errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrForbidden          = errors.New("forbidden")
	ErrGatewayUnavailable = errors.New("sms gateway unavailable")
	// ErrInvalidMessageID marks a stored gateway id that is not numeric.
	ErrInvalidMessageID = errors.New("invalid gateway message id")
)
