package httpapi

const (
	ErrInvalidJSON  = "invalid json"
	ErrMissingID    = "missing id"
	ErrMissingPhone = "missing phone"
	ErrDependency   = "dependency error"
	ErrNotFound     = "not found"
)
