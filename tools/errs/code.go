package errs

// Error codes shared between the websocket gateway and the HTTP layer.
const (
	CodeBadRequest   = 1001
	CodeUnauthorized = 1002
	CodeForbidden    = 1003
	CodeNotFound     = 1004
	CodeRecordExists = 1005
	CodeInternal     = 1500
)

var (
	ErrBadRequest   = NewCodeError(CodeBadRequest, "bad request")
	ErrUnauthorized = NewCodeError(CodeUnauthorized, "unauthorized")
	ErrForbidden    = NewCodeError(CodeForbidden, "forbidden")
	ErrNotFound     = NewCodeError(CodeNotFound, "record not found")
	ErrRecordExists = NewCodeError(CodeRecordExists, "record already exists")
	ErrInternal     = NewCodeError(CodeInternal, "internal error")
)

// New builds a plain internal CodeError with optional key/value detail.
func New(msg string, kv ...any) *CodeError {
	e := NewCodeError(CodeInternal, msg)
	if len(kv) > 0 {
		e = e.WithDetail(toString("", kv))
	}
	return &e
}
