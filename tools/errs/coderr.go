package errs

import (
	"errors"
	"strconv"
	"strings"
)

// Error codes reported back over the wire. Handshake failures are never
// reported; the client only observes the close.
const (
	CodeInvalidCredential  = 1401
	CodeUnauthorized       = 1403
	CodeNotFound           = 1404
	CodeStorageUnavailable = 1503
)

var (
	ErrInvalidCredential  = NewCodeError(CodeInvalidCredential, "invalid credential")
	ErrUnauthorized       = NewCodeError(CodeUnauthorized, "not a member of conversation")
	ErrNotFound           = NewCodeError(CodeNotFound, "record not found")
	ErrStorageUnavailable = NewCodeError(CodeStorageUnavailable, "storage unavailable")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	v := make([]string, 0, 3)
	v = append(v, strconv.Itoa(e.Code), e.Msg)
	if e.Detail != "" {
		v = append(v, e.Detail)
	}
	return strings.Join(v, " ")
}

// WithDetail returns a copy carrying extra context; the original sentinel
// stays untouched so errors.Is keeps matching.
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// CodeOf extracts the wire code from an error chain, falling back to the
// storage-unavailable code for untyped failures.
func CodeOf(err error) int {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeStorageUnavailable
}

// MsgOf returns the user-facing message for an error chain. Untyped causes
// are not leaked to the client.
func MsgOf(err error) string {
	var ce *CodeError
	if errors.As(err, &ce) {
		return ce.Msg
	}
	return "internal error"
}
