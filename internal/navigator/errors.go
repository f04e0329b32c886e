package navigator

import "fmt"

// NavErrorKind classifies navigation failures.
type NavErrorKind string

const (
	PageUnreachable NavErrorKind = "PAGE_UNREACHABLE"
	LoginFailed     NavErrorKind = "LOGIN_FAILED"
	VersionNotFound NavErrorKind = "VERSION_NOT_FOUND"
)

// NavError reports which step of the flow failed and why.
type NavError struct {
	Kind   NavErrorKind
	Step   string
	Detail string
	Err    error
}

func (e *NavError) Error() string {
	msg := fmt.Sprintf("navigation failed at %s (%s)", e.Step, e.Kind)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NavError) Unwrap() error { return e.Err }

func navErr(kind NavErrorKind, step string, err error, format string, args ...interface{}) *NavError {
	return &NavError{Kind: kind, Step: step, Detail: fmt.Sprintf(format, args...), Err: err}
}
