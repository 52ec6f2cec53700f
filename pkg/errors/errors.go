package errors

import (
	"fmt"
	"runtime"
	"time"
)

const maxFrames = 16

// Error is a coded failure with an optional cause and key/value context
type Error struct {
	Code      Code
	Message   string
	Cause     error
	Context   map[string]string
	Stack     []Frame
	Timestamp time.Time
}

// Frame is one caller recorded when the error was created
type Frame struct {
	Function string
	File     string
	Line     int
}

func newError(code Code, message string, cause error) *Error {
	return &Error{
		Code:      code,
		Message:   message,
		Cause:     cause,
		Stack:     callers(4),
		Timestamp: time.Now(),
	}
}

// New creates an error; cause may be nil
func New(code Code, message string, cause error) *Error {
	return newError(code, message, cause)
}

// Newf creates an error without a cause
func Newf(code Code, format string, args ...interface{}) *Error {
	return newError(code, fmt.Sprintf(format, args...), nil)
}

// Wrap is New with the cause first
func Wrap(code Code, err error, message string) *Error {
	return newError(code, message, err)
}

// Wrapf wraps err with a formatted message
func Wrapf(code Code, err error, format string, args ...interface{}) *Error {
	return newError(code, fmt.Sprintf(format, args...), err)
}

// AddContext sets key and returns e for chaining
func (e *Error) AddContext(key, value string) *Error {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error with the same code, so errors.Is works against a coded sentinel
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code.Equals(e.Code)
}

func callers(skip int) []Frame {
	pcs := make([]uintptr, maxFrames)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return nil
	}

	frames := make([]Frame, 0, n)
	iter := runtime.CallersFrames(pcs[:n])
	for {
		f, more := iter.Next()
		frames = append(frames, Frame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			return frames
		}
	}
}
