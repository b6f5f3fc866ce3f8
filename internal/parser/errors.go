package parser

import (
	"errors"
	"fmt"
)

// Kind classifies a parse or resolution failure
type Kind int

const (
	MalformedDirectiveArgs Kind = iota + 1 // Grammar violation in an argument list
	InvalidArgumentShape                   // Wrong arity or named-vs-unnamed mix
	MissingIncludeTarget                   // Resolved include file does not exist
	IOFailure                              // Source file could not be read
)

func (k Kind) String() string {
	switch k {
	case MalformedDirectiveArgs:
		return "malformed directive arguments"
	case InvalidArgumentShape:
		return "invalid argument shape"
	case MissingIncludeTarget:
		return "missing include target"
	case IOFailure:
		return "io failure"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is checks against an *Error of the matching kind
var (
	ErrMalformedArgs  = errors.New("malformed directive arguments")
	ErrArgumentShape  = errors.New("invalid argument shape")
	ErrMissingInclude = errors.New("missing include target")
	ErrIO             = errors.New("io failure")

	// ErrAborted is returned by Scan when the run's abort flag was raised
	// mid-file.
	ErrAborted = errors.New("scan aborted")
)

// Error is a failure tied to a position in a source file
type Error struct {
	Kind      Kind
	File      string
	Line      int
	Construct string // Directive being parsed, e.g. \include
	Msg       string
	Path      string // Missing or unreadable path, when relevant
	Err       error  // Underlying cause, e.g. from the filesystem
}

func (e *Error) Error() string {
	msg := e.Msg
	if e.Construct != "" {
		msg = fmt.Sprintf("%s for %s", msg, e.Construct)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, msg)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, msg)
	default:
		return msg
	}
}

// Unwrap exposes the kind sentinel and the underlying cause
func (e *Error) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k Kind) sentinel() error {
	switch k {
	case MalformedDirectiveArgs:
		return ErrMalformedArgs
	case InvalidArgumentShape:
		return ErrArgumentShape
	case MissingIncludeTarget:
		return ErrMissingInclude
	default:
		return ErrIO
	}
}

// KindOf returns the Kind of err, or 0 if err carries none
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}

func malformed(c *Cursor, format string, args ...any) *Error {
	return &Error{
		Kind: MalformedDirectiveArgs,
		Line: c.Line(),
		Msg:  fmt.Sprintf(format, args...),
	}
}
