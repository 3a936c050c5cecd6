package pdf

import (
	"errors"
	"fmt"
)

// Kind classifies why a merge failed.
type Kind int

const (
	KindUnknown Kind = iota
	KindNoInputs
	KindInvalidArguments
	KindMissingInput
	KindInvalidOutputPath
	KindExternalToolError
	KindEmptyOutput
	KindTimeout
	KindCanceled
)

var kindNames = map[Kind]string{
	KindUnknown:           "Unknown",
	KindNoInputs:          "NoInputs",
	KindInvalidArguments:  "InvalidArguments",
	KindMissingInput:      "MissingInput",
	KindInvalidOutputPath: "InvalidOutputPath",
	KindExternalToolError: "ExternalToolError",
	KindEmptyOutput:       "EmptyOutput",
	KindTimeout:           "Timeout",
	KindCanceled:          "Canceled",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ExitCode is the process exit status reported for a failure of this kind.
// Invalid argument classes share 1 so calling scripts can treat them alike.
func (k Kind) ExitCode() int {
	switch k {
	case KindNoInputs, KindInvalidArguments:
		return 1
	case KindMissingInput:
		return 2
	case KindExternalToolError:
		return 3
	case KindEmptyOutput:
		return 4
	case KindTimeout:
		return 5
	case KindInvalidOutputPath:
		return 6
	case KindCanceled:
		return 130
	default:
		return 1
	}
}

// Error is the failure result of a merge. Every error returned by Merger.Merge
// is an *Error.
type Error struct {
	Kind Kind
	// Path is the input or output path the failure refers to, if any.
	Path string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Msg != "" {
		msg += ": " + e.Msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode satisfies the interface used by exitcode.Get.
func (e *Error) ExitCode() int { return e.Kind.ExitCode() }

func newError(kind Kind, path, msg string, err error) *Error {
	return &Error{Kind: kind, Path: path, Msg: msg, Err: err}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindUnknown.
func KindOf(err error) Kind {
	var merr *Error
	if errors.As(err, &merr) {
		return merr.Kind
	}
	return KindUnknown
}
