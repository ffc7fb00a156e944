// internal/types/result.go
package types

import (
	"encoding/json"
	"fmt"
)

// ErrorKind classifies why a run produced no report.
type ErrorKind string

const (
	KindInvalidFormat       ErrorKind = "invalid_format"
	KindFileNotStable       ErrorKind = "file_not_stable"
	KindConversionFailed    ErrorKind = "conversion_failed"
	KindTranscriptionInput  ErrorKind = "transcription_input"
	KindTranscriptionFailed ErrorKind = "transcription_failed"
	KindEmptyTranscript     ErrorKind = "empty_transcript"
	KindParseFailed         ErrorKind = "parse_failed"
	KindLLMRequestFailed    ErrorKind = "llm_request_failed"
	KindCanceled            ErrorKind = "canceled"
	KindCritical            ErrorKind = "critical"
)

// Error is a stage failure with a programmatic kind.
type Error struct {
	Kind  ErrorKind
	Stage string
	Err   error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Result is the outcome of processing one file: exactly one of Report or Err is set.
type Result struct {
	Report *IncidentReport
	Err    *Error
}

// Success wraps a finished report.
func Success(r IncidentReport) Result {
	return Result{Report: &r}
}

// Failure wraps a typed error.
func Failure(kind ErrorKind, stage string, err error) Result {
	return Result{Err: &Error{Kind: kind, Stage: stage, Err: err}}
}

// OK reports whether the result carries a report.
func (r Result) OK() bool {
	return r.Err == nil && r.Report != nil
}

// ErrorBody is the JSON shape printed for any failure.
type ErrorBody struct {
	Error string `json:"error"`
}

// MarshalJSON prints the report on success and {"error": ...} otherwise.
func (r Result) MarshalJSON() ([]byte, error) {
	if r.Err != nil {
		return json.Marshal(ErrorBody{Error: r.Err.Error()})
	}
	if r.Report == nil {
		return json.Marshal(ErrorBody{Error: "no result"})
	}
	return json.Marshal(r.Report)
}

// Criticalf builds the body printed when the command cannot even start a run.
func Criticalf(format string, args ...any) ErrorBody {
	return ErrorBody{Error: "Critical failure: " + fmt.Sprintf(format, args...)}
}
