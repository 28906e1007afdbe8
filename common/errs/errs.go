package errs

import "fmt"

type HttpError struct {
	Code    int
	Message string
	Data    any
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("code %d: %s, data: %v", e.Code, e.Message, e.Data)
}

// Kind classifies a workflow failure per the step that produced it, so the
// transport layer can pick a status code and the UI a recovery path.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindServerValidation
	KindNetwork
	KindConflict
	KindUnavailable
	KindVerificationFailed
	KindInitFailed
)

type WorkflowError struct {
	Kind    Kind
	Message string
	Fields  map[string]string
	Cause   error
}

func (e *WorkflowError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *WorkflowError) Unwrap() error {
	return e.Cause
}

func Validation(message string, fields map[string]string) *WorkflowError {
	return &WorkflowError{Kind: KindValidation, Message: message, Fields: fields}
}

func NotFound(message string) *WorkflowError {
	return &WorkflowError{Kind: KindNotFound, Message: message}
}

func Network(message string, cause error) *WorkflowError {
	return &WorkflowError{Kind: KindNetwork, Message: message, Cause: cause}
}

func Conflict(message string) *WorkflowError {
	return &WorkflowError{Kind: KindConflict, Message: message}
}

func Unavailable(message string, cause error) *WorkflowError {
	return &WorkflowError{Kind: KindUnavailable, Message: message, Cause: cause}
}

func KindOf(err error) Kind {
	if wfErr, ok := err.(*WorkflowError); ok {
		return wfErr.Kind
	}
	return KindUnknown
}
