package pipeline

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure. The kind decides whether the queue
// should retry the task and what lands on the owning row.
type Kind string

const (
	// KindInvalidInput covers unparseable URLs and non-positive durations.
	// Never retried.
	KindInvalidInput Kind = "invalid_input"
	// KindExternalTool covers non-zero exits from download/probe/encode
	// subprocesses. Retried up to the queue policy maximum.
	KindExternalTool Kind = "external_tool_failure"
	// KindTranscription covers speech-to-text failures. Degrades gracefully:
	// captions are skipped, extraction continues.
	KindTranscription Kind = "transcription_failure"
	// KindSignal covers per-signal analyzer failures. Substituted with a
	// neutral fallback, analysis continues.
	KindSignal Kind = "signal_failure"
	// KindStorage covers object-store transfer failures. Retried.
	KindStorage Kind = "storage_failure"
	// KindDataIntegrity covers tasks referencing rows that do not exist.
	// Never retried.
	KindDataIntegrity Kind = "data_integrity"
	// KindTimeout covers subprocess or HTTP deadline overruns. Treated as an
	// external tool failure for retry purposes.
	KindTimeout Kind = "timeout"
)

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// E wraps err with a failure kind.
func E(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// Errorf is E with formatting.
func Errorf(kind Kind, format string, args ...any) error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the failure kind of err, defaulting to external tool failure
// for unclassified errors so they stay retryable.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindExternalTool
}

// Unretriable reports whether err should never be redelivered.
func Unretriable(err error) bool {
	switch KindOf(err) {
	case KindInvalidInput, KindDataIntegrity:
		return true
	default:
		return false
	}
}

// maxErrorMessage bounds error text persisted on Job/Segment rows.
const maxErrorMessage = 200

// UserMessage renders err for storage on the owning row.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > maxErrorMessage {
		msg = msg[:maxErrorMessage]
	}
	return msg
}
