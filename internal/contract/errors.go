package contract

import (
	"errors"
	"fmt"

	"github.com/huangsam/patchrisk/schema"
)

// Retrieval sentinels, one per artifact. Match them with errors.Is.
var (
	ErrResultRetrieval  = errors.New("error fetching risk analysis results for this diff")
	ErrFeatureRetrieval = errors.New("error fetching risk analysis features for this diff")
	ErrMethodRetrieval  = errors.New("error fetching method-level risk analysis for this diff")
)

// RetrievalError reports a failed artifact download or decode.
type RetrievalError struct {
	Artifact   schema.Artifact
	DiffID     string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RetrievalError) Error() string {
	msg := SentinelFor(e.Artifact).Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (diff %s, %s: HTTP %d)", msg, e.DiffID, e.Artifact, e.StatusCode)
	} else {
		msg = fmt.Sprintf("%s (diff %s, %s)", msg, e.DiffID, e.Artifact)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the failed artifact.
func (e *RetrievalError) Is(target error) bool {
	return target == SentinelFor(e.Artifact)
}

// SentinelFor returns the retrieval sentinel for an artifact.
func SentinelFor(artifact schema.Artifact) error {
	switch artifact {
	case schema.FeatureArtifact:
		return ErrFeatureRetrieval
	case schema.MethodArtifact:
		return ErrMethodRetrieval
	default:
		return ErrResultRetrieval
	}
}

// PreconditionError means the page lacks something a pass needs before it can start.
type PreconditionError struct {
	What string
}

func (e *PreconditionError) Error() string {
	return e.What
}

// Precondition messages.
const (
	MissingDiffID        = "missing diff ID"
	MissingDiffDetailBox = "missing diff detail box"
)

// MalformedRecordError reports an artifact record that is missing a field
// or carries a value that does not parse.
type MalformedRecordError struct {
	Kind     string // "result", "feature" or "method"
	Position int
	Field    string
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed %s record at position %d: bad field %q", e.Kind, e.Position, e.Field)
}
