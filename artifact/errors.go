package artifact

import "fmt"

// ErrMissingArtifact indicates that one of the co-located artifact files is
// absent. The set refuses to serve partial state.
type ErrMissingArtifact struct {
	Name  string
	cause error
}

func (e *ErrMissingArtifact) Error() string {
	return fmt.Sprintf("missing artifact: %s", e.Name)
}

func (e *ErrMissingArtifact) Unwrap() error { return e.cause }

// ErrCorruptArtifact indicates that the artifact files disagree with each
// other, typically a torn write from a crash mid-append. There is no
// automatic repair: an operator must rebuild from the record source.
type ErrCorruptArtifact struct {
	Detail string
	cause  error
}

func (e *ErrCorruptArtifact) Error() string {
	return fmt.Sprintf("corrupt artifact set: %s", e.Detail)
}

func (e *ErrCorruptArtifact) Unwrap() error { return e.cause }
