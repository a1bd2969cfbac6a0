package openapi

import "fmt"

// Error kinds reported by the loader.
const (
	KindMalformedSpec      = "MalformedSpec"
	KindUnsupportedVersion = "UnsupportedVersion"
)

// MalformedSpec is returned for documents that cannot be decoded or do not
// conform to OpenAPI 3.
type MalformedSpec struct {
	Reason string
	// Operation is set when the problem is tied to one operation.
	Operation string
	Err       error
}

// Kind returns KindMalformedSpec.
func (e *MalformedSpec) Kind() string { return KindMalformedSpec }

func (e *MalformedSpec) Error() string {
	msg := "malformed spec: " + e.Reason
	if e.Operation != "" {
		msg += fmt.Sprintf(" (operation %s)", e.Operation)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedSpec) Unwrap() error { return e.Err }

// UnsupportedVersion is returned for documents whose major version is not 3,
// including Swagger 2.0.
type UnsupportedVersion struct {
	Version string
}

// Kind returns KindUnsupportedVersion.
func (e *UnsupportedVersion) Kind() string { return KindUnsupportedVersion }

func (e *UnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported spec version %q: only OpenAPI 3.x is supported", e.Version)
}

func malformed(reason string, err error) *MalformedSpec {
	return &MalformedSpec{Reason: reason, Err: err}
}
