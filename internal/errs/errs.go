package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for broad classification.
var (
	ErrMediaDecode            = errors.New("media decode error")
	ErrUnsupportedEnvironment = errors.New("unsupported environment")
	ErrEncoding               = errors.New("encoding error")
	ErrInvalidScene           = errors.New("invalid scene")
	ErrExportInProgress       = errors.New("export already in progress")
)

// Kind is a coarse-grained categorization for errors.
type Kind string

const (
	KindMediaDecode            Kind = "media_decode"
	KindUnsupportedEnvironment Kind = "unsupported_environment"
	KindEncoding               Kind = "encoding"
	KindInvalidScene           Kind = "invalid_scene"
)

var sentinels = map[Kind]error{
	KindMediaDecode:            ErrMediaDecode,
	KindUnsupportedEnvironment: ErrUnsupportedEnvironment,
	KindEncoding:               ErrEncoding,
	KindInvalidScene:           ErrInvalidScene,
}

// OpError wraps an underlying error with operation context and a kind.
type OpError struct {
	Op      string
	Kind    Kind
	Subject string // Optional: scene id, media key or file path
	Err     error
}

func (e *OpError) Error() string {
	if e == nil {
		return "<nil>"
	}

	base := fmt.Sprintf("%s: %s", e.Op, e.Kind)
	if e.Subject != "" {
		base += fmt.Sprintf(" (%s)", e.Subject)
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *OpError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match the sentinel that belongs to the error's kind.
func (e *OpError) Is(target error) bool {
	if e == nil {
		return false
	}
	s, ok := sentinels[e.Kind]
	return ok && s == target
}

// IsKind helps callers classify errors without depending on the producing package.
func IsKind(err error, kind Kind) bool {
	var oe *OpError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}

func MediaDecode(op, subject string, err error) error {
	return &OpError{Op: op, Kind: KindMediaDecode, Subject: subject, Err: err}
}

func UnsupportedEnvironment(op string, err error) error {
	return &OpError{Op: op, Kind: KindUnsupportedEnvironment, Err: err}
}

func Encoding(op string, err error) error {
	return &OpError{Op: op, Kind: KindEncoding, Err: err}
}

func InvalidScene(op, subject string, err error) error {
	return &OpError{Op: op, Kind: KindInvalidScene, Subject: subject, Err: err}
}
