package vault

import (
	"github.com/pkg/errors"
)

var (
	ErrKeyDerivation = errors.New("vault: key derivation failed")
	ErrKeyDestroyed  = errors.New("vault: key has been destroyed")
	ErrDecryption    = errors.New("vault: decryption failed (wrong password or corrupted data)")
	ErrFormat        = errors.New("vault: malformed envelope")
	ErrEncoding      = errors.New("vault: malformed base64 field")
	ErrLength        = errors.New("vault: invalid field length")
	ErrIO            = errors.New("vault: i/o failure")
)

// Error carries the failing operation and path alongside the error kind.
// It unwraps to both Kind and the underlying cause.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	msg += ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind, err error) error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// withPath fills in the path on a core error raised below the store layer.
func withPath(err error, op, path string) error {
	var ve *Error
	if errors.As(err, &ve) {
		if ve.Path == "" {
			ve.Path = path
		}
		ve.Op = op + ": " + ve.Op
		return ve
	}
	return newError(op, path, ErrIO, err)
}
