package btre

import "github.com/pkg/errors"


//============================================= BTre Errors


// Error kinds surfaced through the gateway. Call sites wrap these with
// additional context, so matching is done with errors.Is.
var (
	// ErrNotInitialized: an operation was submitted before a successful initialize
	ErrNotInitialized = errors.New("store not initialized")
	// ErrAlreadyExists: create requested but the store file is already present
	ErrAlreadyExists = errors.New("store already exists")
	// ErrNotFound: open or destroy requested but the store file is absent
	ErrNotFound = errors.New("store not found")
	// ErrIO: the block device failed a read, write, truncate or flush
	ErrIO = errors.New("io failure")
	// ErrCorruption: magic, version or checksum mismatch, dangling offset or impossible key count
	ErrCorruption = errors.New("corruption detected")
	// ErrCodec: a key or value failed to encode or decode
	ErrCodec = errors.New("codec failure")
	// ErrCapacity: an encoded entry cannot fit in a single node page
	ErrCapacity = errors.New("entry exceeds page capacity")
	// ErrInvalidArgument: malformed config, missing codec or inconsistent order
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrClosed: an operation was submitted after close or after a fatal failure
	ErrClosed = errors.New("store closed")
	// ErrTimeout: the gateway rejected the reply before the engine produced it
	ErrTimeout = errors.New("request timed out")
)

// wrapCorruption
//	Tag an underlying failure as corruption while keeping its message.
func wrapCorruption(err error, msg string) error {
	return errors.Wrapf(ErrCorruption, "%s: %s", msg, err.Error())
}

// wrapIO
//	Tag an underlying failure as an io error while keeping its message.
func wrapIO(err error, msg string) error {
	return errors.Wrapf(ErrIO, "%s: %s", msg, err.Error())
}

// wrapCodec
//	Tag an underlying failure as a codec error while keeping its message.
func wrapCodec(err error, msg string) error {
	return errors.Wrapf(ErrCodec, "%s: %s", msg, err.Error())
}
