package fingerprint

import "fmt"

// DecodeError is returned when a buffer cannot be decoded as an image.
type DecodeError struct {
	Size int // length of the rejected buffer in bytes
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("failed to decode image (%d bytes): %v", e.Size, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// LengthMismatchError reports two hashes that cannot be compared.
// Every algorithm emits HashBits bits, so this signals a programming error.
type LengthMismatchError struct {
	Left, Right       Algorithm
	LeftLen, RightLen int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("cannot compare %s hash (%d bits) with %s hash (%d bits)",
		e.Left, e.LeftLen, e.Right, e.RightLen)
}
