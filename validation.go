package uip

import (
	"errors"
	"fmt"
)

// ValidatorFlags configures optional, stricter validation behavior.
type ValidatorFlags uint8

const (
	// ValidateEvilBit enables rejection of IPv4 packets with the evil bit
	// (RFC 3514) set. Disabled by default: most real traffic never sets it,
	// and nothing in this stack needs to police it unless asked to.
	ValidateEvilBit ValidatorFlags = 1 << iota
	// ValidateMultiErr makes AddError accumulate every error passed to it
	// instead of keeping only the first.
	ValidateMultiErr
)

// Validator accumulates field-validation errors produced by a frame's
// ValidateSize/ValidateExceptCRC methods. The zero value stops at the
// first error added; set ValidateMultiErr via SetFlags to collect all of
// them.
type Validator struct {
	flags ValidatorFlags
	accum []error
}

// SetFlags configures validator behavior. See ValidatorFlags.
func (v *Validator) SetFlags(f ValidatorFlags) { v.flags = f }

// Flags returns the validator's configured flags.
func (v *Validator) Flags() ValidatorFlags { return v.flags }

// AddError registers a validation failure. If ValidateMultiErr is not set
// and an error has already been registered, err is discarded: the first
// failure found is the one that matters for callers who only check
// HasError/Err.
func (v *Validator) AddError(err error) {
	if err == nil {
		panic("uip: AddError called with nil error")
	}
	if len(v.accum) != 0 && v.flags&ValidateMultiErr == 0 {
		return
	}
	v.accum = append(v.accum, err)
}

// HasError reports whether any error has been registered since the last
// ResetErr.
func (v *Validator) HasError() bool { return len(v.accum) != 0 }

// Err returns the accumulated errors joined with errors.Join, or nil if
// none were registered.
func (v *Validator) Err() error {
	switch len(v.accum) {
	case 0:
		return nil
	case 1:
		return v.accum[0]
	default:
		return errors.Join(v.accum...)
	}
}

// ErrPop returns and clears the most recently added error, or nil if none
// is pending. Useful for callers that want to react to and discard one
// failure at a time instead of joining the whole batch.
func (v *Validator) ErrPop() error {
	if len(v.accum) == 0 {
		return nil
	}
	last := len(v.accum) - 1
	err := v.accum[last]
	v.accum = v.accum[:last]
	return err
}

// ResetErr clears all accumulated errors, readying the validator for reuse.
func (v *Validator) ResetErr() { v.accum = v.accum[:0] }

// BitPosErr annotates an error with the bit range of the offending field,
// useful when validating packed bitfields such as IPv4 flags.
type BitPosErr struct {
	BitStart int
	BitLen   int
	Err      error
}

func (e *BitPosErr) Error() string {
	return fmt.Sprintf("%s at bits %d..%d", e.Err.Error(), e.BitStart, e.BitStart+e.BitLen)
}

// AddBitPosErr registers a validation failure tied to a specific bit range.
func (v *Validator) AddBitPosErr(bitStart, bitLen int, err error) {
	if err == nil {
		panic("uip: AddBitPosErr called with nil error")
	}
	v.AddError(&BitPosErr{BitStart: bitStart, BitLen: bitLen, Err: err})
}
