package id3v2

import (
	"errors"
	"fmt"
)

// ErrNotATag is returned by Decode when the input does not start with the
// "ID3" signature.
type ErrNotATag struct {
	Got [3]byte
}

func (e ErrNotATag) Error() string {
	return fmt.Sprintf("id3v2: not a tag: expected signature %q, got %q", "ID3", e.Got[:])
}

// ErrUnsupportedVersion is returned when a tag header or a user-requested
// version names a major version outside {2, 3, 4}.
type ErrUnsupportedVersion struct {
	Version int
}

func (e ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("id3v2: unsupported version %d, expected 2, 3 or 4", e.Version)
}

// ErrMalformed covers every other structurally-invalid input: truncated
// buffers, a synchsafe byte with its high bit set, an unrecognised text
// encoding byte, an unknown frame identifier, or a tag-level compression
// flag (unsupported at any version).
type ErrMalformed struct {
	Reason string
}

func (e ErrMalformed) Error() string {
	return fmt.Sprintf("id3v2: malformed tag: %s", e.Reason)
}

// ErrOutOfRange covers values that decode or were constructed outside the
// range their wire layout allows: MLLT preamble fields wider than their
// declared width, a UFID identifier longer than 64 bytes, a deviation
// bit-width above 255, an empty UFID owner, or a frame whose body claims
// more bytes than its declared size.
type ErrOutOfRange struct {
	Field  string
	Reason string
}

func (e ErrOutOfRange) Error() string {
	return fmt.Sprintf("id3v2: %s out of range: %s", e.Field, e.Reason)
}

// ErrNoRemap is the programmer error returned by remapToCanonical and
// remapToV22 when no
// identifier mapping exists for the requested pair of versions.
type ErrNoRemap struct {
	ID FrameType
}

func (e ErrNoRemap) Error() string {
	return fmt.Sprintf("id3v2: no identifier remapping exists for %q", e.ID)
}

// ErrUnsupportedCombination is returned when the caller pins an ID3Version
// that at least one frame, or at least one global option, cannot be
// represented in. Reasons accumulates one entry per violation so the
// caller sees every problem instead of only the first.
type ErrUnsupportedCombination struct {
	Version Version
	Reasons []error
}

func (e *ErrUnsupportedCombination) Error() string {
	return fmt.Sprintf("id3v2: frames/options incompatible with %s: %s", e.Version, errors.Join(e.Reasons...))
}

func (e *ErrUnsupportedCombination) Unwrap() []error { return e.Reasons }

// ErrNoVersion is returned by the automatic version-selection algorithm
// when none of v2.4, v2.3, v2.2 can represent the supplied
// frames and options. Attempts holds the aggregated per-version reason.
type ErrNoVersion struct {
	Attempts map[Version]error
}

func (e *ErrNoVersion) Error() string {
	return fmt.Sprintf("id3v2: no ID3v2 version can represent these frames: v2.4: %v; v2.3: %v; v2.2: %v",
		e.Attempts[Version4], e.Attempts[Version3], e.Attempts[Version2])
}

func (e *ErrNoVersion) Unwrap() []error {
	var errs []error
	for _, v := range []Version{Version4, Version3, Version2} {
		if err := e.Attempts[v]; err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}
