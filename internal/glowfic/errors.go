package glowfic

import (
	"errors"
	"fmt"
)

var (
	// ErrUnexpectedStructure reports that a page lacked the markers the
	// client depends on and carried no error banner either.
	ErrUnexpectedStructure = errors.New("glowfic: unexpected page structure")
	// ErrUnrecognizedLocation reports an entry URL that is neither a post nor a listing.
	ErrUnrecognizedLocation = errors.New("glowfic: unrecognized location")
	// ErrUnreachable reports a request that never produced a complete
	// response: connection failures, resets, truncated bodies.
	ErrUnreachable = errors.New("glowfic: origin unreachable")
)

// RemoteError carries the text of an in-page error banner.
type RemoteError struct {
	Location string
	Message  string
}

func (e *RemoteError) Error() string {
	if e.Location == "" {
		return fmt.Sprintf("glowfic: remote error: %s", e.Message)
	}
	return fmt.Sprintf("glowfic: remote error at %s: %s", e.Location, e.Message)
}
