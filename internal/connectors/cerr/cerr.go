package cerr

import (
	"errors"
	"fmt"
)

// ErrNotSupported is returned by connectors for operations their protocol
// cannot express (e.g. windowed acknowledgment on an ack-less transport).
var ErrNotSupported = errors.New("not supported")

func ValidationErr(msg string) error {
	return fmt.Errorf("validation: %s", msg)
}
