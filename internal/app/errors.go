package app

import (
	"errors"
	"fmt"

	"vterm/internal/logging"
)

// ErrNoModel is returned by Ask when no model is configured.
var ErrNoModel = errors.New("no ai model configured")

// recoverTo turns a panic in operation into an error stored in err.
func recoverTo(operation string, err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("panic in %s: %v", operation, r)
		logging.Error("recovered panic", "operation", operation, "panic", r)
	}
}
