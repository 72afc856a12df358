package watcher

import "time"

// Operation is the kind of change reported for a path.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
)

func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Config holds watcher settings.
type Config struct {
	Debounce   time.Duration
	MaxWatches int
}

// DefaultConfig returns the settings used for project directories.
func DefaultConfig() Config {
	return Config{
		Debounce:   300 * time.Millisecond,
		MaxWatches: 1000,
	}
}

// Ignorer decides whether a path relative to the watched root is skipped.
type Ignorer interface {
	Match(rel string) bool
}

// BatchHandler receives the paths that settled during one debounce window,
// relative to the watched root with forward slashes.
type BatchHandler func(changes map[string]Operation)
