package project

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultIgnore lists what directory-backed stores never treat as project files.
var DefaultIgnore = []string{".git", "node_modules", ".DS_Store", "*.tmp", "*.swp", "*~"}

// Ignore is a list of glob patterns. A pattern without a slash matches a base
// name at any depth; one with a slash matches the whole relative path.
type Ignore []string

// Match reports whether rel (slash separated) is ignored.
func (ig Ignore) Match(rel string) bool {
	base := path.Base(rel)
	for _, pattern := range ig {
		target := rel
		if !strings.Contains(pattern, "/") {
			target = base
		}
		if ok, err := doublestar.Match(pattern, target); err == nil && ok {
			return true
		}
	}
	return false
}

// fileID joins a project and a relative name into a stable file ID.
func fileID(projectID, name string) string {
	return projectID + "/" + name
}

// splitID is the inverse of fileID.
func splitID(id string) (projectID, name string, err error) {
	projectID, name, ok := strings.Cut(id, "/")
	if !ok || projectID == "" {
		return "", "", ErrNotFound
	}
	name, err = CleanName(name)
	if err != nil {
		return "", "", err
	}
	return projectID, name, nil
}

// checkProjectID rejects IDs that would escape the store root.
func checkProjectID(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return ErrInvalidName
	}
	return nil
}
