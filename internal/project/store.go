// Package project holds project files: the authoritative store the shell
// mirrors and the patch engine writes to.
package project

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"
)

var (
	ErrNotFound    = errors.New("file not found")
	ErrExists      = errors.New("file already exists")
	ErrInvalidName = errors.New("invalid file name")
)

// File is one file of a project. Name is a relative slash path; folders are
// implied by its segments.
type File struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	Content   string    `json:"content"`
	Language  string    `json:"language"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Store is the source of truth for project files.
type Store interface {
	List(ctx context.Context, projectID string) ([]File, error)
	Create(ctx context.Context, projectID, name, content, language string) (File, error)
	Update(ctx context.Context, fileID, content string) error
	Delete(ctx context.Context, fileID string) error
}

// FindByName looks a file up by name, ignoring case.
func FindByName(files []File, name string) (File, bool) {
	for _, f := range files {
		if strings.EqualFold(f.Name, name) {
			return f, true
		}
	}
	return File{}, false
}

// CleanName validates a project-relative file name and returns its canonical
// form.
func CleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := path.Clean(name)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return clean, nil
}

// DeleteAll removes every file of a project and reports how many went.
func DeleteAll(ctx context.Context, s Store, projectID string) (int, error) {
	files, err := s.List(ctx, projectID)
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, f := range files {
		if err := s.Delete(ctx, f.ID); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", f.Name, err)
		}
		deleted++
	}
	return deleted, nil
}
