package project

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"vterm/internal/fileutil"
	"vterm/internal/watcher"
)

// LocalStore keeps each project as a directory under root. File IDs are
// "<project>/<relative path>".
type LocalStore struct {
	root   string
	ignore Ignore
}

// NewLocalStore creates root if needed.
func NewLocalStore(root string, ignore []string) (*LocalStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create project root: %w", err)
	}
	if ignore == nil {
		ignore = DefaultIgnore
	}
	return &LocalStore{root: root, ignore: Ignore(ignore)}, nil
}

// Dir returns the directory holding a project.
func (s *LocalStore) Dir(projectID string) (string, error) {
	if err := checkProjectID(projectID); err != nil {
		return "", err
	}
	return filepath.Join(s.root, projectID), nil
}

func (s *LocalStore) List(ctx context.Context, projectID string) ([]File, error) {
	dir, err := s.Dir(projectID)
	if err != nil {
		return nil, err
	}

	var files []File
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == dir {
				return filepath.SkipDir
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if p == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if s.ignore.Match(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		content, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		files = append(files, File{
			ID:        fileID(projectID, rel),
			ProjectID: projectID,
			Name:      rel,
			Content:   string(content),
			Language:  Language(rel),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list project %s: %w", projectID, err)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *LocalStore) Create(ctx context.Context, projectID, name, content, language string) (File, error) {
	name, err := CleanName(name)
	if err != nil {
		return File{}, err
	}
	existing, err := s.List(ctx, projectID)
	if err != nil {
		return File{}, err
	}
	if _, ok := FindByName(existing, name); ok {
		return File{}, fmt.Errorf("%w: %s", ErrExists, name)
	}

	dir, _ := s.Dir(projectID)
	p := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return File{}, fmt.Errorf("create %s: %w", name, err)
	}
	if err := fileutil.AtomicWriteString(p, content, 0644); err != nil {
		return File{}, fmt.Errorf("create %s: %w", name, err)
	}
	if language == "" {
		language = Language(name)
	}
	return File{
		ID:        fileID(projectID, name),
		ProjectID: projectID,
		Name:      name,
		Content:   content,
		Language:  language,
		UpdatedAt: fileutil.ModTime(p),
	}, nil
}

func (s *LocalStore) Update(_ context.Context, id, content string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if _, err := os.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	if err := fileutil.AtomicWriteString(p, content, 0644); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	return nil
}

func (s *LocalStore) Delete(_ context.Context, id string) error {
	p, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}

	// Drop directories the file leaves empty, up to the project directory.
	projectID, _, _ := splitID(id)
	top, _ := s.Dir(projectID)
	for dir := filepath.Dir(p); dir != top && len(dir) > len(top); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

// Watch calls onChange after files of the project change on disk, until ctx
// is done.
func (s *LocalStore) Watch(ctx context.Context, projectID string, cfg watcher.Config, onChange func(changed []string)) error {
	dir, err := s.Dir(projectID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	w, err := watcher.New(dir, s.ignore, cfg)
	if err != nil {
		return fmt.Errorf("watch project %s: %w", projectID, err)
	}
	return w.Run(ctx, func(batch map[string]watcher.Operation) {
		changed := make([]string, 0, len(batch))
		for rel := range batch {
			changed = append(changed, rel)
		}
		sort.Strings(changed)
		onChange(changed)
	})
}

func (s *LocalStore) path(id string) (string, error) {
	projectID, name, err := splitID(id)
	if err != nil {
		return "", err
	}
	dir, err := s.Dir(projectID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, filepath.FromSlash(name)), nil
}
