package session

import (
	"fmt"
	"regexp"
	"strings"

	"vterm/internal/logging"
	"vterm/internal/metrics"
	"vterm/internal/project"
	"vterm/internal/vfs"
)

var whitespace = regexp.MustCompile(`\s+`)

// Slug turns a project name into its directory name: lowercase with runs of
// whitespace replaced by one underscore.
func Slug(projectName string) string {
	return whitespace.ReplaceAllString(strings.ToLower(strings.TrimSpace(projectName)), "_")
}

// ProjectPath is where a project is mirrored for user.
func ProjectPath(user, projectName string) string {
	return vfs.Join(append(vfs.ProjectsSegments(user), Slug(projectName)))
}

// SyncProjectFiles rebuilds /home/<user>/projects/<slug> from files,
// replacing whatever was there. Nothing else in the tree changes. If the
// rebuild fails the whole tree is reset to the skeleton and the error is
// returned.
func (s *Session) SyncProjectFiles(projectName string, files []project.File) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	fs, err := buildMirror(s.state.FS, s.state.User, projectName, files)
	if err != nil {
		logging.Error("project sync failed, resetting filesystem",
			"project", projectName, "files", len(files), "error", err)
		metrics.ObserveSync(false)
		s.state.FS = vfs.NewSkeleton(s.state.User)
		if perr := s.persistLocked(); perr != nil {
			logging.Warn("failed to persist reset session", "error", perr)
		}
		return fmt.Errorf("sync project %q: %w (filesystem reset)", projectName, err)
	}

	s.state.FS = fs
	metrics.ObserveSync(true)
	return s.persistLocked()
}

func buildMirror(current *vfs.Node, user, projectName string, files []project.File) (fs *vfs.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			fs, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()

	slug := Slug(projectName)
	if slug == "" || slug == "." || slug == ".." || strings.Contains(slug, "/") {
		return nil, fmt.Errorf("invalid project name %q", projectName)
	}

	fs = current.Clone()
	projects, ok := fs.MkdirAll(vfs.ProjectsSegments(user), user)
	if !ok {
		return nil, fmt.Errorf("projects directory is blocked by a file")
	}
	mirror := vfs.NewDir(slug, user, vfs.DirPerm)
	projects.Add(mirror)

	for _, f := range files {
		name, err := project.CleanName(f.Name)
		if err != nil {
			return nil, err
		}
		segments := strings.Split(name, "/")
		dir, ok := mirror.MkdirAll(segments[:len(segments)-1], user)
		if !ok {
			return nil, fmt.Errorf("%s: parent is a file", name)
		}
		base := segments[len(segments)-1]
		if existing := dir.Child(base); existing.IsDir() {
			return nil, fmt.Errorf("%s: is a directory", name)
		}
		dir.Add(vfs.NewFile(base, user, vfs.FilePerm, f.Content))
	}
	return fs, nil
}
