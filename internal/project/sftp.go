package project

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/sftp"
)

// SFTPDialer hands out a connected SFTP session.
type SFTPDialer interface {
	SFTP(ctx context.Context) (*sftp.Client, error)
}

// SFTPStore keeps projects as directories under root on a remote host.
type SFTPStore struct {
	dialer SFTPDialer
	root   string
	ignore Ignore
}

// NewSFTPStore returns a store rooted at root on the remote side.
func NewSFTPStore(dialer SFTPDialer, root string, ignore []string) *SFTPStore {
	if ignore == nil {
		ignore = DefaultIgnore
	}
	return &SFTPStore{dialer: dialer, root: path.Clean(root), ignore: Ignore(ignore)}
}

func (s *SFTPStore) dir(projectID string) (string, error) {
	if err := checkProjectID(projectID); err != nil {
		return "", err
	}
	return path.Join(s.root, projectID), nil
}

func (s *SFTPStore) remotePath(id string) (string, error) {
	projectID, name, err := splitID(id)
	if err != nil {
		return "", err
	}
	dir, err := s.dir(projectID)
	if err != nil {
		return "", err
	}
	return path.Join(dir, name), nil
}

func (s *SFTPStore) List(ctx context.Context, projectID string) ([]File, error) {
	dir, err := s.dir(projectID)
	if err != nil {
		return nil, err
	}
	client, err := s.dialer.SFTP(ctx)
	if err != nil {
		return nil, err
	}

	var files []File
	walker := client.Walk(dir)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			if walker.Path() == dir && errors.Is(err, fs.ErrNotExist) {
				return nil, nil
			}
			return nil, fmt.Errorf("list project %s: %w", projectID, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := walker.Path()
		if p == dir {
			continue
		}
		rel := strings.TrimPrefix(p, dir+"/")
		info := walker.Stat()
		if s.ignore.Match(rel) {
			if info.IsDir() {
				walker.SkipDir()
			}
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		content, err := readRemote(client, p)
		if err != nil {
			return nil, err
		}
		files = append(files, File{
			ID:        fileID(projectID, rel),
			ProjectID: projectID,
			Name:      rel,
			Content:   content,
			Language:  Language(rel),
			UpdatedAt: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func (s *SFTPStore) Create(ctx context.Context, projectID, name, content, language string) (File, error) {
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

	dir, _ := s.dir(projectID)
	p := path.Join(dir, name)
	client, err := s.dialer.SFTP(ctx)
	if err != nil {
		return File{}, err
	}
	if err := client.MkdirAll(path.Dir(p)); err != nil {
		return File{}, fmt.Errorf("create %s: %w", name, err)
	}
	if err := writeRemote(client, p, content); err != nil {
		return File{}, fmt.Errorf("create %s: %w", name, err)
	}
	if language == "" {
		language = Language(name)
	}
	f := File{ID: fileID(projectID, name), ProjectID: projectID, Name: name, Content: content, Language: language}
	if info, err := client.Stat(p); err == nil {
		f.UpdatedAt = info.ModTime()
	}
	return f, nil
}

func (s *SFTPStore) Update(ctx context.Context, id, content string) error {
	p, err := s.remotePath(id)
	if err != nil {
		return err
	}
	client, err := s.dialer.SFTP(ctx)
	if err != nil {
		return err
	}
	if _, err := client.Stat(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}
	if err := writeRemote(client, p, content); err != nil {
		return fmt.Errorf("update %s: %w", id, err)
	}
	return nil
}

func (s *SFTPStore) Delete(ctx context.Context, id string) error {
	p, err := s.remotePath(id)
	if err != nil {
		return err
	}
	client, err := s.dialer.SFTP(ctx)
	if err != nil {
		return err
	}
	if err := client.Remove(p); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func readRemote(client *sftp.Client, p string) (string, error) {
	f, err := client.Open(p)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", p, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", p, err)
	}
	return string(data), nil
}

// writeRemote uploads to a sibling temp file and renames it over p.
func writeRemote(client *sftp.Client, p, content string) error {
	tmp := path.Join(path.Dir(p), ".vterm-"+uuid.New().String()+".tmp")
	f, err := client.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, strings.NewReader(content)); err != nil {
		f.Close()
		client.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		client.Remove(tmp)
		return err
	}
	if err := client.PosixRename(tmp, p); err != nil {
		client.Remove(tmp)
		return err
	}
	return nil
}
