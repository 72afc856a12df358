package project

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps project files in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]File
	now   func() time.Time
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string]File),
		now:   time.Now,
	}
}

func (m *MemoryStore) List(_ context.Context, projectID string) ([]File, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []File
	for _, f := range m.files {
		if f.ProjectID == projectID {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) Create(_ context.Context, projectID, name, content, language string) (File, error) {
	name, err := CleanName(name)
	if err != nil {
		return File{}, err
	}

	if language == "" {
		language = Language(name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.files {
		if f.ProjectID == projectID && strings.EqualFold(f.Name, name) {
			return File{}, fmt.Errorf("%w: %s", ErrExists, name)
		}
	}
	f := File{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		Content:   content,
		Language:  language,
		UpdatedAt: m.now(),
	}
	m.files[f.ID] = f
	return f, nil
}

func (m *MemoryStore) Update(_ context.Context, fileID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	f.Content = content
	f.UpdatedAt = m.now()
	m.files[fileID] = f
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[fileID]; !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, fileID)
	}
	delete(m.files, fileID)
	return nil
}
