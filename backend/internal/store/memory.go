package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"

	"go.uber.org/zap"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

// MemoryStore is the process-local fallback used when no durable store is
// configured. State lives for the process lifetime and is cleared only on
// restart. The mutex covers whole read-modify-write sequences so concurrent
// mutators within one process cannot lose updates; cross-process
// coordination is out of scope.
type MemoryStore struct {
	mu       sync.RWMutex
	projects map[string]*model.Project
	logger   *zap.Logger
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		projects: make(map[string]*model.Project),
		logger:   logger.Get(),
	}
}

// Save stores a deep copy so callers cannot mutate stored state through
// retained pointers
func (s *MemoryStore) Save(ctx context.Context, project *model.Project) error {
	copied, err := cloneProject(project)
	if err != nil {
		return errors.NewStore("save", err)
	}

	s.mu.Lock()
	s.projects[project.ID] = copied
	s.mu.Unlock()

	s.logger.Debug("project saved to in-memory store", zap.String("project_id", project.ID))
	return nil
}

// Get returns a deep copy of the stored project
func (s *MemoryStore) Get(ctx context.Context, id string) (*model.Project, error) {
	s.mu.RLock()
	stored, ok := s.projects[id]
	s.mu.RUnlock()

	if !ok {
		return nil, errors.NewProjectNotFound(id)
	}
	copied, err := cloneProject(stored)
	if err != nil {
		return nil, errors.NewStore("get", err)
	}
	return copied, nil
}

// List returns all projects, most recently updated first
func (s *MemoryStore) List(ctx context.Context) ([]*model.Project, error) {
	s.mu.RLock()
	projects := make([]*model.Project, 0, len(s.projects))
	for _, p := range s.projects {
		copied, err := cloneProject(p)
		if err != nil {
			s.mu.RUnlock()
			return nil, errors.NewStore("list", err)
		}
		projects = append(projects, copied)
	}
	s.mu.RUnlock()

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].UpdatedAt.After(projects[j].UpdatedAt)
	})
	return projects, nil
}

// Delete removes a project
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return errors.NewProjectNotFound(id)
	}
	delete(s.projects, id)
	return nil
}

// Mutate runs the whole read-modify-write cycle under the write lock, so it
// cannot interleave with another in-process mutator. fn operates on a copy;
// nothing is stored when fn fails.
func (s *MemoryStore) Mutate(ctx context.Context, id string, fn func(*model.Project) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.projects[id]
	if !ok {
		return errors.NewProjectNotFound(id)
	}

	copied, err := cloneProject(stored)
	if err != nil {
		return errors.NewStore("mutate", err)
	}
	if err := fn(copied); err != nil {
		return err
	}
	s.projects[id] = copied
	return nil
}

// cloneProject deep-copies via JSON, the same representation the durable
// store persists
func cloneProject(p *model.Project) (*model.Project, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	var copied model.Project
	if err := json.Unmarshal(data, &copied); err != nil {
		return nil, err
	}
	return &copied, nil
}
