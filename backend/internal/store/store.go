package store

import (
	"context"

	"mindmesh/backend/internal/model"
)

// Store is the document-store capability that owns persisted projects. Two
// implementations exist: a Redis-backed durable store and a process-local
// in-memory fallback used when Redis is unconfigured. Callers are agnostic
// to which is active.
//
// The contract is document-level: no sub-document write primitive, no
// cross-document transaction. Mutate is the read-modify-write primitive for
// partial updates; the in-memory store runs the whole cycle inside its
// critical section so concurrent in-process mutators cannot lose updates,
// while the Redis store resolves racing mutations last-write-wins per
// document.
type Store interface {
	// Save writes the full project document, creating or replacing it
	Save(ctx context.Context, project *model.Project) error
	// Get returns the project, or a NotFoundError when absent
	Get(ctx context.Context, id string) (*model.Project, error)
	// List returns all projects, most recently updated first
	List(ctx context.Context) ([]*model.Project, error)
	// Delete removes the project, or returns a NotFoundError when absent
	Delete(ctx context.Context, id string) error
	// Mutate applies fn to the stored project and persists the result.
	// When fn returns an error nothing is written and the error is returned
	// unchanged. fn must not retain the project after returning.
	Mutate(ctx context.Context, id string, fn func(*model.Project) error) error
}
