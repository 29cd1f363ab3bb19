// Package store persists graph documents for the HTTP API.
//
// A stored graph is the raw uploaded document plus server-assigned
// metadata (id, upload time). Topology, layout, and rendering are
// derived on demand and cached separately; the store only holds the
// source of truth.
//
// Two backends are provided: MemoryStore for tests and single-process
// usage, and MongoStore for the server.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/agentlens/agentlens/pkg/errors"
	"github.com/agentlens/agentlens/pkg/graph"
)

// StoredGraph is a graph document plus server-assigned metadata.
type StoredGraph struct {
	ID        string      `json:"id" bson:"_id"`
	Name      string      `json:"name,omitempty" bson:"name,omitempty"`
	Graph     graph.Graph `json:"graph" bson:"graph"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}

// GraphStore persists uploaded graph documents.
type GraphStore interface {
	// Put stores a graph and returns its assigned id.
	Put(ctx context.Context, name string, g graph.Graph) (*StoredGraph, error)

	// Get retrieves a stored graph by id.
	Get(ctx context.Context, id string) (*StoredGraph, error)

	// List returns stored graphs ordered by creation time, newest first.
	List(ctx context.Context, limit int) ([]*StoredGraph, error)

	// Delete removes a stored graph. Deleting a missing id is an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryStore is an in-memory GraphStore for tests and single-process usage.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string]*StoredGraph
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string]*StoredGraph)}
}

// Put stores a graph and returns its assigned id.
func (s *MemoryStore) Put(ctx context.Context, name string, g graph.Graph) (*StoredGraph, error) {
	sg := &StoredGraph{
		ID:        uuid.NewString(),
		Name:      name,
		Graph:     g,
		CreatedAt: time.Now().UTC(),
	}
	s.mu.Lock()
	s.graphs[sg.ID] = sg
	s.mu.Unlock()
	return sg, nil
}

// Get retrieves a stored graph by id.
func (s *MemoryStore) Get(ctx context.Context, id string) (*StoredGraph, error) {
	s.mu.RLock()
	sg, ok := s.graphs[id]
	s.mu.RUnlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", id)
	}
	return sg, nil
}

// List returns stored graphs ordered by creation time, newest first.
func (s *MemoryStore) List(ctx context.Context, limit int) ([]*StoredGraph, error) {
	s.mu.RLock()
	out := make([]*StoredGraph, 0, len(s.graphs))
	for _, sg := range s.graphs {
		out = append(out, sg)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a stored graph.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.graphs[id]; !ok {
		return errors.New(errors.ErrCodeGraphNotFound, "graph %q not found", id)
	}
	delete(s.graphs, id)
	return nil
}

// Close does nothing for the in-memory store.
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Ensure MemoryStore implements GraphStore.
var _ GraphStore = (*MemoryStore)(nil)
