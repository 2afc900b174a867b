package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"mindmesh/backend/internal/adapter"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

const (
	// relationshipBatchSize is the number of concepts whose descriptions are
	// expanded per generation call; every call still sees the full name list
	// so cross-batch edges stay possible.
	relationshipBatchSize = 25
	// relationshipConcurrency caps parallel generation calls per request
	relationshipConcurrency = 4
)

// RelationshipStage infers typed edges between digest concepts. Concept
// names are the identity backbone and must be trustworthy, so candidate
// edges naming unknown concepts are dropped rather than failing the request:
// relationships are advisory enrichment and degrade gracefully.
type RelationshipStage struct {
	gen    adapter.TextGenerator
	logger *zap.Logger
}

// NewRelationshipStage creates a relationship stage
func NewRelationshipStage(gen adapter.TextGenerator) *RelationshipStage {
	return &RelationshipStage{
		gen:    gen,
		logger: logger.Get(),
	}
}

type relationshipEnvelope struct {
	Relationships []model.Relationship `json:"relationships"`
}

// Run extracts candidate relationships over the digest concept set
func (s *RelationshipStage) Run(ctx context.Context, digest *model.Digest) ([]model.Relationship, error) {
	if len(digest.Concepts) == 0 {
		return []model.Relationship{}, nil
	}

	batches := batchConcepts(digest.Concepts, relationshipBatchSize)
	allNames := conceptNameList(digest.Concepts)

	var mu sync.Mutex
	candidates := make([]model.Relationship, 0)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(relationshipConcurrency)

	for _, batch := range batches {
		batch := batch
		g.Go(func() error {
			rels, err := s.extractBatch(gctx, allNames, batch)
			if err != nil {
				return err
			}
			mu.Lock()
			candidates = append(candidates, rels...)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	edges, dropped := FilterRelationships(candidates, digest.NameSet())
	if dropped > 0 {
		s.logger.Warn("dropped relationships referencing unknown concepts",
			zap.Int("dropped", dropped),
			zap.Int("kept", len(edges)),
		)
	}
	for _, e := range edges {
		if model.IsSelfLoop(e) {
			s.logger.Warn("self-loop relationship kept",
				zap.String("concept", e.Source),
				zap.String("type", e.RelationshipType),
			)
		}
	}

	return edges, nil
}

func (s *RelationshipStage) extractBatch(ctx context.Context, allNames []string, batch []model.DigestConcept) ([]model.Relationship, error) {
	var b strings.Builder
	b.WriteString("All concept names:\n")
	for _, name := range allNames {
		fmt.Fprintf(&b, "- %s\n", name)
	}
	b.WriteString("\nConcepts to relate (with descriptions):\n")
	for _, c := range batch {
		fmt.Fprintf(&b, "- %s: %s\n", c.Name, c.Description)
	}

	raw, err := s.gen.GenerateJSON(ctx, relationshipSystemPrompt, b.String())
	if err != nil {
		return nil, err
	}

	var envelope relationshipEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, errors.NewUpstreamFormat("object with relationships array", errors.Snippet(raw), err)
	}

	return envelope.Relationships, nil
}

// FilterRelationships applies the tolerant edge policy: candidates whose
// source or target is not a known concept name are dropped (returned as a
// count, not an error), edges with an empty type default to "related", and
// exact duplicates collapse to one. Candidate order is preserved.
func FilterRelationships(candidates []model.Relationship, known map[string]bool) ([]model.Relationship, int) {
	edges := make([]model.Relationship, 0, len(candidates))
	seen := make(map[string]bool, len(candidates))
	dropped := 0

	for _, r := range candidates {
		if !known[r.Source] || !known[r.Target] {
			dropped++
			continue
		}
		if r.RelationshipType == "" {
			r.RelationshipType = "related"
		}
		key := r.Source + "\x00" + r.Target + "\x00" + r.RelationshipType
		if seen[key] {
			continue
		}
		seen[key] = true
		edges = append(edges, r)
	}

	return edges, dropped
}

func batchConcepts(concepts []model.DigestConcept, size int) [][]model.DigestConcept {
	var batches [][]model.DigestConcept
	for start := 0; start < len(concepts); start += size {
		end := start + size
		if end > len(concepts) {
			end = len(concepts)
		}
		batches = append(batches, concepts[start:end])
	}
	return batches
}

func conceptNameList(concepts []model.DigestConcept) []string {
	names := make([]string, len(concepts))
	for i, c := range concepts {
		names[i] = c.Name
	}
	return names
}
