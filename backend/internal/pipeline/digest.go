package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"mindmesh/backend/internal/adapter"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

// DigestStage refines a structured outline into the canonical concept
// digest: a flat, leveled, deduplicated concept list. The generation
// capability does the refinement; the merge rules that make the result
// canonical are applied here, deterministically.
type DigestStage struct {
	gen    adapter.TextGenerator
	logger *zap.Logger
}

// NewDigestStage creates a digest stage
func NewDigestStage(gen adapter.TextGenerator) *DigestStage {
	return &DigestStage{
		gen:    gen,
		logger: logger.Get(),
	}
}

// Run produces the canonical digest from an outline
func (s *DigestStage) Run(ctx context.Context, outline *Outline) (*model.Digest, error) {
	outlineJSON, err := json.Marshal(outline)
	if err != nil {
		return nil, fmt.Errorf("failed to encode outline: %w", err)
	}

	raw, err := s.gen.GenerateJSON(ctx, digestSystemPrompt, string(outlineJSON))
	if err != nil {
		return nil, err
	}

	digest, err := parseDigest(raw)
	if err != nil {
		return nil, err
	}

	if digest.Title == "" {
		digest.Title = outline.Title
	}
	if digest.Subject == "" {
		digest.Subject = outline.Subject
	}

	before := len(digest.Concepts)
	digest.Concepts = mergeDuplicateConcepts(digest.Concepts)
	if merged := before - len(digest.Concepts); merged > 0 {
		s.logger.Debug("digest stage merged duplicate concepts",
			zap.Int("merged", merged),
			zap.Int("unique", len(digest.Concepts)),
		)
	}

	return digest, nil
}

// parseDigest validates untrusted generation output against the digest shape
func parseDigest(raw []byte) (*model.Digest, error) {
	var digest model.Digest
	if err := json.Unmarshal(raw, &digest); err != nil {
		return nil, errors.NewUpstreamFormat("digest object with title/subject/concepts", errors.Snippet(raw), err)
	}

	if len(digest.Concepts) == 0 {
		return nil, errors.NewUpstreamFormat("digest with at least one concept", errors.Snippet(raw), nil)
	}
	for _, c := range digest.Concepts {
		if c.Name == "" {
			return nil, errors.NewUpstreamFormat("concept with non-empty name", "concept missing name", nil)
		}
		if c.Level < 0 {
			return nil, errors.NewUpstreamFormat("concept level >= 0",
				fmt.Sprintf("concept %q at level %d", c.Name, c.Level), nil)
		}
	}

	return &digest, nil
}

// mergeDuplicateConcepts resolves repeated concept names. The occurrence
// with the longer description wins (equal lengths keep the first seen); the
// level is the minimum across occurrences, so the most general placement
// wins. First-seen order is preserved for downstream assembly.
func mergeDuplicateConcepts(concepts []model.DigestConcept) []model.DigestConcept {
	index := make(map[string]int, len(concepts))
	merged := make([]model.DigestConcept, 0, len(concepts))

	for _, c := range concepts {
		i, seen := index[c.Name]
		if !seen {
			index[c.Name] = len(merged)
			merged = append(merged, c)
			continue
		}

		if len(c.Description) > len(merged[i].Description) {
			merged[i].Description = c.Description
		}
		if c.Level < merged[i].Level {
			merged[i].Level = c.Level
		}
		if merged[i].SpecialNotes == "" {
			merged[i].SpecialNotes = c.SpecialNotes
		}
	}

	return merged
}
