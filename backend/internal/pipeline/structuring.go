package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"mindmesh/backend/internal/adapter"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

// OutlineTopic is one node of the hierarchical topic outline produced by the
// structuring stage. Subtopics nest arbitrarily deep.
type OutlineTopic struct {
	Name         string         `json:"name"`
	Description  string         `json:"description"`
	SpecialNotes string         `json:"special_notes,omitempty"`
	Subtopics    []OutlineTopic `json:"subtopics,omitempty"`
}

// Outline is the structured representation of a raw document: candidate
// topics grouped hierarchically.
type Outline struct {
	Title   string         `json:"title"`
	Subject string         `json:"subject"`
	Topics  []OutlineTopic `json:"topics"`
}

// StructuringStage converts raw free text into an initial topic outline by
// delegating to the text-generation capability. The capability's output is
// untrusted: it is parsed defensively and any structural violation surfaces
// as an UpstreamFormatError, never a crash.
type StructuringStage struct {
	gen    adapter.TextGenerator
	logger *zap.Logger
}

// NewStructuringStage creates a structuring stage
func NewStructuringStage(gen adapter.TextGenerator) *StructuringStage {
	return &StructuringStage{
		gen:    gen,
		logger: logger.Get(),
	}
}

// Run structures raw text into an outline
func (s *StructuringStage) Run(ctx context.Context, rawText string) (*Outline, error) {
	if rawText == "" {
		return nil, errors.NewValidation("text", "must not be empty")
	}

	raw, err := s.gen.GenerateJSON(ctx, structuringSystemPrompt, rawText)
	if err != nil {
		return nil, err
	}

	outline, err := parseOutline(raw)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("structuring stage complete",
		zap.String("title", outline.Title),
		zap.Int("top_level_topics", len(outline.Topics)),
	)

	return outline, nil
}

// parseOutline validates untrusted generation output against the outline shape
func parseOutline(raw []byte) (*Outline, error) {
	var outline Outline
	if err := json.Unmarshal(raw, &outline); err != nil {
		return nil, errors.NewUpstreamFormat("outline object with title/subject/topics", errors.Snippet(raw), err)
	}

	if len(outline.Topics) == 0 {
		return nil, errors.NewUpstreamFormat("outline with at least one topic", errors.Snippet(raw), nil)
	}
	if err := checkTopics(outline.Topics, 0); err != nil {
		return nil, err
	}
	if outline.Title == "" {
		outline.Title = "Untitled Project"
	}
	if outline.Subject == "" {
		outline.Subject = "Unknown"
	}

	return &outline, nil
}

// maxOutlineDepth bounds recursion so a pathological response cannot blow the stack
const maxOutlineDepth = 20

func checkTopics(topics []OutlineTopic, depth int) error {
	if depth > maxOutlineDepth {
		return errors.NewUpstreamFormat(
			fmt.Sprintf("outline nested at most %d levels", maxOutlineDepth),
			fmt.Sprintf("nesting beyond level %d", depth), nil)
	}
	for _, topic := range topics {
		if topic.Name == "" {
			return errors.NewUpstreamFormat("topic with non-empty name", "topic missing name", nil)
		}
		if err := checkTopics(topic.Subtopics, depth+1); err != nil {
			return err
		}
	}
	return nil
}
