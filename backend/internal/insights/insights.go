package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"mindmesh/backend/internal/adapter"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

// Service generates the AI enrichment layered on top of an assembled graph:
// a prose overview, a podcast-style narration script, per-concept study
// insights, and definitions grounded in the original document text.
type Service struct {
	gen    adapter.TextGenerator
	logger *zap.Logger
}

// NewService creates an insights service
func NewService(gen adapter.TextGenerator) *Service {
	return &Service{
		gen:    gen,
		logger: logger.Get(),
	}
}

const overviewSystemPrompt = `You are a study guide writer. Given a concept digest and its relationship graph as JSON, write a clear prose overview of the material: what it covers, how the main concepts fit together, and the suggested order of study. Plain text, 3-5 paragraphs, no markdown.`

// Overview writes a prose summary of a project's material
func (s *Service) Overview(ctx context.Context, digest *model.Digest, graph *model.Graph) (string, error) {
	payload, err := encodeContext(digest, graph)
	if err != nil {
		return "", err
	}
	text, err := s.gen.GenerateText(ctx, overviewSystemPrompt, payload)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

const audioScriptSystemPrompt = `You are writing a script for a short educational podcast episode. Given a concept digest and its relationship graph as JSON, write a natural spoken narration that walks a learner through the material from the most general concepts to the most specific. Conversational tone, no stage directions, no markdown, suitable for direct text-to-speech synthesis.`

// AudioScript writes the narration script later fed to the audio capability
func (s *Service) AudioScript(ctx context.Context, digest *model.Digest, graph *model.Graph) (string, error) {
	payload, err := encodeContext(digest, graph)
	if err != nil {
		return "", err
	}
	text, err := s.gen.GenerateText(ctx, audioScriptSystemPrompt, payload)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// ConceptInsights is the structured study card for one concept
type ConceptInsights struct {
	ConceptName       string   `json:"concept_name"`
	Overview          string   `json:"overview"`
	RelatedConcepts   []string `json:"related_concepts"`
	ImportantFormulas []string `json:"important_formulas"`
	KeyTheorems       []string `json:"key_theorems"`
}

const conceptInsightsSystemPrompt = `You are a study assistant. Given a concept name and surrounding context, respond with ONLY a JSON object of this exact shape:
{
  "overview": "2-3 sentence explanation",
  "related_concepts": ["name", ...],
  "important_formulas": ["formula", ...],
  "key_theorems": ["theorem", ...]
}
Use empty arrays when a category does not apply. Do not invent formulas or theorems the context does not support.`

// Concept generates a structured study card for one concept
func (s *Service) Concept(ctx context.Context, conceptName string, contextData map[string]any) (*ConceptInsights, error) {
	if conceptName == "" {
		return nil, errors.NewValidation("concept_name", "must not be empty")
	}

	user := fmt.Sprintf("Concept: %s", conceptName)
	if len(contextData) > 0 {
		ctxJSON, err := json.Marshal(contextData)
		if err == nil {
			user += "\n\nContext:\n" + string(ctxJSON)
		}
	}

	raw, err := s.gen.GenerateJSON(ctx, conceptInsightsSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var insights ConceptInsights
	if err := json.Unmarshal(raw, &insights); err != nil {
		return nil, errors.NewUpstreamFormat("insights object with overview/related_concepts/important_formulas/key_theorems",
			errors.Snippet(raw), err)
	}
	if insights.Overview == "" {
		return nil, errors.NewUpstreamFormat("insights with non-empty overview", errors.Snippet(raw), nil)
	}

	insights.ConceptName = conceptName
	if insights.RelatedConcepts == nil {
		insights.RelatedConcepts = []string{}
	}
	if insights.ImportantFormulas == nil {
		insights.ImportantFormulas = []string{}
	}
	if insights.KeyTheorems == nil {
		insights.KeyTheorems = []string{}
	}

	return &insights, nil
}

const conceptDefinitionSystemPrompt = `You are a study assistant. Define the requested concept in 2-4 sentences. When source material is provided, ground the definition in it; otherwise give a standard textbook definition. Plain text only.`

// maxDefinitionSourceChars bounds how much stored source text is sent along
// with a definition request
const maxDefinitionSourceChars = 12000

// Definition generates a concise definition of a concept, grounded in the
// project's stored source text when available
func (s *Service) Definition(ctx context.Context, conceptName, sourceText string) (string, error) {
	if conceptName == "" {
		return "", errors.NewValidation("concept_name", "must not be empty")
	}

	user := fmt.Sprintf("Concept: %s", conceptName)
	if sourceText != "" {
		if len(sourceText) > maxDefinitionSourceChars {
			sourceText = sourceText[:maxDefinitionSourceChars]
		}
		user += "\n\nSource material:\n" + sourceText
	}

	text, err := s.gen.GenerateText(ctx, conceptDefinitionSystemPrompt, user)
	if err != nil {
		return "", err
	}

	s.logger.Debug("concept definition generated",
		zap.String("concept", conceptName),
		zap.Bool("grounded", sourceText != ""),
	)
	return strings.TrimSpace(text), nil
}

func encodeContext(digest *model.Digest, graph *model.Graph) (string, error) {
	payload := map[string]any{"digest_data": digest}
	if graph != nil {
		payload["graph_data"] = graph
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode context: %w", err)
	}
	return string(data), nil
}
