package pipeline

import (
	"sort"

	"go.uber.org/zap"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/logger"
)

// GraphAssembler merges the digest concepts and extracted relationships into
// one validated graph. This is the single point where a graph is guaranteed
// internally consistent before persistence.
type GraphAssembler struct {
	logger *zap.Logger
}

// NewGraphAssembler creates a graph assembler
func NewGraphAssembler() *GraphAssembler {
	return &GraphAssembler{logger: logger.Get()}
}

// Assemble builds the final graph: nodes in ascending level order (first-seen
// order within a level), edges re-filtered against the node set, and derived
// metadata. A validation failure here means an upstream stage broke an
// invariant and is surfaced as a SchemaError.
func (a *GraphAssembler) Assemble(digest *model.Digest, relationships []model.Relationship) (*model.Graph, error) {
	nodes := make([]model.Concept, 0, len(digest.Concepts))
	for _, c := range digest.Concepts {
		nodes = append(nodes, model.Concept{
			Name:         c.Name,
			Description:  c.Description,
			Level:        c.Level,
			SpecialNotes: c.SpecialNotes,
		})
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].Level < nodes[j].Level
	})

	// The relationship stage already filters; filtering again keeps the
	// guarantee local to the one place that promises consistency.
	edges, dropped := FilterRelationships(relationships, digest.NameSet())
	if dropped > 0 {
		a.logger.Warn("assembler dropped edges referencing unknown concepts",
			zap.Int("dropped", dropped))
	}

	graph := &model.Graph{
		Nodes: nodes,
		Edges: edges,
		Metadata: model.GraphMetadata{
			Title:         digest.Title,
			Subject:       digest.Subject,
			TotalConcepts: len(nodes),
			DepthLevels:   model.DepthLevels(nodes),
		},
	}

	if err := model.ValidateGraph(graph); err != nil {
		return nil, err
	}

	a.logger.Info("graph assembled",
		zap.String("title", graph.Metadata.Title),
		zap.Int("concepts", graph.Metadata.TotalConcepts),
		zap.Int("edges", len(graph.Edges)),
		zap.Int("depth_levels", graph.Metadata.DepthLevels),
	)

	return graph, nil
}
