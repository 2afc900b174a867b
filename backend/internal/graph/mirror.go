package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/logger"
)

// Mirror projects assembled concept graphs into Neo4j for interactive
// exploration (Cypher queries, Bloom visualizations). The document store
// remains the source of truth: mirroring is best-effort and a failed sync
// never fails the originating request.
type Mirror struct {
	driver neo4j.DriverWithContext
	logger *zap.Logger
}

// NewMirror creates a graph mirror over a verified driver
func NewMirror(driver neo4j.DriverWithContext) *Mirror {
	return &Mirror{
		driver: driver,
		logger: logger.Get(),
	}
}

// Close closes the Neo4j driver connection
func (m *Mirror) Close() error {
	return m.driver.Close(context.Background())
}

// SyncProject replaces the mirrored subgraph for a project with the current
// graph state: concept nodes keyed by (project_id, name) and RELATES edges
// carrying the relationship type as a property.
func (m *Mirror) SyncProject(ctx context.Context, project *model.Project) error {
	if project.GraphData == nil {
		return nil
	}

	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	clearQuery := `
		MATCH (c:Concept {project_id: $projectID})
		DETACH DELETE c
	`
	if _, err := session.Run(ctx, clearQuery, map[string]interface{}{
		"projectID": project.ID,
	}); err != nil {
		return fmt.Errorf("failed to clear mirrored project: %w", err)
	}

	nodes := make([]map[string]interface{}, 0, len(project.GraphData.Nodes))
	for _, n := range project.GraphData.Nodes {
		nodes = append(nodes, map[string]interface{}{
			"name":        n.Name,
			"description": n.Description,
			"level":       n.Level,
		})
	}

	nodeQuery := `
		UNWIND $nodes AS node
		MERGE (c:Concept {project_id: $projectID, name: node.name})
		SET c.description = node.description,
		    c.level = node.level,
		    c.title = $title
	`
	if _, err := session.Run(ctx, nodeQuery, map[string]interface{}{
		"projectID": project.ID,
		"title":     project.GraphData.Metadata.Title,
		"nodes":     nodes,
	}); err != nil {
		return fmt.Errorf("failed to mirror concepts: %w", err)
	}

	if len(project.GraphData.Edges) == 0 {
		m.logger.Debug("project mirrored to neo4j",
			zap.String("project_id", project.ID),
			zap.Int("concepts", len(nodes)),
		)
		return nil
	}

	edges := make([]map[string]interface{}, 0, len(project.GraphData.Edges))
	for _, e := range project.GraphData.Edges {
		edges = append(edges, map[string]interface{}{
			"source": e.Source,
			"target": e.Target,
			"type":   e.RelationshipType,
		})
	}

	edgeQuery := `
		UNWIND $edges AS edge
		MATCH (s:Concept {project_id: $projectID, name: edge.source})
		MATCH (t:Concept {project_id: $projectID, name: edge.target})
		MERGE (s)-[r:RELATES {type: edge.type}]->(t)
	`
	if _, err := session.Run(ctx, edgeQuery, map[string]interface{}{
		"projectID": project.ID,
		"edges":     edges,
	}); err != nil {
		return fmt.Errorf("failed to mirror relationships: %w", err)
	}

	m.logger.Debug("project mirrored to neo4j",
		zap.String("project_id", project.ID),
		zap.Int("concepts", len(nodes)),
		zap.Int("relationships", len(edges)),
	)
	return nil
}

// DeleteProject removes a project's mirrored subgraph
func (m *Mirror) DeleteProject(ctx context.Context, projectID string) error {
	session := m.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	query := `
		MATCH (c:Concept {project_id: $projectID})
		DETACH DELETE c
	`
	if _, err := session.Run(ctx, query, map[string]interface{}{
		"projectID": projectID,
	}); err != nil {
		return fmt.Errorf("failed to delete mirrored project: %w", err)
	}
	return nil
}
