package pipeline

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/errors"
)

// fakeGenerator scripts GenerateJSON responses in call order
type fakeGenerator struct {
	mu        sync.Mutex
	responses []string
	calls     int
	err       error
}

func (f *fakeGenerator) GenerateText(ctx context.Context, system, user string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "generated text", nil
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, system, user string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.calls >= len(f.responses) {
		return nil, errors.NewCapability("text-generation", nil)
	}
	resp := f.responses[f.calls]
	f.calls++
	return []byte(resp), nil
}

func TestParseOutline(t *testing.T) {
	outline, err := parseOutline([]byte(`{
		"title": "Calculus Notes",
		"subject": "Mathematics",
		"topics": [
			{"name": "Limits", "description": "Foundation", "subtopics": [
				{"name": "One-sided limits", "description": "Approach from one side"}
			]}
		]
	}`))
	require.NoError(t, err)
	assert.Equal(t, "Calculus Notes", outline.Title)
	assert.Len(t, outline.Topics, 1)
	assert.Len(t, outline.Topics[0].Subtopics, 1)
}

func TestParseOutline_Malformed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `topics: limits`},
		{"no topics", `{"title": "x", "subject": "y", "topics": []}`},
		{"topic missing name", `{"title": "x", "subject": "y", "topics": [{"description": "d"}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseOutline([]byte(tc.raw))
			require.Error(t, err)
			assert.True(t, errors.IsErrorType(err, errors.ErrorTypeUpstreamFormat))
		})
	}
}

func TestParseOutline_DefaultsTitleAndSubject(t *testing.T) {
	outline, err := parseOutline([]byte(`{"topics": [{"name": "A", "description": "d"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "Untitled Project", outline.Title)
	assert.Equal(t, "Unknown", outline.Subject)
}

func TestMergeDuplicateConcepts(t *testing.T) {
	merged := mergeDuplicateConcepts([]model.DigestConcept{
		{Name: "X", Description: "short", Level: 2},
		{Name: "Y", Description: "other", Level: 0},
		{Name: "X", Description: "a much longer description", Level: 1},
	})

	require.Len(t, merged, 2)
	// First-seen position is kept
	assert.Equal(t, "X", merged[0].Name)
	// Longer description wins, minimum level wins
	assert.Equal(t, "a much longer description", merged[0].Description)
	assert.Equal(t, 1, merged[0].Level)
}

func TestMergeDuplicateConcepts_EqualLengthKeepsFirst(t *testing.T) {
	merged := mergeDuplicateConcepts([]model.DigestConcept{
		{Name: "X", Description: "first", Level: 1},
		{Name: "X", Description: "later", Level: 1},
	})
	require.Len(t, merged, 1)
	assert.Equal(t, "first", merged[0].Description)
}

func TestFilterRelationships_DropsUnknownNames(t *testing.T) {
	known := map[string]bool{"A": true, "B": true}
	edges, dropped := FilterRelationships([]model.Relationship{
		{Source: "A", Target: "B", RelationshipType: "related"},
		{Source: "A", Target: "C", RelationshipType: "related"},
	}, known)

	assert.Equal(t, 1, dropped)
	require.Len(t, edges, 1)
	assert.Equal(t, model.Relationship{Source: "A", Target: "B", RelationshipType: "related"}, edges[0])
}

func TestFilterRelationships_CollapsesDuplicates(t *testing.T) {
	known := map[string]bool{"A": true, "B": true}
	edges, dropped := FilterRelationships([]model.Relationship{
		{Source: "A", Target: "B", RelationshipType: "related"},
		{Source: "A", Target: "B", RelationshipType: "related"},
		{Source: "A", Target: "B", RelationshipType: "prerequisite"},
	}, known)

	assert.Equal(t, 0, dropped)
	// Same ordered pair with a different type is a distinct edge
	assert.Len(t, edges, 2)
}

func TestFilterRelationships_DefaultsEmptyType(t *testing.T) {
	known := map[string]bool{"A": true, "B": true}
	edges, _ := FilterRelationships([]model.Relationship{
		{Source: "A", Target: "B"},
	}, known)
	require.Len(t, edges, 1)
	assert.Equal(t, "related", edges[0].RelationshipType)
}

func TestAssemble(t *testing.T) {
	digest := &model.Digest{
		Title:   "Calculus Notes",
		Subject: "Mathematics",
		Concepts: []model.DigestConcept{
			{Name: "Derivatives", Description: "Rates of change", Level: 1},
			{Name: "Calculus", Description: "Continuous change", Level: 0},
			{Name: "Chain Rule", Description: "Composite derivatives", Level: 2},
			{Name: "Limits", Description: "Foundation", Level: 1},
		},
	}
	relationships := []model.Relationship{
		{Source: "Limits", Target: "Derivatives", RelationshipType: "prerequisite"},
		{Source: "Derivatives", Target: "Hallucinated", RelationshipType: "related"},
	}

	graph, err := NewGraphAssembler().Assemble(digest, relationships)
	require.NoError(t, err)

	// Ascending level, first-seen order within a level
	names := make([]string, len(graph.Nodes))
	for i, n := range graph.Nodes {
		names[i] = n.Name
	}
	assert.Equal(t, []string{"Calculus", "Derivatives", "Limits", "Chain Rule"}, names)

	// Invalid edge dropped, metadata derived
	require.Len(t, graph.Edges, 1)
	assert.Equal(t, 4, graph.Metadata.TotalConcepts)
	assert.Equal(t, 3, graph.Metadata.DepthLevels)
	assert.Equal(t, "Calculus Notes", graph.Metadata.Title)
}

func TestAssemble_EmptyDigest(t *testing.T) {
	graph, err := NewGraphAssembler().Assemble(&model.Digest{Title: "T", Subject: "S"}, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, graph.Metadata.TotalConcepts)
	assert.Equal(t, 0, graph.Metadata.DepthLevels)
	assert.Empty(t, graph.Nodes)
	assert.Empty(t, graph.Edges)
}

func TestAssemble_DuplicateDigestNamesFailValidation(t *testing.T) {
	digest := &model.Digest{
		Title:   "T",
		Subject: "S",
		Concepts: []model.DigestConcept{
			{Name: "A", Description: "first", Level: 0},
			{Name: "A", Description: "second", Level: 1},
		},
	}
	_, err := NewGraphAssembler().Assemble(digest, nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeSchema))
}

func TestRelationshipStage_ToleratesHallucinatedNames(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"relationships": [
			{"source": "A", "target": "B", "relationship_type": "related"},
			{"source": "A", "target": "C", "relationship_type": "related"}
		]}`,
	}}
	digest := &model.Digest{Concepts: []model.DigestConcept{
		{Name: "A", Description: "a", Level: 0},
		{Name: "B", Description: "b", Level: 1},
	}}

	edges, err := NewRelationshipStage(gen).Run(context.Background(), digest)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, "B", edges[0].Target)
}

func TestRelationshipStage_MalformedResponse(t *testing.T) {
	gen := &fakeGenerator{responses: []string{`"just a string"`}}
	digest := &model.Digest{Concepts: []model.DigestConcept{{Name: "A", Description: "a"}}}

	_, err := NewRelationshipStage(gen).Run(context.Background(), digest)
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeUpstreamFormat))
}

func TestDigestStage_MergesLLMDuplicates(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		`{"title": "T", "subject": "S", "concepts": [
			{"name": "X", "description": "short", "level": 2},
			{"name": "X", "description": "the longer description", "level": 1}
		]}`,
	}}

	digest, err := NewDigestStage(gen).Run(context.Background(), &Outline{Title: "T", Subject: "S"})
	require.NoError(t, err)
	require.Len(t, digest.Concepts, 1)
	assert.Equal(t, 1, digest.Concepts[0].Level)
	assert.Equal(t, "the longer description", digest.Concepts[0].Description)
}

func TestPipeline_EndToEnd(t *testing.T) {
	gen := &fakeGenerator{responses: []string{
		// Structuring: deeply nested outline
		`{"title": "Calculus Notes", "subject": "Mathematics", "topics": [
			{"name": "Calculus", "description": "Continuous change", "subtopics": [
				{"name": "Limits", "description": "Foundation", "subtopics": [
					{"name": "One-sided limits", "description": "From one side"}
				]}
			]}
		]}`,
		// Digest: flat list, including a duplicate to merge
		`{"title": "Calculus Notes", "subject": "Mathematics", "concepts": [
			{"name": "Calculus", "description": "Continuous change", "level": 0},
			{"name": "Limits", "description": "Foundation", "level": 1},
			{"name": "Limits", "description": "Foundation of derivatives and integrals", "level": 2},
			{"name": "One-sided limits", "description": "From one side", "level": 2}
		]}`,
		// Relationships: one valid, one hallucinated
		`{"relationships": [
			{"source": "Limits", "target": "Calculus", "relationship_type": "part_of"},
			{"source": "Limits", "target": "Epsilon-delta", "relationship_type": "related"}
		]}`,
	}}

	result, err := New(gen).Run(context.Background(), "Chapter 1: Limits ...")
	require.NoError(t, err)

	// Node count matches the digest's unique concept count even though the
	// outline nesting differed from the flat digest
	assert.Len(t, result.Digest.Concepts, 3)
	assert.Len(t, result.Graph.Nodes, 3)
	assert.Equal(t, 3, result.Graph.Metadata.TotalConcepts)
	assert.Equal(t, 3, result.Graph.Metadata.DepthLevels)
	require.Len(t, result.Graph.Edges, 1)
	assert.NoError(t, model.ValidateGraph(result.Graph))
}

func TestPipeline_EmptyInput(t *testing.T) {
	gen := &fakeGenerator{}
	_, err := New(gen).Run(context.Background(), "   ")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeValidation))
}

func TestStructuringStage_CapabilityErrorPropagates(t *testing.T) {
	gen := &fakeGenerator{err: errors.NewCapability("text-generation", nil)}
	_, err := NewStructuringStage(gen).Run(context.Background(), "some text")
	require.Error(t, err)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeCapability))
}
