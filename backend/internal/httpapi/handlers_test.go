package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"mindmesh/backend/internal/insights"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/internal/pipeline"
	"mindmesh/backend/internal/project"
	"mindmesh/backend/internal/store"
)

type fakeGenerator struct{}

func (f *fakeGenerator) GenerateText(ctx context.Context, system, user string) (string, error) {
	return "generated text", nil
}

func (f *fakeGenerator) GenerateJSON(ctx context.Context, system, user string) ([]byte, error) {
	return []byte(`{"relationships": []}`), nil
}

type fakeAudio struct{}

func (f *fakeAudio) Synthesize(ctx context.Context, script string) (string, error) {
	return "data:audio/mpeg;base64,AAAA", nil
}

func newTestRouter() (*gin.Engine, *project.Service) {
	gin.SetMode(gin.TestMode)

	gen := &fakeGenerator{}
	projects := project.NewService(store.NewMemoryStore(), nil)
	h := New(pipeline.New(gen), insights.NewService(gen), &fakeAudio{}, projects)

	router := gin.New()
	h.Register(router)
	return router, projects
}

func doJSON(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func savedProjectID(t *testing.T, projects *project.Service) string {
	t.Helper()
	graph := &model.Graph{
		Nodes: []model.Concept{
			{Name: "Calculus", Description: "Continuous change", Level: 0},
			{Name: "Limits", Description: "Foundation", Level: 1},
		},
		Edges: []model.Relationship{},
		Metadata: model.GraphMetadata{
			Title: "Calculus Notes", Subject: "Mathematics", TotalConcepts: 2, DepthLevels: 2,
		},
	}
	digest := &model.Digest{Title: "Calculus Notes", Subject: "Mathematics"}
	saved, err := projects.Save(context.Background(), digest, graph, "source text")
	require.NoError(t, err)
	return saved.ID
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "GET", "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestStructureText_MissingBody(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "POST", "/api/structured-text", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRelationshipsEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "POST", "/api/relationships", map[string]any{
		"digest_data": map[string]any{
			"title":   "T",
			"subject": "S",
			"concepts": []map[string]any{
				{"name": "A", "description": "a", "level": 0},
			},
		},
	})

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Success   bool         `json:"success"`
		GraphData *model.Graph `json:"graph_data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.GraphData)
	assert.Equal(t, 1, resp.GraphData.Metadata.TotalConcepts)
}

func TestProjectLifecycleOverHTTP(t *testing.T) {
	router, _ := newTestRouter()

	// Save
	w := doJSON(router, "POST", "/api/project/save", map[string]any{
		"digest_data": map[string]any{"title": "T", "subject": "S", "concepts": []any{}},
		"graph_data": map[string]any{
			"nodes": []map[string]any{
				{"name": "Limits", "description": "Foundation", "level": 0},
			},
			"edges": []any{},
			"graph_metadata": map[string]any{
				"title": "T", "subject": "S", "total_concepts": 1, "depth_levels": 1,
			},
		},
	})
	require.Equal(t, http.StatusOK, w.Code)
	var saveResp struct {
		ProjectID string `json:"project_id"`
		Success   bool   `json:"success"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &saveResp))
	require.True(t, saveResp.Success)
	require.NotEmpty(t, saveResp.ProjectID)

	// Get
	w = doJSON(router, "GET", "/api/project/"+saveResp.ProjectID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// List
	w = doJSON(router, "GET", "/api/projects/list", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var listed []json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	// Patch notes
	w = doJSON(router, "PATCH", fmt.Sprintf("/api/project/%s/concept-notes", saveResp.ProjectID), map[string]any{
		"concept_name": "Limits",
		"notes":        "review",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Delete
	w = doJSON(router, "DELETE", "/api/project/"+saveResp.ProjectID, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(router, "GET", "/api/project/"+saveResp.ProjectID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProject_NotFound(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "GET", "/api/project/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["success"])
	assert.NotEmpty(t, resp["error_message"])
}

func TestUpdateTitle(t *testing.T) {
	router, projects := newTestRouter()
	id := savedProjectID(t, projects)

	w := doJSON(router, "PATCH", fmt.Sprintf("/api/project/%s/title", id), map[string]any{
		"title": "Renamed",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := projects.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
}

func TestUpdateConceptConfidence_RangeChecks(t *testing.T) {
	router, projects := newTestRouter()
	id := savedProjectID(t, projects)

	for _, bad := range []int{0, 6} {
		w := doJSON(router, "PATCH", fmt.Sprintf("/api/project/%s/concept-confidence", id), map[string]any{
			"concept_name": "Limits",
			"confidence":   bad,
		})
		assert.Equal(t, http.StatusBadRequest, w.Code, "confidence %d should be rejected", bad)
	}

	for _, good := range []int{1, 5} {
		w := doJSON(router, "PATCH", fmt.Sprintf("/api/project/%s/concept-confidence", id), map[string]any{
			"concept_name": "Limits",
			"confidence":   good,
		})
		assert.Equal(t, http.StatusOK, w.Code, "confidence %d should be accepted", good)
	}

	// null clears the rating
	w := doJSON(router, "PATCH", fmt.Sprintf("/api/project/%s/concept-confidence", id), map[string]any{
		"concept_name": "Limits",
		"confidence":   nil,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	got, err := projects.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, got.GraphData.FindNode("Limits").Confidence)
}

func TestUpdateConceptNotes_UnknownConcept(t *testing.T) {
	router, projects := newTestRouter()
	id := savedProjectID(t, projects)

	w := doJSON(router, "PATCH", fmt.Sprintf("/api/project/%s/concept-notes", id), map[string]any{
		"concept_name": "Ghost",
		"notes":        "x",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAudioEndpoint(t *testing.T) {
	router, _ := newTestRouter()

	w := doJSON(router, "POST", "/api/audio", map[string]any{"script_text": "hello"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.Contains(t, resp["audio_url"], "data:audio/mpeg;base64,")
}
