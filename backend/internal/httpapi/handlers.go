package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"mindmesh/backend/internal/adapter"
	"mindmesh/backend/internal/insights"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/internal/pipeline"
	"mindmesh/backend/internal/project"
	"mindmesh/backend/pkg/errors"
	"mindmesh/backend/pkg/logger"
)

// Handlers exposes the backend over JSON. Every response carries a success
// flag; failures add a human-readable error_message and map to 400/404/500
// by error kind.
type Handlers struct {
	pipeline *pipeline.Pipeline
	insights *insights.Service
	audio    adapter.AudioSynthesizer
	projects *project.Service
	logger   *zap.Logger
}

// New creates the handler set
func New(p *pipeline.Pipeline, ins *insights.Service, audio adapter.AudioSynthesizer, projects *project.Service) *Handlers {
	return &Handlers{
		pipeline: p,
		insights: ins,
		audio:    audio,
		projects: projects,
		logger:   logger.Get(),
	}
}

// Register mounts all routes under /api plus the health check
func (h *Handlers) Register(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/structured-text", h.structureText)
		api.POST("/digest", h.digestOutline)
		api.POST("/relationships", h.extractRelationships)
		api.POST("/graph", h.buildGraph)

		api.POST("/overview", h.generateOverview)
		api.POST("/audio-script", h.generateAudioScript)
		api.POST("/audio", h.generateAudio)
		api.POST("/concept-insights", h.conceptInsights)
		api.POST("/concept-definition", h.conceptDefinition)

		api.POST("/project/save", h.saveProject)
		api.GET("/projects/list", h.listProjects)
		api.GET("/project/:id", h.getProject)
		api.DELETE("/project/:id", h.deleteProject)
		api.PATCH("/project/:id/title", h.updateTitle)
		api.PATCH("/project/:id/concept-notes", h.updateConceptNotes)
		api.PATCH("/project/:id/concept-confidence", h.updateConceptConfidence)
	}
}

// fail writes the uniform error envelope
func (h *Handlers) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	c.JSON(status, gin.H{"success": false, "error_message": err.Error()})
}

func (h *Handlers) bindFail(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "error_message": err.Error()})
}

// Pipeline stage endpoints

func (h *Handlers) structureText(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	outline, err := h.pipeline.Structuring.Run(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"structured_data": outline, "success": true})
}

func (h *Handlers) digestOutline(c *gin.Context) {
	var req struct {
		StructuredData *pipeline.Outline `json:"structured_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	digest, err := h.pipeline.Digest.Run(c.Request.Context(), req.StructuredData)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"digest_data": digest, "success": true})
}

func (h *Handlers) extractRelationships(c *gin.Context) {
	var req struct {
		DigestData *model.Digest `json:"digest_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	ctx := c.Request.Context()
	relationships, err := h.pipeline.Relationships.Run(ctx, req.DigestData)
	if err != nil {
		h.fail(c, err)
		return
	}
	graph, err := h.pipeline.Assembler.Assemble(req.DigestData, relationships)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"graph_data": graph, "success": true})
}

func (h *Handlers) buildGraph(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	result, err := h.pipeline.Run(c.Request.Context(), req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"structured_data": result.Outline,
		"digest_data":     result.Digest,
		"graph_data":      result.Graph,
		"success":         true,
	})
}

// Enrichment endpoints

type enrichmentRequest struct {
	DigestData *model.Digest `json:"digest_data" binding:"required"`
	GraphData  *model.Graph  `json:"graph_data"`
}

func (h *Handlers) generateOverview(c *gin.Context) {
	var req enrichmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	overview, err := h.insights.Overview(c.Request.Context(), req.DigestData, req.GraphData)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"overview_text": overview, "success": true})
}

func (h *Handlers) generateAudioScript(c *gin.Context) {
	var req enrichmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	script, err := h.insights.AudioScript(c.Request.Context(), req.DigestData, req.GraphData)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"script_text": script, "success": true})
}

func (h *Handlers) generateAudio(c *gin.Context) {
	var req struct {
		ScriptText string `json:"script_text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	audioURL, err := h.audio.Synthesize(c.Request.Context(), req.ScriptText)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audio_url": audioURL, "success": true})
}

func (h *Handlers) conceptInsights(c *gin.Context) {
	var req struct {
		ConceptName string         `json:"concept_name" binding:"required"`
		ContextData map[string]any `json:"context_data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	result, err := h.insights.Concept(c.Request.Context(), req.ConceptName, req.ContextData)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"concept_name":       result.ConceptName,
		"overview":           result.Overview,
		"related_concepts":   result.RelatedConcepts,
		"important_formulas": result.ImportantFormulas,
		"key_theorems":       result.KeyTheorems,
		"success":            true,
	})
}

func (h *Handlers) conceptDefinition(c *gin.Context) {
	var req struct {
		ConceptName string `json:"concept_name" binding:"required"`
		ProjectID   string `json:"project_id"`
		PDFContent  string `json:"pdf_content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	ctx := c.Request.Context()
	sourceText := req.PDFContent
	if sourceText == "" && req.ProjectID != "" {
		stored, err := h.projects.SourceText(ctx, req.ProjectID)
		if err != nil {
			h.fail(c, err)
			return
		}
		sourceText = stored
	}

	definition, err := h.insights.Definition(ctx, req.ConceptName, sourceText)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"concept_name": req.ConceptName,
		"definition":   definition,
		"success":      true,
	})
}

// Project endpoints

func (h *Handlers) saveProject(c *gin.Context) {
	var req struct {
		DigestData *model.Digest `json:"digest_data" binding:"required"`
		GraphData  *model.Graph  `json:"graph_data" binding:"required"`
		PDFContent string        `json:"pdf_content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	saved, err := h.projects.Save(c.Request.Context(), req.DigestData, req.GraphData, req.PDFContent)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_id": saved.ID, "success": true})
}

func (h *Handlers) listProjects(c *gin.Context) {
	projects, err := h.projects.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (h *Handlers) getProject(c *gin.Context) {
	p, err := h.projects.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"project_data": p, "success": true})
}

func (h *Handlers) deleteProject(c *gin.Context) {
	if err := h.projects.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Project deleted successfully"})
}

func (h *Handlers) updateTitle(c *gin.Context) {
	var req struct {
		Title *string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	if err := h.projects.SetTitle(c.Request.Context(), c.Param("id"), *req.Title); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Title updated successfully"})
}

func (h *Handlers) updateConceptNotes(c *gin.Context) {
	var req struct {
		ConceptName string  `json:"concept_name" binding:"required"`
		Notes       *string `json:"notes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	if err := h.projects.SetConceptNotes(c.Request.Context(), c.Param("id"), req.ConceptName, *req.Notes); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Concept notes updated successfully"})
}

func (h *Handlers) updateConceptConfidence(c *gin.Context) {
	var req struct {
		ConceptName string `json:"concept_name" binding:"required"`
		Confidence  *int   `json:"confidence"` // nil clears the rating
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindFail(c, err)
		return
	}

	if err := h.projects.SetConceptConfidence(c.Request.Context(), c.Param("id"), req.ConceptName, req.Confidence); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Concept confidence updated successfully"})
}
