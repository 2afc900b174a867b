package project

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/internal/store"
	"mindmesh/backend/pkg/logger"
)

// GraphMirror is the optional exploration mirror kept in sync with saved
// projects. A nil mirror disables mirroring.
type GraphMirror interface {
	SyncProject(ctx context.Context, project *model.Project) error
	DeleteProject(ctx context.Context, projectID string) error
}

// Service owns the project lifecycle: assembling persisted records from
// pipeline output, retrieval, deletion, and the targeted mutations in
// mutator.go. One service instance is shared by all requests.
type Service struct {
	store  store.Store
	mirror GraphMirror
	logger *zap.Logger
}

// NewService creates a project service. mirror may be nil.
func NewService(s store.Store, mirror GraphMirror) *Service {
	return &Service{
		store:  s,
		mirror: mirror,
		logger: logger.Get(),
	}
}

// Save persists a new project from assembled pipeline output. The id is
// server-generated; clients never supply one. The graph is re-validated at
// the persistence boundary so a corrupted payload can never be stored.
func (s *Service) Save(ctx context.Context, digest *model.Digest, graph *model.Graph, pdfContent string) (*model.Project, error) {
	if err := model.ValidateGraph(graph); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	project := &model.Project{
		ID:            uuid.New().String(),
		Title:         graph.Metadata.Title,
		Subject:       graph.Metadata.Subject,
		TotalConcepts: graph.Metadata.TotalConcepts,
		DepthLevels:   graph.Metadata.DepthLevels,
		DigestData:    digest,
		GraphData:     graph,
		PDFContent:    pdfContent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if project.Title == "" {
		project.Title = "Untitled Project"
	}
	if project.Subject == "" {
		project.Subject = "Unknown"
	}

	if err := s.store.Save(ctx, project); err != nil {
		return nil, err
	}

	s.syncMirror(ctx, project)

	s.logger.Info("project saved",
		zap.String("project_id", project.ID),
		zap.String("title", project.Title),
		zap.Int("concepts", project.TotalConcepts),
		zap.Bool("has_source_text", pdfContent != ""),
	)
	return project, nil
}

// Get retrieves one project
func (s *Service) Get(ctx context.Context, id string) (*model.Project, error) {
	return s.store.Get(ctx, id)
}

// List returns all projects
func (s *Service) List(ctx context.Context) ([]*model.Project, error) {
	return s.store.List(ctx)
}

// Delete removes a project and its mirrored subgraph
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	if s.mirror != nil {
		if err := s.mirror.DeleteProject(ctx, id); err != nil {
			s.logger.Warn("failed to remove project from graph mirror",
				zap.String("project_id", id), zap.Error(err))
		}
	}
	return nil
}

// SourceText returns the original document text stored with a project
func (s *Service) SourceText(ctx context.Context, id string) (string, error) {
	project, err := s.store.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return project.PDFContent, nil
}

func (s *Service) syncMirror(ctx context.Context, project *model.Project) {
	if s.mirror == nil {
		return
	}
	if err := s.mirror.SyncProject(ctx, project); err != nil {
		s.logger.Warn("failed to mirror project graph",
			zap.String("project_id", project.ID), zap.Error(err))
	}
}
