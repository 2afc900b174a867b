package project

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"mindmesh/backend/internal/model"
	"mindmesh/backend/pkg/errors"
)

// Targeted, idempotent partial updates to a persisted graph. Each operation
// mutates exactly one field of one node or the metadata through the store's
// Mutate primitive, so the read-modify-write is atomic on the in-memory
// store; racing mutations on the durable store resolve last-write-wins with
// no merge and no version check.

// SetTitle replaces the project title, including the copy embedded in graph
// metadata. An empty title is allowed.
func (s *Service) SetTitle(ctx context.Context, id, title string) error {
	err := s.store.Mutate(ctx, id, func(project *model.Project) error {
		project.Title = title
		if project.GraphData != nil {
			project.GraphData.Metadata.Title = title
		}
		project.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return err
	}

	if s.mirror != nil {
		if project, err := s.store.Get(ctx, id); err == nil {
			s.syncMirror(ctx, project)
		}
	}
	s.logger.Debug("project title updated", zap.String("project_id", id))
	return nil
}

// SetConceptNotes replaces the user notes on one concept. Full replace, not
// append: the last writer wins.
func (s *Service) SetConceptNotes(ctx context.Context, id, conceptName, notes string) error {
	return s.mutateConcept(ctx, id, conceptName, func(node *model.Concept) {
		node.Notes = notes
	})
}

// SetConceptConfidence replaces the mastery rating on one concept. nil
// clears the rating; values outside [1,5] are rejected before any read.
func (s *Service) SetConceptConfidence(ctx context.Context, id, conceptName string, confidence *int) error {
	if !model.ValidConfidence(confidence) {
		return errors.NewValidation("confidence",
			fmt.Sprintf("must be between %d and %d, or null", model.MinConfidence, model.MaxConfidence))
	}
	return s.mutateConcept(ctx, id, conceptName, func(node *model.Concept) {
		node.Confidence = confidence
	})
}

// mutateConcept runs the shared single-node mutation through the store's
// atomic primitive. All-or-nothing: a missing project or concept leaves
// stored state untouched.
func (s *Service) mutateConcept(ctx context.Context, id, conceptName string, mutate func(*model.Concept)) error {
	err := s.store.Mutate(ctx, id, func(project *model.Project) error {
		if project.GraphData == nil {
			return errors.NewConceptNotFound(conceptName)
		}
		node := project.GraphData.FindNode(conceptName)
		if node == nil {
			return errors.NewConceptNotFound(conceptName)
		}
		mutate(node)
		project.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("concept mutated",
		zap.String("project_id", id),
		zap.String("concept", conceptName),
	)
	return nil
}
