package model

import (
	"fmt"

	"mindmesh/backend/pkg/errors"
)

const (
	// MinConfidence and MaxConfidence bound the mastery rating scale
	MinConfidence = 1
	MaxConfidence = 5
)

// ValidConfidence reports whether a confidence value is acceptable:
// nil clears the rating, otherwise it must fall in [1,5].
func ValidConfidence(confidence *int) bool {
	if confidence == nil {
		return true
	}
	return *confidence >= MinConfidence && *confidence <= MaxConfidence
}

// ValidateConcept checks a single concept against the data-model invariants.
// Pure check, no side effects.
func ValidateConcept(c Concept) error {
	if c.Name == "" {
		return errors.NewSchema("concept with empty name")
	}
	if c.Level < 0 {
		return errors.NewSchema(fmt.Sprintf("concept %q has negative level %d", c.Name, c.Level))
	}
	if !ValidConfidence(c.Confidence) {
		return errors.NewSchema(fmt.Sprintf("concept %q has confidence %d outside [%d,%d]",
			c.Name, *c.Confidence, MinConfidence, MaxConfidence))
	}
	return nil
}

// ValidateRelationship checks an edge against a set of known concept names.
// Self-loops pass validation; callers that care should check IsSelfLoop.
func ValidateRelationship(r Relationship, knownNames map[string]bool) error {
	if r.Source == "" || r.Target == "" {
		return errors.NewSchema("relationship with empty endpoint")
	}
	if !knownNames[r.Source] {
		return errors.NewSchema(fmt.Sprintf("relationship source %q references unknown concept", r.Source))
	}
	if !knownNames[r.Target] {
		return errors.NewSchema(fmt.Sprintf("relationship target %q references unknown concept", r.Target))
	}
	return nil
}

// IsSelfLoop reports whether an edge points at its own source
func IsSelfLoop(r Relationship) bool {
	return r.Source == r.Target
}

// ValidateGraph checks every data-model invariant on an assembled graph:
// unique node names, referentially intact edges, confidence in range, and
// metadata consistent with the node set. Returns a SchemaError on the first
// violation found.
func ValidateGraph(g *Graph) error {
	names := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if err := ValidateConcept(node); err != nil {
			return err
		}
		if names[node.Name] {
			return errors.NewSchema(fmt.Sprintf("duplicate concept name %q", node.Name))
		}
		names[node.Name] = true
	}

	for _, edge := range g.Edges {
		if err := ValidateRelationship(edge, names); err != nil {
			return err
		}
	}

	if g.Metadata.TotalConcepts != len(g.Nodes) {
		return errors.NewSchema(fmt.Sprintf("metadata total_concepts %d does not match %d nodes",
			g.Metadata.TotalConcepts, len(g.Nodes)))
	}
	if g.Metadata.DepthLevels != DepthLevels(g.Nodes) {
		return errors.NewSchema(fmt.Sprintf("metadata depth_levels %d does not match computed %d",
			g.Metadata.DepthLevels, DepthLevels(g.Nodes)))
	}

	return nil
}

// DepthLevels computes max(level)+1 over a node set, 0 when empty
func DepthLevels(nodes []Concept) int {
	if len(nodes) == 0 {
		return 0
	}
	max := 0
	for _, n := range nodes {
		if n.Level > max {
			max = n.Level
		}
	}
	return max + 1
}
