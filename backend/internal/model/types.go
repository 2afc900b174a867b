package model

import "time"

// Concept is a named unit of knowledge in a graph. The name is the sole
// identity key: no two concepts in one graph share a name (case-sensitive).
type Concept struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Level        int    `json:"level"` // hierarchy depth, 0 = most general
	SpecialNotes string `json:"special_notes,omitempty"`
	Notes        string `json:"notes,omitempty"`      // user-authored, mutable post-creation
	Confidence   *int   `json:"confidence,omitempty"` // 1-5 mastery rating, nil = unrated
}

// Relationship is a typed directed edge between two concepts. The type
// vocabulary is open: "prerequisite", "related", "example", etc.
type Relationship struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"relationship_type"`
}

// GraphMetadata holds derived graph-level fields
type GraphMetadata struct {
	Title         string `json:"title"`
	Subject       string `json:"subject"`
	TotalConcepts int    `json:"total_concepts"`
	DepthLevels   int    `json:"depth_levels"`
}

// Graph is the assembled artifact: concepts, relationships, and derived
// metadata for one project
type Graph struct {
	Nodes    []Concept      `json:"nodes"`
	Edges    []Relationship `json:"edges"`
	Metadata GraphMetadata  `json:"graph_metadata"`
}

// DigestConcept is one entry of the canonical concept digest
type DigestConcept struct {
	Name         string `json:"name"`
	Description  string `json:"description"`
	Level        int    `json:"level"`
	SpecialNotes string `json:"special_notes,omitempty"`
}

// Digest is the deduplicated, leveled, flat concept list derived from raw
// structuring output. Concepts keep first-seen order.
type Digest struct {
	Title    string          `json:"title"`
	Subject  string          `json:"subject"`
	Concepts []DigestConcept `json:"concepts"`
}

// NameSet returns the set of concept names in the digest
func (d *Digest) NameSet() map[string]bool {
	names := make(map[string]bool, len(d.Concepts))
	for _, c := range d.Concepts {
		names[c.Name] = true
	}
	return names
}

// Project is the persisted unit bundling digest, graph, and optional source
// text under one server-generated id. Metadata fields are denormalized from
// the graph so listings never need to unpack graph_data.
type Project struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Subject       string    `json:"subject"`
	TotalConcepts int       `json:"total_concepts"`
	DepthLevels   int       `json:"depth_levels"`
	DigestData    *Digest   `json:"digest_data,omitempty"`
	GraphData     *Graph    `json:"graph_data,omitempty"`
	PDFContent    string    `json:"pdf_content,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// FindNode returns a pointer to the node with the given name, or nil
func (g *Graph) FindNode(name string) *Concept {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i]
		}
	}
	return nil
}
