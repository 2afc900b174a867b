package pipeline

import (
	"context"

	"mindmesh/backend/internal/adapter"
	"mindmesh/backend/internal/extract"
	"mindmesh/backend/internal/model"
)

// Pipeline chains the four stages that turn raw document text into a
// validated concept graph. Stages run sequentially; each consumes the
// previous stage's output.
type Pipeline struct {
	Structuring   *StructuringStage
	Digest        *DigestStage
	Relationships *RelationshipStage
	Assembler     *GraphAssembler
}

// New wires a pipeline over one text-generation capability
func New(gen adapter.TextGenerator) *Pipeline {
	return &Pipeline{
		Structuring:   NewStructuringStage(gen),
		Digest:        NewDigestStage(gen),
		Relationships: NewRelationshipStage(gen),
		Assembler:     NewGraphAssembler(),
	}
}

// Result bundles every intermediate artifact of a full pipeline run
type Result struct {
	Outline *Outline
	Digest  *model.Digest
	Graph   *model.Graph
}

// Run executes the full pipeline on raw text. HTML input is reduced to plain
// text first; PDF extraction happens upstream of this backend.
func (p *Pipeline) Run(ctx context.Context, rawText string) (*Result, error) {
	text := extract.PlainText(rawText)

	outline, err := p.Structuring.Run(ctx, text)
	if err != nil {
		return nil, err
	}

	digest, err := p.Digest.Run(ctx, outline)
	if err != nil {
		return nil, err
	}

	relationships, err := p.Relationships.Run(ctx, digest)
	if err != nil {
		return nil, err
	}

	graph, err := p.Assembler.Assemble(digest, relationships)
	if err != nil {
		return nil, err
	}

	return &Result{Outline: outline, Digest: digest, Graph: graph}, nil
}
