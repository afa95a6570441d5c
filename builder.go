package quest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator produces outlines and narrative content. Implementations are
// external collaborators (an AI provider, a fixture) and may fail; the Builder
// aborts the whole pipeline on the first failure, before persisting anything.
type Generator interface {
	GenerateOutline(ctx context.Context, concept string) (*Outline, error)
	GenerateContent(ctx context.Context, node OutlineNode) (string, error)
}

// Builder turns a validated outline into a persisted, fully linked and
// published adventure graph. It owns the symbolic-ref → real-id map that
// solves the forward-reference problem: a choice may name a target node that
// has no real identifier yet at generation time.
type Builder struct {
	store  Store
	gen    Generator
	limits Limits
	log    *zap.Logger
}

// NewBuilder wires a Builder. gen may be nil when every outline node carries
// pre-written content. log may be nil.
func NewBuilder(store Store, gen Generator, limits Limits, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{store: store, gen: gen, limits: limits, log: log}
}

// BuildFromConcept asks the generator for an outline first, then builds it.
func (b *Builder) BuildFromConcept(ctx context.Context, concept string) (*Adventure, error) {
	if b.gen == nil {
		return nil, Internal("no content generator configured", nil)
	}
	o, err := b.gen.GenerateOutline(ctx, concept)
	if err != nil {
		return nil, Internal("generate outline", err)
	}
	return b.Build(ctx, o)
}

// Build validates the outline, generates narrative content for every node
// before anything is persisted, resolves symbolic refs to freshly assigned
// ids, and hands the resolved graph to the store for the ordered,
// transactional write. A failed build is never visible as published.
func (b *Builder) Build(ctx context.Context, o *Outline) (*Adventure, error) {
	if violations := ValidateOutline(o, b.limits); len(violations) > 0 {
		return nil, InvalidOutline(violations)
	}

	// Content generation is a blocking suspension point and must finish for
	// every node before the first persistence step begins.
	bodies := make(map[string]string, len(o.Nodes))
	for _, n := range o.Nodes {
		if n.Content != "" {
			bodies[n.Ref] = n.Content
			continue
		}
		if b.gen == nil {
			return nil, Internal(fmt.Sprintf("node %q has no content and no generator is configured", n.Ref), nil)
		}
		body, err := b.gen.GenerateContent(ctx, n)
		if err != nil {
			return nil, Internal(fmt.Sprintf("generate content for node %q", n.Ref), err)
		}
		bodies[n.Ref] = body
	}

	build, err := b.assemble(o, bodies)
	if err != nil {
		// A reference failure here means the validator accepted an outline the
		// builder cannot resolve. That is a bug, not bad input.
		b.log.Error("unresolved symbolic reference during build",
			zap.String("outline_title", o.Title),
			zap.Error(err),
		)
		return nil, err
	}

	if err := b.store.CreateAdventureGraph(ctx, build); err != nil {
		return nil, Internal("persist adventure graph", err)
	}

	adv := build.Adventure
	adv.StartNodeID = &build.StartNodeID
	adv.Published = true
	return &adv, nil
}

// assemble assigns real UUIDs to every symbolic node, accumulates the
// ref → id map, and resolves both endpoints of every choice through it.
// A ref missing from the map is fatal and unretryable.
func (b *Builder) assemble(o *Outline, bodies map[string]string) (*GraphBuild, error) {
	adventureID := uuid.NewString()

	refMap := make(map[string]string, len(o.Nodes))
	nodes := make([]Node, 0, len(o.Nodes))
	for _, n := range o.Nodes {
		id := uuid.NewString()
		refMap[n.Ref] = id
		nodes = append(nodes, Node{
			ID:          id,
			AdventureID: adventureID,
			Title:       n.Title,
			Type:        n.Type,
			EndingType:  n.EndingType,
			ContentID:   uuid.NewString(),
			Content:     bodies[n.Ref],
		})
	}

	var startNodeID string
	var choices []Choice
	for _, n := range o.Nodes {
		sourceID, ok := refMap[n.Ref]
		if !ok {
			return nil, Reference(fmt.Sprintf("source ref %q is not in the id map", n.Ref), nil)
		}
		if n.Type == NodeStart {
			startNodeID = sourceID
		}
		for _, ch := range n.Choices {
			targetID, ok := refMap[ch.TargetRef]
			if !ok {
				return nil, Reference(fmt.Sprintf("choice on node %q targets unmapped ref %q", n.Ref, ch.TargetRef), nil)
			}
			choices = append(choices, Choice{
				ID:           uuid.NewString(),
				AdventureID:  adventureID,
				SourceNodeID: sourceID,
				TargetNodeID: targetID,
				Label:        ch.Label,
				Consequence:  ch.Consequence,
			})
		}
	}
	if startNodeID == "" {
		return nil, Reference("outline has no START node after validation", nil)
	}

	return &GraphBuild{
		Adventure: Adventure{
			ID:          adventureID,
			Title:       o.Title,
			Description: o.Description,
		},
		Nodes:       nodes,
		Choices:     choices,
		StartNodeID: startNodeID,
	}, nil
}
