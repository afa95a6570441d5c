package quest

import (
	"context"
	"errors"
)

var (
	// ErrJourneyActive signals that a non-completed journey already exists for
	// the (user, adventure) pair. The first writer wins; callers re-fetch.
	ErrJourneyActive = errors.New("quest: an active journey already exists for this user and adventure")
	// ErrJourneyConflict signals that an atomic journey advance lost a race:
	// the journey's current node moved (or it completed) under the caller.
	ErrJourneyConflict = errors.New("quest: journey was modified concurrently")
)

// Store defines the contract for persisting and traversing adventure graphs.
// Get* methods return nil, nil when the record does not exist.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Graph construction. CreateAdventureGraph persists a resolved build in a
	// single transaction, in order: contents and nodes, then the adventure row
	// with an unset start pointer and published=false, then choices, and as
	// the final write the start-pointer patch together with published=true.
	// A failure at any step leaves nothing visible as published.
	CreateAdventureGraph(ctx context.Context, b *GraphBuild) error

	// Graph reads. The published graph is immutable; no locking required.
	GetAdventure(ctx context.Context, adventureID string) (*Adventure, error)
	GetNode(ctx context.Context, nodeID string) (*Node, error)
	ListNodes(ctx context.Context, adventureID string) ([]Node, error)
	GetChoice(ctx context.Context, choiceID string) (*Choice, error)
	ListChoices(ctx context.Context, nodeID string) ([]Choice, error)

	// Journeys. CreateJourney returns ErrJourneyActive when a non-completed
	// journey already exists for the pair. AdvanceJourney performs one atomic
	// compare-on-current-node update: it appends entry, moves the current node
	// to toNodeID and, when complete, marks the journey completed — or returns
	// ErrJourneyConflict with zero mutation.
	CreateJourney(ctx context.Context, j *Journey) error
	GetJourney(ctx context.Context, journeyID string) (*Journey, error)
	ActiveJourney(ctx context.Context, userID, adventureID string) (*Journey, error)
	CompletedJourneyExists(ctx context.Context, userID, adventureID string) (bool, error)
	AdvanceJourney(ctx context.Context, journeyID, fromNodeID string, entry PathEntry, toNodeID string, complete bool) (*Journey, error)

	// Path-ledger analytics (read-only).
	ChoiceStats(ctx context.Context, adventureID string) ([]ChoiceStat, error)
}
