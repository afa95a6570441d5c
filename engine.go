package quest

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// StepResult is the traversal state returned to the caller after Start,
// Restart or Choose: the journey, its current node with narrative content,
// and the node's outgoing choices (empty once the journey is completed).
type StepResult struct {
	Journey *Journey `json:"journey"`
	Node    *Node    `json:"current_node"`
	Choices []Choice `json:"choices"`
}

// Engine is the per-user state machine over a published graph. The graph is
// immutable, so reads need no coordination; each journey is a single
// read-modify-write stream advanced through one atomic store update.
type Engine struct {
	store  Store
	limits Limits
}

// NewEngine wires an Engine.
func NewEngine(store Store, limits Limits) *Engine {
	return &Engine{store: store, limits: limits}
}

// Start begins or resumes a journey. An IN_PROGRESS journey is returned
// unchanged (idempotent resume). A COMPLETED journey is a conflict — restart
// is an explicit, separate operation. Two racing Starts resolve
// first-write-wins: the loser returns the winner's journey.
func (e *Engine) Start(ctx context.Context, userID, adventureID string) (*StepResult, error) {
	adv, err := e.store.GetAdventure(ctx, adventureID)
	if err != nil {
		return nil, Internal("load adventure", err)
	}
	if adv == nil || !adv.Published || adv.StartNodeID == nil {
		return nil, NotFound("adventure not found")
	}

	active, err := e.store.ActiveJourney(ctx, userID, adventureID)
	if err != nil {
		return nil, Internal("find active journey", err)
	}
	if active != nil {
		return e.stateOf(ctx, active)
	}

	done, err := e.store.CompletedJourneyExists(ctx, userID, adventureID)
	if err != nil {
		return nil, Internal("find completed journey", err)
	}
	if done {
		return nil, Conflict("journey already completed; restart explicitly to play again")
	}

	return e.create(ctx, userID, adventureID, *adv.StartNodeID)
}

// Restart creates a fresh journey, leaving any completed one untouched. It
// conflicts while a journey is still in progress — resume that one instead.
func (e *Engine) Restart(ctx context.Context, userID, adventureID string) (*StepResult, error) {
	adv, err := e.store.GetAdventure(ctx, adventureID)
	if err != nil {
		return nil, Internal("load adventure", err)
	}
	if adv == nil || !adv.Published || adv.StartNodeID == nil {
		return nil, NotFound("adventure not found")
	}

	active, err := e.store.ActiveJourney(ctx, userID, adventureID)
	if err != nil {
		return nil, Internal("find active journey", err)
	}
	if active != nil {
		return nil, Conflict("journey still in progress; start resumes it")
	}

	return e.create(ctx, userID, adventureID, *adv.StartNodeID)
}

func (e *Engine) create(ctx context.Context, userID, adventureID, startNodeID string) (*StepResult, error) {
	j := &Journey{
		ID:            uuid.NewString(),
		UserID:        userID,
		AdventureID:   adventureID,
		CurrentNodeID: startNodeID,
		Path:          []PathEntry{},
	}
	err := e.store.CreateJourney(ctx, j)
	if errors.Is(err, ErrJourneyActive) {
		// Lost the first-write-wins race; hand back the winner's journey.
		winner, ferr := e.store.ActiveJourney(ctx, userID, adventureID)
		if ferr != nil || winner == nil {
			return nil, Conflict("journey creation raced; retry start")
		}
		return e.stateOf(ctx, winner)
	}
	if err != nil {
		return nil, Internal("create journey", err)
	}
	return e.stateOf(ctx, j)
}

// Choose applies one choice to a journey. It fully transitions or has no
// effect at all: the append, the current-node move and the completion flag
// commit in a single compare-on-current-node update.
func (e *Engine) Choose(ctx context.Context, journeyID, choiceID, userID string) (*StepResult, error) {
	j, err := e.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, Internal("load journey", err)
	}
	if j == nil {
		return nil, NotFound("journey not found")
	}
	if j.UserID != userID {
		return nil, Unauthorized("journey belongs to another user")
	}
	if j.IsCompleted {
		return nil, Conflict("journey is already completed")
	}
	if len(j.Path) >= e.limits.MaxPathLength {
		return nil, Conflict("journey path limit reached")
	}

	choice, err := e.store.GetChoice(ctx, choiceID)
	if err != nil {
		return nil, Internal("load choice", err)
	}
	if choice == nil || choice.AdventureID != j.AdventureID {
		return nil, NotFound("choice not found")
	}
	if choice.SourceNodeID != j.CurrentNodeID {
		return nil, Invalid("choice is not valid for the journey's current node")
	}

	target, err := e.store.GetNode(ctx, choice.TargetNodeID)
	if err != nil {
		return nil, Internal("load target node", err)
	}
	if target == nil {
		return nil, NotFound("target node not found")
	}

	entry := PathEntry{
		NodeID:     j.CurrentNodeID,
		ChoiceID:   choice.ID,
		ChoiceText: choice.Label,
		ChosenAt:   time.Now().UTC(),
	}
	complete := target.Type == NodeEnding

	advanced, err := e.store.AdvanceJourney(ctx, j.ID, j.CurrentNodeID, entry, target.ID, complete)
	if errors.Is(err, ErrJourneyConflict) {
		return nil, Conflict("journey state changed; refresh and retry")
	}
	if err != nil {
		return nil, Internal("advance journey", err)
	}
	if advanced == nil {
		return nil, NotFound("journey not found")
	}

	res := &StepResult{Journey: advanced, Node: target}
	if !complete {
		choices, err := e.store.ListChoices(ctx, target.ID)
		if err != nil {
			return nil, Internal("list choices", err)
		}
		res.Choices = choices
	}
	return res, nil
}

// Resume returns the current traversal state without mutating anything.
func (e *Engine) Resume(ctx context.Context, journeyID, userID string) (*StepResult, error) {
	j, err := e.store.GetJourney(ctx, journeyID)
	if err != nil {
		return nil, Internal("load journey", err)
	}
	if j == nil {
		return nil, NotFound("journey not found")
	}
	if j.UserID != userID {
		return nil, Unauthorized("journey belongs to another user")
	}
	return e.stateOf(ctx, j)
}

func (e *Engine) stateOf(ctx context.Context, j *Journey) (*StepResult, error) {
	node, err := e.store.GetNode(ctx, j.CurrentNodeID)
	if err != nil {
		return nil, Internal("load current node", err)
	}
	if node == nil {
		return nil, NotFound("current node not found")
	}
	res := &StepResult{Journey: j, Node: node}
	if !j.IsCompleted {
		choices, err := e.store.ListChoices(ctx, node.ID)
		if err != nil {
			return nil, Internal("list choices", err)
		}
		res.Choices = choices
	}
	return res, nil
}
