package quest_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meikuraledutech/quest"
	"github.com/meikuraledutech/quest/memory"
)

// fixture builds the canonical graph into a fresh memory store and returns
// the published adventure alongside the wired engine.
func fixture(t *testing.T) (*memory.MemStore, *quest.Engine, *quest.Adventure) {
	t.Helper()
	store := memory.New()
	b := quest.NewBuilder(store, nil, fixtureLimits, nil)
	adv, err := b.Build(context.Background(), testOutline())
	require.NoError(t, err)
	return store, quest.NewEngine(store, fixtureLimits), adv
}

func findChoice(t *testing.T, choices []quest.Choice, label string) quest.Choice {
	t.Helper()
	for _, c := range choices {
		if c.Label == label {
			return c
		}
	}
	t.Fatalf("no choice labeled %q", label)
	return quest.Choice{}
}

func TestStartCreatesJourneyAtStartNode(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	res, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)
	assert.Equal(t, quest.NodeStart, res.Node.Type)
	assert.Equal(t, *adv.StartNodeID, res.Journey.CurrentNodeID)
	assert.Empty(t, res.Journey.Path)
	assert.Len(t, res.Choices, 2)
	assert.False(t, res.Journey.IsCompleted)
}

func TestStartIsIdempotent(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	first, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)
	second, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)

	assert.Equal(t, first.Journey.ID, second.Journey.ID)
	assert.Equal(t, first.Journey.CurrentNodeID, second.Journey.CurrentNodeID)
	assert.Empty(t, second.Journey.Path)
}

func TestStartUnknownAdventure(t *testing.T) {
	ctx := context.Background()
	_, engine, _ := fixture(t)

	_, err := engine.Start(ctx, "user-1", "no-such-adventure")
	require.Error(t, err)
	assert.Equal(t, quest.KindNotFound, quest.KindOf(err))
}

// The full scenario: start at S with 2 choices, move to A with 1 choice and
// path length 1, then reach E1 completed with path length 2.
func TestWalkthroughToEnding(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	res, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)
	require.Len(t, res.Choices, 2)
	startNodeID := res.Journey.CurrentNodeID
	journeyID := res.Journey.ID

	left := findChoice(t, res.Choices, "take the left path")
	res, err = engine.Choose(ctx, journeyID, left.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "The Woods", res.Node.Title)
	require.Len(t, res.Journey.Path, 1)
	assert.Equal(t, startNodeID, res.Journey.Path[0].NodeID)
	assert.Equal(t, left.ID, res.Journey.Path[0].ChoiceID)
	assert.Equal(t, left.TargetNodeID, res.Journey.CurrentNodeID)
	assert.False(t, res.Journey.IsCompleted)
	require.Len(t, res.Choices, 1)

	finish := res.Choices[0]
	res, err = engine.Choose(ctx, journeyID, finish.ID, "user-1")
	require.NoError(t, err)
	assert.True(t, res.Journey.IsCompleted)
	assert.NotNil(t, res.Journey.CompletedAt)
	assert.Equal(t, quest.NodeEnding, res.Node.Type)
	assert.Len(t, res.Journey.Path, 2)
	assert.Empty(t, res.Choices)
}

func TestChooseWrongSourceRejectedWithoutMutation(t *testing.T) {
	ctx := context.Background()
	store, engine, adv := fixture(t)

	res, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)

	// A choice that departs from node A while the journey still sits at S.
	left := findChoice(t, res.Choices, "take the left path")
	downstream, err := store.ListChoices(ctx, left.TargetNodeID)
	require.NoError(t, err)
	require.Len(t, downstream, 1)

	_, err = engine.Choose(ctx, res.Journey.ID, downstream[0].ID, "user-1")
	require.Error(t, err)
	assert.Equal(t, quest.KindValidation, quest.KindOf(err))

	j, err := store.GetJourney(ctx, res.Journey.ID)
	require.NoError(t, err)
	assert.Empty(t, j.Path, "a rejected choice must not mutate the journey")
	assert.Equal(t, res.Journey.CurrentNodeID, j.CurrentNodeID)
}

func TestChooseUnknownChoice(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	res, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)

	_, err = engine.Choose(ctx, res.Journey.ID, "no-such-choice", "user-1")
	require.Error(t, err)
	assert.Equal(t, quest.KindNotFound, quest.KindOf(err))
}

func TestChooseOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	res, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)

	_, err = engine.Choose(ctx, res.Journey.ID, res.Choices[0].ID, "intruder")
	require.Error(t, err)
	assert.Equal(t, quest.KindAuthorization, quest.KindOf(err))
}

func completeJourney(t *testing.T, engine *quest.Engine, userID, adventureID string) *quest.StepResult {
	t.Helper()
	ctx := context.Background()
	res, err := engine.Start(ctx, userID, adventureID)
	require.NoError(t, err)
	for !res.Journey.IsCompleted {
		require.NotEmpty(t, res.Choices)
		res, err = engine.Choose(ctx, res.Journey.ID, res.Choices[0].ID, userID)
		require.NoError(t, err)
	}
	return res
}

func TestChooseOnCompletedJourney(t *testing.T) {
	ctx := context.Background()
	store, engine, adv := fixture(t)

	res := completeJourney(t, engine, "user-1", adv.ID)

	ending, err := store.GetNode(ctx, res.Journey.CurrentNodeID)
	require.NoError(t, err)
	require.Equal(t, quest.NodeEnding, ending.Type)

	// Any further choice is a terminal-guard conflict, not a lookup failure.
	_, err = engine.Choose(ctx, res.Journey.ID, res.Journey.Path[0].ChoiceID, "user-1")
	require.Error(t, err)
	assert.Equal(t, quest.KindConflict, quest.KindOf(err))
}

func TestStartAfterCompletionConflicts(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	completeJourney(t, engine, "user-1", adv.ID)

	_, err := engine.Start(ctx, "user-1", adv.ID)
	require.Error(t, err)
	assert.Equal(t, quest.KindConflict, quest.KindOf(err))
}

func TestRestartCreatesFreshJourney(t *testing.T) {
	ctx := context.Background()
	store, engine, adv := fixture(t)

	done := completeJourney(t, engine, "user-1", adv.ID)

	res, err := engine.Restart(ctx, "user-1", adv.ID)
	require.NoError(t, err)
	assert.NotEqual(t, done.Journey.ID, res.Journey.ID)
	assert.Empty(t, res.Journey.Path)

	// The completed journey is preserved untouched.
	old, err := store.GetJourney(ctx, done.Journey.ID)
	require.NoError(t, err)
	assert.True(t, old.IsCompleted)
	assert.Equal(t, len(done.Journey.Path), len(old.Path))
}

func TestRestartWhileInProgressConflicts(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	_, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)

	_, err = engine.Restart(ctx, "user-1", adv.ID)
	require.Error(t, err)
	assert.Equal(t, quest.KindConflict, quest.KindOf(err))
}

// Two concurrent choices against the same journey: exactly one commits, the
// other observes a conflict (or a validation error when it read the already
// advanced state), and the path grows by exactly one entry.
func TestConcurrentChooseExactlyOneWins(t *testing.T) {
	ctx := context.Background()
	store, engine, adv := fixture(t)

	res, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)
	require.Len(t, res.Choices, 2)
	journeyID := res.Journey.ID

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = engine.Choose(ctx, journeyID, res.Choices[i].ID, "user-1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		kind := quest.KindOf(err)
		assert.Contains(t, []quest.Kind{quest.KindConflict, quest.KindValidation}, kind)
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent choice must commit")

	j, err := store.GetJourney(ctx, journeyID)
	require.NoError(t, err)
	assert.Len(t, j.Path, 1, "path must grow by exactly one entry, never two")
}

func TestConcurrentStartFirstWriteWins(t *testing.T) {
	ctx := context.Background()
	store, engine, adv := fixture(t)

	results := make([]*quest.StepResult, 4)
	errs := make([]error, 4)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = engine.Start(ctx, "user-1", adv.ID)
		}(i)
	}
	wg.Wait()

	var journeyID string
	for i := range results {
		require.NoError(t, errs[i])
		if journeyID == "" {
			journeyID = results[i].Journey.ID
		}
		assert.Equal(t, journeyID, results[i].Journey.ID, "every racer must land on the same journey")
	}

	j, err := store.ActiveJourney(ctx, "user-1", adv.ID)
	require.NoError(t, err)
	require.NotNil(t, j)
	assert.Equal(t, journeyID, j.ID)
}

func TestPathLengthLimit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	b := quest.NewBuilder(store, nil, fixtureLimits, nil)
	adv, err := b.Build(ctx, testOutline())
	require.NoError(t, err)

	tight := fixtureLimits
	tight.MaxPathLength = 1
	engine := quest.NewEngine(store, tight)

	res, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)

	left := findChoice(t, res.Choices, "take the left path")
	res, err = engine.Choose(ctx, res.Journey.ID, left.ID, "user-1")
	require.NoError(t, err)
	require.False(t, res.Journey.IsCompleted)

	_, err = engine.Choose(ctx, res.Journey.ID, res.Choices[0].ID, "user-1")
	require.Error(t, err)
	assert.Equal(t, quest.KindConflict, quest.KindOf(err))
}

func TestChoiceStatsAggregateLedgers(t *testing.T) {
	ctx := context.Background()
	store, engine, adv := fixture(t)

	completeJourney(t, engine, "user-1", adv.ID)
	completeJourney(t, engine, "user-2", adv.ID)

	stats, err := store.ChoiceStats(ctx, adv.ID)
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	total := 0
	for _, st := range stats {
		assert.NotEmpty(t, st.ChoiceID)
		total += st.Count
	}
	assert.Equal(t, 4, total, "two completed two-step journeys leave four ledger entries")
}

func TestResumeReturnsCurrentState(t *testing.T) {
	ctx := context.Background()
	_, engine, adv := fixture(t)

	started, err := engine.Start(ctx, "user-1", adv.ID)
	require.NoError(t, err)
	left := findChoice(t, started.Choices, "take the left path")
	_, err = engine.Choose(ctx, started.Journey.ID, left.ID, "user-1")
	require.NoError(t, err)

	res, err := engine.Resume(ctx, started.Journey.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, left.TargetNodeID, res.Journey.CurrentNodeID)
	assert.Len(t, res.Journey.Path, 1)

	_, err = engine.Resume(ctx, started.Journey.ID, "intruder")
	require.Error(t, err)
	assert.Equal(t, quest.KindAuthorization, quest.KindOf(err))
}
