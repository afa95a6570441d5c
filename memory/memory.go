// Package memory provides an in-memory quest.Store for tests and examples.
// It keeps the same atomicity guarantees as the postgres store: graph builds
// land all-or-nothing and journey advances are compare-on-current-node.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/meikuraledutech/quest"
)

// MemStore implements quest.Store with mutex-guarded maps.
type MemStore struct {
	mu         sync.RWMutex
	adventures map[string]quest.Adventure
	nodes      map[string]quest.Node
	choices    map[string]quest.Choice
	journeys   map[string]quest.Journey
}

// New creates an empty MemStore.
func New() *MemStore {
	return &MemStore{
		adventures: make(map[string]quest.Adventure),
		nodes:      make(map[string]quest.Node),
		choices:    make(map[string]quest.Choice),
		journeys:   make(map[string]quest.Journey),
	}
}

// CreateSchema is a no-op for the in-memory store.
func (s *MemStore) CreateSchema(ctx context.Context) error { return nil }

// DropSchema discards everything.
func (s *MemStore) DropSchema(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adventures = make(map[string]quest.Adventure)
	s.nodes = make(map[string]quest.Node)
	s.choices = make(map[string]quest.Choice)
	s.journeys = make(map[string]quest.Journey)
	return nil
}

// CreateAdventureGraph lands the build atomically under the write lock,
// preserving the ordered protocol's observable outcome: the adventure becomes
// visible already complete and published, or not at all.
func (s *MemStore) CreateAdventureGraph(ctx context.Context, b *quest.GraphBuild) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range b.Nodes {
		s.nodes[n.ID] = n
	}
	adv := b.Adventure
	adv.CreatedAt = time.Now().UTC()
	for _, c := range b.Choices {
		s.choices[c.ID] = c
	}
	start := b.StartNodeID
	adv.StartNodeID = &start
	adv.Published = true
	s.adventures[adv.ID] = adv
	return nil
}

func (s *MemStore) GetAdventure(ctx context.Context, adventureID string) (*quest.Adventure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.adventures[adventureID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MemStore) GetNode(ctx context.Context, nodeID string) (*quest.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	return &n, nil
}

func (s *MemStore) ListNodes(ctx context.Context, adventureID string) ([]quest.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	nodes := []quest.Node{}
	for _, n := range s.nodes {
		if n.AdventureID == adventureID {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func (s *MemStore) GetChoice(ctx context.Context, choiceID string) (*quest.Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.choices[choiceID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (s *MemStore) ListChoices(ctx context.Context, nodeID string) ([]quest.Choice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	choices := []quest.Choice{}
	for _, c := range s.choices {
		if c.SourceNodeID == nodeID {
			choices = append(choices, c)
		}
	}
	return choices, nil
}

func (s *MemStore) CreateJourney(ctx context.Context, j *quest.Journey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.journeys {
		if existing.UserID == j.UserID && existing.AdventureID == j.AdventureID && !existing.IsCompleted {
			return quest.ErrJourneyActive
		}
	}
	now := time.Now().UTC()
	j.CreatedAt = now
	j.UpdatedAt = now
	s.journeys[j.ID] = cloneJourney(*j)
	return nil
}

func (s *MemStore) GetJourney(ctx context.Context, journeyID string) (*quest.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.journeys[journeyID]
	if !ok {
		return nil, nil
	}
	c := cloneJourney(j)
	return &c, nil
}

func (s *MemStore) ActiveJourney(ctx context.Context, userID, adventureID string) (*quest.Journey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.journeys {
		if j.UserID == userID && j.AdventureID == adventureID && !j.IsCompleted {
			c := cloneJourney(j)
			return &c, nil
		}
	}
	return nil, nil
}

func (s *MemStore) CompletedJourneyExists(ctx context.Context, userID, adventureID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, j := range s.journeys {
		if j.UserID == userID && j.AdventureID == adventureID && j.IsCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) AdvanceJourney(ctx context.Context, journeyID, fromNodeID string, entry quest.PathEntry, toNodeID string, complete bool) (*quest.Journey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.journeys[journeyID]
	if !ok {
		return nil, nil
	}
	if j.CurrentNodeID != fromNodeID || j.IsCompleted {
		return nil, quest.ErrJourneyConflict
	}

	j = cloneJourney(j)
	j.Path = append(j.Path, entry)
	j.CurrentNodeID = toNodeID
	j.UpdatedAt = time.Now().UTC()
	if complete {
		j.IsCompleted = true
		at := entry.ChosenAt
		j.CompletedAt = &at
	}
	s.journeys[journeyID] = j

	c := cloneJourney(j)
	return &c, nil
}

func (s *MemStore) ChoiceStats(ctx context.Context, adventureID string) ([]quest.ChoiceStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := map[string]*quest.ChoiceStat{}
	for _, j := range s.journeys {
		if j.AdventureID != adventureID {
			continue
		}
		for _, e := range j.Path {
			st, ok := counts[e.ChoiceID]
			if !ok {
				st = &quest.ChoiceStat{ChoiceID: e.ChoiceID, ChoiceText: e.ChoiceText}
				counts[e.ChoiceID] = st
			}
			st.Count++
		}
	}

	stats := []quest.ChoiceStat{}
	for _, st := range counts {
		stats = append(stats, *st)
	}
	return stats, nil
}

// cloneJourney copies the path slice so callers never alias stored state.
func cloneJourney(j quest.Journey) quest.Journey {
	path := make([]quest.PathEntry, len(j.Path))
	copy(path, j.Path)
	j.Path = path
	return j
}
