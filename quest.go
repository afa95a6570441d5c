package quest

import "time"

// NodeType classifies a node and governs its outgoing-choice cardinality.
type NodeType string

const (
	// NodeStart is the unique entry point of an adventure.
	NodeStart NodeType = "START"
	// NodeDecision is an interior node whose choices branch the story.
	NodeDecision NodeType = "DECISION"
	// NodeStory is an interior node that advances the narrative.
	NodeStory NodeType = "STORY"
	// NodeEnding terminates every journey that reaches it. It has no choices.
	NodeEnding NodeType = "ENDING"
)

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeStart, NodeDecision, NodeStory, NodeEnding:
		return true
	}
	return false
}

// Adventure is a branching-narrative graph.
// StartNodeID is nil while the graph is under construction — it is patched to
// the real START node id as the last build step, together with Published.
type Adventure struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	StartNodeID *string   `json:"start_node_id,omitempty"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
}

// Node is a vertex of an adventure graph. Content is the narrative body,
// stored separately and referenced through ContentID.
type Node struct {
	ID          string   `json:"id"`
	AdventureID string   `json:"adventure_id"`
	Title       string   `json:"title"`
	Type        NodeType `json:"type"`
	EndingType  string   `json:"ending_type,omitempty"`
	ContentID   string   `json:"content_id,omitempty"`
	Content     string   `json:"content"`
}

// Choice is a directed edge between two nodes of the same adventure.
type Choice struct {
	ID           string `json:"id"`
	AdventureID  string `json:"adventure_id"`
	SourceNodeID string `json:"source_node_id"`
	TargetNodeID string `json:"target_node_id"`
	Label        string `json:"label"`
	Consequence  string `json:"consequence,omitempty"`
}

// PathEntry records one applied choice. Entries are immutable once appended.
type PathEntry struct {
	NodeID     string    `json:"node_id"`
	ChoiceID   string    `json:"choice_id"`
	ChoiceText string    `json:"choice_text"`
	ChosenAt   time.Time `json:"chosen_at"`
}

// Journey is one user's traversal state over a published adventure.
// At most one non-completed journey exists per (UserID, AdventureID).
type Journey struct {
	ID            string      `json:"id"`
	UserID        string      `json:"user_id"`
	AdventureID   string      `json:"adventure_id"`
	CurrentNodeID string      `json:"current_node_id"`
	Path          []PathEntry `json:"path"`
	IsCompleted   bool        `json:"is_completed"`
	CompletedAt   *time.Time  `json:"completed_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// ChoiceStat is one row of the cross-journey choice-popularity query.
type ChoiceStat struct {
	ChoiceID   string `json:"choice_id"`
	ChoiceText string `json:"choice_text"`
	Count      int    `json:"count"`
}

// GraphBuild is a fully resolved graph ready for persistence: every id is a
// real one and every choice endpoint resolves to a node in Nodes. Produced by
// the Builder, consumed by Store.CreateAdventureGraph.
type GraphBuild struct {
	Adventure   Adventure
	Nodes       []Node
	Choices     []Choice
	StartNodeID string
}
