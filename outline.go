package quest

// Outline is a symbolic, not-yet-persisted description of an adventure graph.
// Refs are generation-time keys, valid only within one build — they are never
// persisted and never appear in a stored graph.
type Outline struct {
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Nodes       []OutlineNode `json:"nodes"`
}

// OutlineNode is a proposed node. Summary seeds narrative generation; Content,
// when already present, is used as-is and skips generation for the node.
type OutlineNode struct {
	Ref        string          `json:"ref"`
	Title      string          `json:"title"`
	Type       NodeType        `json:"type"`
	EndingType string          `json:"ending_type,omitempty"`
	Summary    string          `json:"summary,omitempty"`
	Content    string          `json:"content,omitempty"`
	Choices    []OutlineChoice `json:"choices,omitempty"`
}

// OutlineChoice is a proposed edge. TargetRef names a node by its symbolic ref.
type OutlineChoice struct {
	TargetRef   string `json:"target_ref"`
	Label       string `json:"label"`
	Consequence string `json:"consequence,omitempty"`
}

// Limits bounds outline shape and journey traversal.
type Limits struct {
	MinNodes      int
	MaxNodes      int
	MinChoices    int
	MaxChoices    int
	MaxDepth      int
	MaxPathLength int
}

// DefaultLimits is a sane production configuration.
var DefaultLimits = Limits{
	MinNodes:      4,
	MaxNodes:      50,
	MinChoices:    1,
	MaxChoices:    4,
	MaxDepth:      20,
	MaxPathLength: 100,
}
