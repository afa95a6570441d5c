package quest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLimits = Limits{
	MinNodes:      2,
	MaxNodes:      10,
	MinChoices:    1,
	MaxChoices:    3,
	MaxDepth:      5,
	MaxPathLength: 10,
}

// branchingOutline is the canonical accepted shape:
// S(START)→{A,B}, A(STORY)→{E1}, B(STORY)→{E2}, E1/E2 endings.
func branchingOutline() *Outline {
	return &Outline{
		Title: "Test Adventure",
		Nodes: []OutlineNode{
			{Ref: "S", Title: "Start", Type: NodeStart, Content: "at the start",
				Choices: []OutlineChoice{
					{TargetRef: "A", Label: "go left"},
					{TargetRef: "B", Label: "go right"},
				}},
			{Ref: "A", Title: "Left", Type: NodeStory, Content: "went left",
				Choices: []OutlineChoice{{TargetRef: "E1", Label: "press on"}}},
			{Ref: "B", Title: "Right", Type: NodeStory, Content: "went right",
				Choices: []OutlineChoice{{TargetRef: "E2", Label: "press on"}}},
			{Ref: "E1", Title: "Ending One", Type: NodeEnding, EndingType: "good", Content: "the end, good"},
			{Ref: "E2", Title: "Ending Two", Type: NodeEnding, EndingType: "bad", Content: "the end, bad"},
		},
	}
}

func violationCodes(vs []Violation) []string {
	codes := make([]string, len(vs))
	for i, v := range vs {
		codes[i] = v.Code
	}
	return codes
}

func TestValidateOutlineAccepts(t *testing.T) {
	vs := ValidateOutline(branchingOutline(), testLimits)
	assert.Empty(t, vs)
}

func TestValidateOutlineRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Outline)
		code   string
	}{
		{
			name:   "no start node",
			mutate: func(o *Outline) { o.Nodes[0].Type = NodeStory },
			code:   ViolationStartCount,
		},
		{
			name:   "two start nodes",
			mutate: func(o *Outline) { o.Nodes[1].Type = NodeStart },
			code:   ViolationStartCount,
		},
		{
			name:   "unknown target ref",
			mutate: func(o *Outline) { o.Nodes[1].Choices[0].TargetRef = "GHOST" },
			code:   ViolationUnknownTarget,
		},
		{
			name:   "choice targets start",
			mutate: func(o *Outline) { o.Nodes[1].Choices[0].TargetRef = "S" },
			code:   ViolationTargetsStart,
		},
		{
			name: "unreachable node",
			mutate: func(o *Outline) {
				o.Nodes = append(o.Nodes, OutlineNode{
					Ref: "ISLAND", Title: "Island", Type: NodeStory,
					Choices: []OutlineChoice{{TargetRef: "E1", Label: "swim"}},
				})
			},
			code: ViolationUnreachable,
		},
		{
			name: "cycle never reaching an ending",
			mutate: func(o *Outline) {
				o.Nodes[1].Choices = append(o.Nodes[1].Choices, OutlineChoice{TargetRef: "B", Label: "loop"})
				o.Nodes[2].Choices = append(o.Nodes[2].Choices, OutlineChoice{TargetRef: "A", Label: "loop back"})
			},
			code: ViolationCycle,
		},
		{
			name:   "ending with choices",
			mutate: func(o *Outline) { o.Nodes[3].Choices = []OutlineChoice{{TargetRef: "E2", Label: "again"}} },
			code:   ViolationEndingChoices,
		},
		{
			name:   "story node without choices",
			mutate: func(o *Outline) { o.Nodes[1].Choices = nil },
			code:   ViolationChoiceCount,
		},
		{
			name: "too many choices on a node",
			mutate: func(o *Outline) {
				o.Nodes[0].Choices = append(o.Nodes[0].Choices,
					OutlineChoice{TargetRef: "A", Label: "c3"},
					OutlineChoice{TargetRef: "B", Label: "c4"},
				)
			},
			code: ViolationChoiceCount,
		},
		{
			name:   "too few nodes",
			mutate: func(o *Outline) { o.Nodes = o.Nodes[:1]; o.Nodes[0].Choices = nil },
			code:   ViolationNodeCount,
		},
		{
			name: "duplicate symbolic ref",
			mutate: func(o *Outline) {
				o.Nodes = append(o.Nodes, OutlineNode{Ref: "A", Title: "Copy", Type: NodeEnding})
			},
			code: ViolationDuplicateRef,
		},
		{
			name:   "unknown node type",
			mutate: func(o *Outline) { o.Nodes[2].Type = "INTERLUDE" },
			code:   ViolationNodeType,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			o := branchingOutline()
			tc.mutate(o)
			vs := ValidateOutline(o, testLimits)
			require.NotEmpty(t, vs)
			assert.Contains(t, violationCodes(vs), tc.code)
		})
	}
}

func TestValidateOutlineDepthBound(t *testing.T) {
	// A straight chain longer than MaxDepth: S → n1 → ... → n6 → E.
	o := &Outline{
		Title: "Long Chain",
		Nodes: []OutlineNode{
			{Ref: "S", Type: NodeStart, Choices: []OutlineChoice{{TargetRef: "n1", Label: "go"}}},
		},
	}
	for i := 1; i <= 6; i++ {
		next := "E"
		if i < 6 {
			next = "n" + string(rune('0'+i+1))
		}
		o.Nodes = append(o.Nodes, OutlineNode{
			Ref: "n" + string(rune('0'+i)), Type: NodeStory,
			Choices: []OutlineChoice{{TargetRef: next, Label: "go"}},
		})
	}
	o.Nodes = append(o.Nodes, OutlineNode{Ref: "E", Type: NodeEnding})

	vs := ValidateOutline(o, testLimits)
	require.NotEmpty(t, vs)
	assert.Contains(t, violationCodes(vs), ViolationDepthExceeded)
}

func TestValidateOutlineReportsAllViolations(t *testing.T) {
	o := branchingOutline()
	o.Nodes[1].Choices[0].TargetRef = "GHOST" // unknown target
	o.Nodes[3].Choices = []OutlineChoice{{TargetRef: "E2", Label: "again"}}

	vs := ValidateOutline(o, testLimits)
	codes := violationCodes(vs)
	assert.Contains(t, codes, ViolationUnknownTarget)
	assert.Contains(t, codes, ViolationEndingChoices)
}
