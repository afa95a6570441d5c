package quest_test

import "github.com/meikuraledutech/quest"

var fixtureLimits = quest.Limits{
	MinNodes:      2,
	MaxNodes:      10,
	MinChoices:    1,
	MaxChoices:    3,
	MaxDepth:      5,
	MaxPathLength: 10,
}

// testOutline is the canonical accepted fixture:
// S(START)→{A,B}, A(STORY)→{E1}, B(STORY)→{E2}, E1/E2 endings.
func testOutline() *quest.Outline {
	return &quest.Outline{
		Title:       "The Fork in the Road",
		Description: "A two-branch fixture.",
		Nodes: []quest.OutlineNode{
			{Ref: "S", Title: "The Fork", Type: quest.NodeStart, Content: "You stand at a fork.",
				Choices: []quest.OutlineChoice{
					{TargetRef: "A", Label: "take the left path"},
					{TargetRef: "B", Label: "take the right path"},
				}},
			{Ref: "A", Title: "The Woods", Type: quest.NodeStory, Content: "Trees close in.",
				Choices: []quest.OutlineChoice{{TargetRef: "E1", Label: "push through"}}},
			{Ref: "B", Title: "The River", Type: quest.NodeStory, Content: "Water runs fast.",
				Choices: []quest.OutlineChoice{{TargetRef: "E2", Label: "cross the ford"}}},
			{Ref: "E1", Title: "The Clearing", Type: quest.NodeEnding, EndingType: "good",
				Content: "You emerge into sunlight."},
			{Ref: "E2", Title: "The Falls", Type: quest.NodeEnding, EndingType: "bad",
				Content: "The current wins."},
		},
	}
}
