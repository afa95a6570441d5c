package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/meikuraledutech/quest"
	"github.com/meikuraledutech/quest/memory"
)

func main() {
	ctx := context.Background()

	// Wire the in-memory implementation behind the Store interface. Every
	// outline node carries pre-written content, so no generator is needed.
	var store quest.Store = memory.New()

	builder := quest.NewBuilder(store, nil, quest.DefaultLimits, nil)
	engine := quest.NewEngine(store, quest.DefaultLimits)

	// ── Build a published graph from a symbolic outline ───────────────
	outline := &quest.Outline{
		Title:       "The Lighthouse Keeper",
		Description: "A stormy night on the cliffs.",
		Nodes: []quest.OutlineNode{
			{Ref: "start", Title: "The Storm Rolls In", Type: quest.NodeStart,
				Content: "Rain hammers the lantern room as the light gutters out.",
				Choices: []quest.OutlineChoice{
					{TargetRef: "stairs", Label: "Climb down the spiral stairs"},
					{TargetRef: "signal", Label: "Try to relight the lamp"},
				}},
			{Ref: "stairs", Title: "The Flooded Cellar", Type: quest.NodeStory,
				Content: "Black water laps at the bottom step.",
				Choices: []quest.OutlineChoice{
					{TargetRef: "drown", Label: "Wade into the dark"},
				}},
			{Ref: "signal", Title: "A Spark Catches", Type: quest.NodeStory,
				Content: "The wick takes and the beam sweeps the breakers.",
				Choices: []quest.OutlineChoice{
					{TargetRef: "rescue", Label: "Signal the ship offshore"},
				}},
			{Ref: "drown", Title: "The Sea Claims Its Own", Type: quest.NodeEnding,
				EndingType: "tragic",
				Content:    "The cold closes over your head."},
			{Ref: "rescue", Title: "Morning Comes", Type: quest.NodeEnding,
				EndingType: "triumphant",
				Content:    "The ship clears the rocks and dawn breaks clean."},
		},
	}

	adv, err := builder.Build(ctx, outline)
	if err != nil {
		log.Fatalf("build: %v", err)
	}
	fmt.Println("adventure published:")
	printJSON(adv)

	// ── Start a journey ───────────────────────────────────────────────
	res, err := engine.Start(ctx, "keeper-42", adv.ID)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	fmt.Printf("\nat %q with %d choices\n", res.Node.Title, len(res.Choices))

	// ── Walk until an ending ──────────────────────────────────────────
	journeyID := res.Journey.ID
	for !res.Journey.IsCompleted {
		choice := res.Choices[0]
		res, err = engine.Choose(ctx, journeyID, choice.ID, "keeper-42")
		if err != nil {
			log.Fatalf("choose: %v", err)
		}
		fmt.Printf("chose %q → %q\n", choice.Label, res.Node.Title)
	}
	fmt.Printf("\ncompleted in %d steps; ending: %s\n", len(res.Journey.Path), res.Node.EndingType)

	// ── Ledger analytics ──────────────────────────────────────────────
	stats, err := store.ChoiceStats(ctx, adv.ID)
	if err != nil {
		log.Fatalf("stats: %v", err)
	}
	fmt.Println("\nchoice popularity:")
	printJSON(stats)
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
