package transition_test

import (
	"fmt"

	"github.com/agentlens/agentlens/pkg/layout"
	"github.com/agentlens/agentlens/pkg/transition"
)

func ExampleCompute_expand() {
	// Expanding "planner" reveals "search". The host recomputes layout for
	// the new visible set and animates between the two snapshots.
	prevPos := map[string]layout.Point{"planner": {X: 0, Y: 0}}
	targetPos := map[string]layout.Point{
		"planner": {X: -60, Y: 0},
		"search":  {X: 60, Y: 0},
	}
	oldVisible := map[string]bool{"planner": true}
	newVisible := map[string]bool{"planner": true, "search": true}
	parentOf := map[string]string{"search": "planner"}

	state := transition.Compute(prevPos, targetPos, oldVisible, newVisible, parentOf)

	fmt.Println("Sprouting:", state.SproutingIDs())
	mid := state.PositionAt("search", 0.5)
	fmt.Printf("search at t=0.5: (%.0f, %.0f)\n", mid.X, mid.Y)
	fmt.Printf("search opacity at t=0.5: %.2f\n", state.OpacityAt("search", 0.5))
	// Output:
	// Sprouting: [search]
	// search at t=0.5: (0, 0)
	// search opacity at t=0.5: 0.50
}

func ExampleState_PositionAt_persisting() {
	// A persisting node glides linearly between its own two positions.
	prevPos := map[string]layout.Point{"planner": {X: 0, Y: 0}}
	targetPos := map[string]layout.Point{"planner": {X: 100, Y: 40}}
	visible := map[string]bool{"planner": true}

	state := transition.Compute(prevPos, targetPos, visible, visible, nil)

	p := state.PositionAt("planner", 0.25)
	fmt.Printf("(%.0f, %.0f)\n", p.X, p.Y)
	// Output:
	// (25, 10)
}
