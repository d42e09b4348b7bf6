// Package graph draws the calculator input state machine as a Mermaid diagram.
package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
)

// Transition is one observed move of the input state machine.
type Transition struct {
	From domain.InputState
	To   domain.InputState
	// Keys lists the key kinds that cause the move, in probe order.
	Keys []domain.KeyKind
}

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	CurrentMode domain.InputState
}

// probes are key lines that put a fresh session into each mode.
// Normal is probed twice so evaluation can both succeed and fail.
var probes = []string{
	"12",
	"1/0",
	"2+3 =",
	"1/0 =",
}

// samples holds one key of every kind.
var samples = []domain.Key{
	domain.Digit("7"),
	domain.Operator("+"),
	domain.Command(domain.KeyDecimal),
	domain.Command(domain.KeyClearAll),
	domain.Command(domain.KeyClearEntry),
	domain.Command(domain.KeyDelete),
	domain.Command(domain.KeyToggleSign),
	{Kind: domain.KeyConstant, Value: string(domain.ConstPi)},
	domain.Fn(domain.FuncSqrt),
	domain.Command(domain.KeyEvaluate),
	domain.Command(domain.KeyMemoryClear),
	domain.Command(domain.KeyMemoryRecall),
	domain.Command(domain.KeyMemoryAdd),
	domain.Command(domain.KeyMemorySubtract),
	{Kind: domain.KeyAngleMode, Value: string(domain.Radians)},
}

var modeOrder = map[domain.InputState]int{
	domain.StateNormal:        0,
	domain.StateAwaitingFresh: 1,
	domain.StateErrorDisplay:  2,
}

// Explore drives the engine from every probe state with every sample key
// and returns the transitions it observed, ordered by source and target mode.
func Explore(ctx context.Context, engine *abacus.Engine) ([]Transition, error) {
	type edge struct{ from, to domain.InputState }
	found := make(map[edge][]domain.KeyKind)

	for _, probe := range probes {
		for _, key := range samples {
			state := engine.Start("graph")
			if err := engine.Input(ctx, state, probe); err != nil {
				return nil, fmt.Errorf("probe %q: %w", probe, err)
			}
			from := state.Mode()
			if err := engine.Press(ctx, state, key); err != nil {
				return nil, fmt.Errorf("probe %q, key %s: %w", probe, key, err)
			}
			e := edge{from, state.Mode()}
			if !containsKind(found[e], key.Kind) {
				found[e] = append(found[e], key.Kind)
			}
		}
	}

	transitions := make([]Transition, 0, len(found))
	for e, keys := range found {
		transitions = append(transitions, Transition{From: e.from, To: e.to, Keys: keys})
	}
	sort.Slice(transitions, func(i, j int) bool {
		a, b := transitions[i], transitions[j]
		if a.From != b.From {
			return modeOrder[a.From] < modeOrder[b.From]
		}
		return modeOrder[a.To] < modeOrder[b.To]
	})
	return transitions, nil
}

func containsKind(kinds []domain.KeyKind, k domain.KeyKind) bool {
	for _, kind := range kinds {
		if kind == k {
			return true
		}
	}
	return false
}

// GenerateMermaid produces a Mermaid state diagram from observed transitions.
// Self loops are drawn like any other edge. The overlay, if provided,
// highlights the mode a session is currently in.
func GenerateMermaid(transitions []Transition, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("stateDiagram-v2\n")
	fmt.Fprintf(&sb, "    [*] --> %s\n", domain.StateNormal)

	for _, t := range transitions {
		labels := make([]string, len(t.Keys))
		for i, k := range t.Keys {
			labels[i] = string(k)
		}
		fmt.Fprintf(&sb, "    %s --> %s: %s\n", t.From, t.To, strings.Join(labels, ", "))
	}

	if overlay != nil && overlay.CurrentMode != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast on light and dark themes.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current\n", overlay.CurrentMode)
	}

	return sb.String()
}
