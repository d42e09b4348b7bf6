package graph_test

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/presentation/graph"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func find(transitions []graph.Transition, from, to domain.InputState) *graph.Transition {
	for i := range transitions {
		if transitions[i].From == from && transitions[i].To == to {
			return &transitions[i]
		}
	}
	return nil
}

func TestExplore(t *testing.T) {
	transitions, err := graph.Explore(context.Background(), abacus.New())
	require.NoError(t, err)

	tests := []struct {
		name string
		from domain.InputState
		to   domain.InputState
		key  domain.KeyKind
	}{
		{"result awaits fresh input", domain.StateNormal, domain.StateAwaitingFresh, domain.KeyEvaluate},
		{"failed evaluation shows error", domain.StateNormal, domain.StateErrorDisplay, domain.KeyEvaluate},
		{"digit replaces result", domain.StateAwaitingFresh, domain.StateNormal, domain.KeyDigit},
		{"digit leaves error display", domain.StateErrorDisplay, domain.StateNormal, domain.KeyDigit},
		{"digit extends buffer", domain.StateNormal, domain.StateNormal, domain.KeyDigit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := find(transitions, tt.from, tt.to)
			require.NotNil(t, tr, "no %s -> %s transition", tt.from, tt.to)
			assert.Contains(t, tr.Keys, tt.key)
		})
	}

	assert.Equal(t, domain.StateNormal, transitions[0].From)
	assert.Equal(t, domain.StateErrorDisplay, transitions[len(transitions)-1].From)
}

func TestGenerateMermaid(t *testing.T) {
	transitions := []graph.Transition{
		{From: domain.StateNormal, To: domain.StateAwaitingFresh, Keys: []domain.KeyKind{domain.KeyEvaluate, domain.KeyConstant}},
		{From: domain.StateAwaitingFresh, To: domain.StateNormal, Keys: []domain.KeyKind{domain.KeyDigit}},
	}

	out := graph.GenerateMermaid(transitions, nil)
	assert.True(t, strings.HasPrefix(out, "stateDiagram-v2\n    [*] --> normal\n"), out)
	assert.Contains(t, out, "    normal --> awaiting_fresh: evaluate, constant\n")
	assert.Contains(t, out, "    awaiting_fresh --> normal: digit\n")
	assert.NotContains(t, out, "classDef")

	out = graph.GenerateMermaid(transitions, &graph.GraphOverlay{CurrentMode: domain.StateAwaitingFresh})
	assert.Contains(t, out, "classDef current")
	assert.Contains(t, out, "class awaiting_fresh current")
}
