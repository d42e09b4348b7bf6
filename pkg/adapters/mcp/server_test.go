package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResult struct {
	IsError           bool           `json:"isError"`
	StructuredContent map[string]any `json:"structuredContent"`
	Content           []struct {
		Text string `json:"text"`
	} `json:"content"`
}

func rpc(t *testing.T, s *Server, method string, params any) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := s.mcpServer.HandleMessage(context.Background(), raw)
	out, err := json.Marshal(resp)
	require.NoError(t, err)

	var envelope struct {
		Result json.RawMessage `json:"result"`
		Error  json.RawMessage `json:"error"`
	}
	require.NoError(t, json.Unmarshal(out, &envelope))
	require.Empty(t, envelope.Error, string(out))
	return envelope.Result
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer(abacus.New(), logging.NewNop())
	rpc(t, s, "initialize", map[string]any{
		"protocolVersion": "2024-11-05",
		"clientInfo":      map[string]any{"name": "test", "version": "1.0.0"},
		"capabilities":    map[string]any{},
	})
	return s
}

func callTool(t *testing.T, s *Server, name string, args map[string]any) toolResult {
	t.Helper()
	var res toolResult
	raw := rpc(t, s, "tools/call", map[string]any{"name": name, "arguments": args})
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func TestListTools(t *testing.T) {
	s := newTestServer(t)
	var list struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal(rpc(t, s, "tools/list", map[string]any{}), &list))

	var names []string
	for _, tool := range list.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"evaluate_expression", "apply_function", "press_keys"}, names)
}

func TestEvaluateExpression(t *testing.T) {
	s := newTestServer(t)

	res := callTool(t, s, "evaluate_expression", map[string]any{"expression": "(1+2)^3"})
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, "27", res.StructuredContent["display"])
	assert.Equal(t, 27.0, res.StructuredContent["result"])

	res = callTool(t, s, "evaluate_expression", map[string]any{"expression": "1/0"})
	assert.True(t, res.IsError)
	require.NotEmpty(t, res.Content)
	assert.Contains(t, res.Content[0].Text, "Math Error")
}

func TestApplyFunction(t *testing.T) {
	s := newTestServer(t)

	res := callTool(t, s, "apply_function", map[string]any{"function": "sin", "value": 30})
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, "0.5", res.StructuredContent["display"])
	assert.Equal(t, "trigonometric", res.StructuredContent["category"])

	res = callTool(t, s, "apply_function", map[string]any{"function": "factorial", "value": 5, "angle_mode": "rad"})
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, "120", res.StructuredContent["display"])
	assert.Equal(t, "fact", res.StructuredContent["function"])

	res = callTool(t, s, "apply_function", map[string]any{"function": "sqrt", "value": -1})
	assert.True(t, res.IsError)

	res = callTool(t, s, "apply_function", map[string]any{"function": "cosh", "value": 1})
	assert.True(t, res.IsError)
}

func TestPressKeysCarriesState(t *testing.T) {
	s := newTestServer(t)

	res := callTool(t, s, "press_keys", map[string]any{"keys": "5 m+ ac 2+2="})
	require.False(t, res.IsError, res.Content)
	view := res.StructuredContent["view"].(map[string]any)
	assert.Equal(t, "4", view["display"])
	assert.Equal(t, 5.0, view["memory"])

	state, err := json.Marshal(res.StructuredContent["state"])
	require.NoError(t, err)

	res = callTool(t, s, "press_keys", map[string]any{"keys": "mr", "state": string(state)})
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, "5", res.StructuredContent["view"].(map[string]any)["display"])

	res = callTool(t, s, "press_keys", map[string]any{"keys": "7 frobnicate"})
	assert.True(t, res.IsError)

	res = callTool(t, s, "press_keys", map[string]any{"keys": "1", "state": "{broken"})
	assert.True(t, res.IsError)
}

func TestPressKeysRejectsForeignBuffer(t *testing.T) {
	s := newTestServer(t)

	for _, text := range []string{"Inf", "0x1p3", "NaN", "1_000", "2 + 2"} {
		t.Run(text, func(t *testing.T) {
			state := fmt.Sprintf(`{"buffer":{"text":%q},"angle_mode":"deg"}`, text)
			res := callTool(t, s, "press_keys", map[string]any{"keys": "=", "state": state})
			assert.True(t, res.IsError, "buffer %q must not be evaluated", text)
		})
	}

	res := callTool(t, s, "press_keys", map[string]any{"keys": "+1=", "state": `{"buffer":{"text":"1.5e+2"},"angle_mode":"rad"}`})
	require.False(t, res.IsError, res.Content)
	assert.Equal(t, "151", res.StructuredContent["view"].(map[string]any)["display"])
}

func TestKeysResource(t *testing.T) {
	s := newTestServer(t)
	var read struct {
		Contents []struct {
			URI  string `json:"uri"`
			Text string `json:"text"`
		} `json:"contents"`
	}
	require.NoError(t, json.Unmarshal(rpc(t, s, "resources/read", map[string]any{"uri": KeysResourceURI}), &read))
	require.Len(t, read.Contents, 1)
	assert.True(t, strings.Contains(read.Contents[0].Text, "m+"))
}
