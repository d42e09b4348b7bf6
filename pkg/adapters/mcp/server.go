package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/abacus"
	"github.com/aretw0/abacus/pkg/domain"
	"github.com/aretw0/abacus/pkg/runner"
	"github.com/go-chi/cors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// KeysResourceURI is the resource describing the accepted key labels.
const KeysResourceURI = "abacus://keys"

// EvaluateResponse is the result of the evaluate_expression tool.
type EvaluateResponse struct {
	Expression string  `json:"expression" jsonschema_description:"The evaluated expression"`
	Result     float64 `json:"result" jsonschema_description:"Numeric result"`
	Display    string  `json:"display" jsonschema_description:"Result as the calculator displays it"`
}

// FunctionResponse is the result of the apply_function tool.
type FunctionResponse struct {
	Function  string           `json:"function" jsonschema_description:"Canonical function name"`
	Value     float64          `json:"value" jsonschema_description:"Input value"`
	AngleMode domain.AngleMode `json:"angle_mode" jsonschema_description:"Angle mode used by trigonometric functions"`
	Result    float64          `json:"result" jsonschema_description:"Numeric result"`
	Display   string           `json:"display" jsonschema_description:"Result as the calculator displays it"`
	Category  string           `json:"category" jsonschema_description:"History operation type of the function"`
}

// Server exposes the calculator engine as an MCP server.
type Server struct {
	engine    *abacus.Engine
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine *abacus.Engine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		engine: engine,
		logger: logger,
		mcpServer: server.NewMCPServer("abacus-mcp", strings.TrimSpace(abacus.Version),
			server.WithToolCapabilities(true),
			server.WithResourceCapabilities(false, false),
			server.WithRecovery(),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves MCP over SSE on port until ctx is canceled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))
	allowAll := cors.AllowAll()

	mux := http.NewServeMux()
	mux.Handle("/sse", allowAll.Handler(sseServer.SSEHandler()))
	mux.Handle("/message", allowAll.Handler(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func (s *Server) registerTools() {
	evaluateTool := mcp.NewTool("evaluate_expression",
		mcp.WithDescription("Evaluate an arithmetic expression such as 2+3*4 or (1+2)^3."),
		mcp.WithString("expression", mcp.Required(), mcp.Description("Expression using digits, + - * / ^ and parentheses")),
		mcp.WithOutputSchema[EvaluateResponse](),
	)
	s.mcpServer.AddTool(evaluateTool, mcp.NewStructuredToolHandler(s.handleEvaluate))

	functionTool := mcp.NewTool("apply_function",
		mcp.WithDescription("Apply a scientific function (sin, cos, tan, asin, acos, atan, ln, log, exp, 10pow, sqrt, fact) to a value."),
		mcp.WithString("function", mcp.Required(), mcp.Description("Function name or alias")),
		mcp.WithNumber("value", mcp.Required(), mcp.Description("Input value")),
		mcp.WithString("angle_mode", mcp.Enum(string(domain.Degrees), string(domain.Radians)), mcp.Description("Angle mode for trigonometric functions (default deg)")),
		mcp.WithOutputSchema[FunctionResponse](),
	)
	s.mcpServer.AddTool(functionTool, mcp.NewStructuredToolHandler(s.handleApplyFunction))

	pressTool := mcp.NewTool("press_keys",
		mcp.WithDescription("Press calculator keys on a session state and return the new state and view. See the abacus://keys resource for labels."),
		mcp.WithString("keys", mcp.Required(), mcp.Description("Key labels separated by spaces, e.g. \"12+3 =\" or \"90 sin\"")),
		mcp.WithString("state", mcp.Description("JSON state returned by a previous call (optional, starts cleared)")),
		mcp.WithOutputSchema[runner.RichResponse](),
	)
	s.mcpServer.AddTool(pressTool, mcp.NewStructuredToolHandler(s.handlePressKeys))
}

func (s *Server) handleEvaluate(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (EvaluateResponse, error) {
	expression, _ := args["expression"].(string)
	clean, err := runner.SanitizeInput(strings.TrimSpace(expression))
	if err != nil {
		s.logger.Warn("MCP evaluate: input rejected", "error", err, "size", len(expression))
		return EvaluateResponse{}, fmt.Errorf("input rejected: %w", err)
	}
	if clean == "" {
		return EvaluateResponse{}, errors.New("expression is required")
	}

	display, res := s.engine.Evaluate(clean)
	if !res.IsOk() {
		return EvaluateResponse{}, fmt.Errorf("%s: %s", res.Kind.Label(), res.Cause)
	}
	return EvaluateResponse{Expression: clean, Result: res.Value, Display: display}, nil
}

func (s *Server) handleApplyFunction(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (FunctionResponse, error) {
	name, _ := args["function"].(string)
	value, ok := args["value"].(float64)
	if !ok {
		return FunctionResponse{}, errors.New("value must be a number")
	}
	mode := domain.Degrees
	if m, _ := args["angle_mode"].(string); m != "" {
		mode = domain.AngleMode(strings.ToLower(m))
	}

	f, err := abacus.ParseFunction(name)
	if err != nil {
		return FunctionResponse{}, err
	}
	display, res := s.engine.Apply(f, value, mode)
	if !res.IsOk() {
		return FunctionResponse{}, fmt.Errorf("%s: %s", res.Kind.Label(), res.Cause)
	}
	return FunctionResponse{
		Function:  string(f),
		Value:     value,
		AngleMode: mode,
		Result:    res.Value,
		Display:   display,
		Category:  string(f.Category()),
	}, nil
}

func (s *Server) handlePressKeys(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (runner.RichResponse, error) {
	keys, _ := args["keys"].(string)

	state := s.engine.Start("mcp")
	if raw, _ := args["state"].(string); raw != "" {
		var loaded domain.State
		if err := json.Unmarshal([]byte(raw), &loaded); err != nil {
			return runner.RichResponse{}, fmt.Errorf("invalid state: %w", err)
		}
		if loaded.Buffer.Text == "" {
			loaded.Buffer.Text = domain.DefaultBuffer
		}
		if !loaded.Buffer.Valid() {
			return runner.RichResponse{}, fmt.Errorf("invalid state: buffer %q has characters outside %q", loaded.Buffer.Text, domain.BufferAlphabet)
		}
		loaded.Sealed = nil
		if !loaded.AngleMode.Valid() {
			loaded.AngleMode = domain.Degrees
		}
		state = &loaded
	}
	// Stateless calls cannot wait out the error dwell; the next call settles it.
	state.Settle()

	rich, err := runner.PressAndRender(ctx, s.engine, state, keys)
	if err != nil {
		s.logger.Warn("MCP press_keys: input rejected", "error", err)
		return runner.RichResponse{}, err
	}
	return *rich, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(KeysResourceURI, "Calculator keys",
		mcp.WithResourceDescription("Key labels accepted by press_keys"),
		mcp.WithMIMEType("text/markdown"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      KeysResourceURI,
				MIMEType: "text/markdown",
				Text:     runner.HelpText,
			},
		}, nil
	})
}
