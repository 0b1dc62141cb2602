package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/oakmund/crier/pkg/connector"
)

const (
	clientName      = "crier"
	clientVersion   = "0.1.0"
	protocolVersion = "2024-11-05"
)

// Session is one stateful protocol conversation: initialize once, call one
// tool, close. Sessions are never shared between fetches.
type Session interface {
	Initialize(ctx context.Context) error
	CallTool(ctx context.Context, tool string, args map[string]any) (any, error)
	Close() error
}

// SessionFactory opens a new protocol session against a server subprocess.
type SessionFactory func(ctx context.Context, command string, env map[string]string, args []string) (Session, error)

// ProtocolExecutor executes fetches over the stateful request/response
// protocol. Every fetch gets its own session, even when concurrent fetches
// target the same connector: the channel is stateful and must not be shared.
type ProtocolExecutor struct {
	newSession SessionFactory
}

type ProtocolOption func(*ProtocolExecutor)

// WithSessionFactory overrides how sessions are opened (used by tests).
func WithSessionFactory(factory SessionFactory) ProtocolOption {
	return func(e *ProtocolExecutor) {
		e.newSession = factory
	}
}

func NewProtocolExecutor(opts ...ProtocolOption) *ProtocolExecutor {
	e := &ProtocolExecutor{
		newSession: newStdioSession,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs one operation against the connector's protocol server.
func (e *ProtocolExecutor) Execute(ctx context.Context, execCtx connector.ExecutionContext) (any, error) {
	def := execCtx.Connector

	env := make(map[string]string, len(def.Env)+1)
	for k, v := range def.Env {
		env[k] = v
	}
	// The subprocess receives its secret under the connector's declared
	// credential variable.
	if def.CredentialRef != "" {
		if token, ok := execCtx.Credentials["token"]; ok {
			env[def.CredentialRef] = token
		}
	}

	return e.Call(ctx, def.Command, env, def.Args, execCtx.Operation, execCtx.Args)
}

// Call opens a session, performs a single tool call, and closes the session
// on every exit path. Legacy sources use this entry point directly with
// their embedded connection parameters.
func (e *ProtocolExecutor) Call(ctx context.Context, command string, env map[string]string, args []string, tool string, toolArgs map[string]any) (_ any, err error) {
	session, err := e.newSession(ctx, command, env, args)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil && err == nil {
			slog.Debug("Protocol session close failed", "command", command, "error", closeErr)
		}
	}()

	if err := session.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}

	return session.CallTool(ctx, tool, toolArgs)
}

// stdioSession is the production Session over an MCP stdio subprocess.
type stdioSession struct {
	client *client.Client
}

func newStdioSession(ctx context.Context, command string, env map[string]string, args []string) (Session, error) {
	mcpClient, err := client.NewStdioMCPClient(command, envSlice(env), args...)
	if err != nil {
		return nil, err
	}

	if err := mcpClient.Start(ctx); err != nil {
		_ = mcpClient.Close()
		return nil, err
	}

	return &stdioSession{client: mcpClient}, nil
}

func (s *stdioSession) Initialize(ctx context.Context) error {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    clientName,
		Version: clientVersion,
	}
	initReq.Params.ProtocolVersion = protocolVersion

	_, err := s.client.Initialize(ctx, initReq)
	return err
}

func (s *stdioSession) CallTool(ctx context.Context, tool string, args map[string]any) (any, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = tool
	req.Params.Arguments = args

	resp, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, err
	}

	return parseToolResult(resp)
}

func (s *stdioSession) Close() error {
	return s.client.Close()
}

// parseToolResult converts a tool response into a JSON value. Text content
// that parses as JSON is returned structured; otherwise the raw text is
// returned as a string.
func parseToolResult(resp *mcp.CallToolResult) (any, error) {
	var texts []string
	for _, content := range resp.Content {
		if textContent, ok := content.(mcp.TextContent); ok {
			texts = append(texts, textContent.Text)
		}
	}

	if resp.IsError {
		if len(texts) > 0 {
			return nil, fmt.Errorf("%s", texts[0])
		}
		return nil, fmt.Errorf("tool call failed")
	}

	switch len(texts) {
	case 0:
		return nil, nil
	case 1:
		return decodeText(texts[0]), nil
	default:
		values := make([]any, len(texts))
		for i, text := range texts {
			values[i] = decodeText(text)
		}
		return values, nil
	}
}

func decodeText(text string) any {
	var value any
	if err := json.Unmarshal([]byte(text), &value); err == nil {
		return value
	}
	return text
}

func envSlice(env map[string]string) []string {
	if len(env) == 0 {
		return nil
	}
	result := make([]string, 0, len(env))
	for k, v := range env {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}
