// Package mcp calls the external talent analysis tool over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/talentrag/internal/domain"
	"github.com/kailas-cloud/talentrag/internal/domain/analysis"
	"github.com/kailas-cloud/talentrag/internal/retry"
	"github.com/kailas-cloud/talentrag/internal/version"
)

// DefaultTool is the analysis tool name exposed by the analysis server.
const DefaultTool = "analyze_talent"

// DefaultTimeout bounds a single tool call.
const DefaultTimeout = 60 * time.Second

// Tool argument names.
const (
	ArgContext         = "context"
	ArgAnalysisType    = "analysis_type"
	ArgCallerRole      = "caller_role"
	ArgUrgency         = "urgency"
	ArgConfidentiality = "confidentiality_level"
)

// Config holds the analysis tool client settings.
type Config struct {
	URL     string
	Tool    string
	APIKey  string
	Timeout time.Duration
	Retry   retry.Config
	Logger  *zap.Logger
}

// Dialer creates a not yet started MCP client.
type Dialer func() (*client.Client, error)

// AnalysisClient calls the analysis tool, initializing the MCP session on first use.
type AnalysisClient struct {
	mu      sync.Mutex
	session *client.Client
	dial    Dialer
	tool    string
	timeout time.Duration
	retry   retry.Config
	logger  *zap.Logger
}

// NewAnalysisClient creates a client for a streamable HTTP analysis server.
func NewAnalysisClient(cfg Config) *AnalysisClient {
	url := cfg.URL
	headers := map[string]string{"User-Agent": version.UserAgent()}
	if cfg.APIKey != "" {
		headers["Authorization"] = "Bearer " + cfg.APIKey
	}
	dial := func() (*client.Client, error) {
		c, err := client.NewStreamableHttpClient(url, transport.WithHTTPHeaders(headers))
		if err != nil {
			return nil, fmt.Errorf("create mcp client: %w", err)
		}
		return c, nil
	}
	return NewAnalysisClientWithDialer(cfg, dial)
}

// NewAnalysisClientWithDialer creates a client with a custom transport (e.g. in-process).
func NewAnalysisClientWithDialer(cfg Config, dial Dialer) *AnalysisClient {
	tool := cfg.Tool
	if tool == "" {
		tool = DefaultTool
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnalysisClient{
		dial:    dial,
		tool:    tool,
		timeout: timeout,
		retry:   cfg.Retry,
		logger:  logger,
	}
}

// Analyze sends the serialized context to the analysis tool.
// Tool-reported failures and exhausted transport retries wrap domain.ErrAnalysisFailed.
func (c *AnalysisClient) Analyze(ctx context.Context, req analysis.ToolRequest) (analysis.ToolResult, error) {
	call := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name: c.tool,
			Arguments: map[string]any{
				ArgContext:         req.Context,
				ArgAnalysisType:    string(req.AnalysisType),
				ArgCallerRole:      req.CallerRole,
				ArgUrgency:         string(req.Urgency),
				ArgConfidentiality: string(req.Confidentiality),
			},
		},
	}

	onRetry := func(attempt int, err error, delay time.Duration) {
		c.logger.Warn("Analysis tool call failed, retrying",
			zap.String("tool", c.tool),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err),
		)
	}

	res, err := retry.Do(ctx, c.retry, isRetryable, onRetry, func(ctx context.Context) (*mcp.CallToolResult, error) {
		return c.callOnce(ctx, call)
	})
	if err != nil {
		return analysis.ToolResult{}, fmt.Errorf("%w: %w", domain.ErrAnalysisFailed, err)
	}

	text := firstText(res.Content)
	if res.IsError {
		return analysis.ToolResult{}, fmt.Errorf("%w: tool %s: %s", domain.ErrAnalysisFailed, c.tool, text)
	}

	return analysis.ToolResult{Text: text, Usage: usageFrom(res.StructuredContent)}, nil
}

func (c *AnalysisClient) callOnce(ctx context.Context, call mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	session, err := c.ensureSession(ctx)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	res, err := session.CallTool(callCtx, call)
	if err != nil {
		// The session may be stale; the next attempt starts a new one.
		c.reset(session)
		return nil, fmt.Errorf("call tool %s: %w", c.tool, err)
	}
	return res, nil
}

func (c *AnalysisClient) ensureSession(ctx context.Context) (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session != nil {
		return c.session, nil
	}

	session, err := c.dial()
	if err != nil {
		return nil, err
	}
	if err := session.Start(context.WithoutCancel(ctx)); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("start mcp session: %w", err)
	}

	initCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	init := mcp.InitializeRequest{}
	init.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	init.Params.ClientInfo = mcp.Implementation{Name: version.Product, Version: version.Version}
	if _, err := session.Initialize(initCtx, init); err != nil {
		_ = session.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	c.logger.Info("Analysis tool session initialized", zap.String("tool", c.tool))
	c.session = session
	return session, nil
}

func (c *AnalysisClient) reset(stale *client.Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == stale {
		_ = c.session.Close()
		c.session = nil
	}
}

// Close terminates the MCP session if one is open.
func (c *AnalysisClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	if err != nil {
		return fmt.Errorf("close mcp session: %w", err)
	}
	return nil
}

func isRetryable(err error) bool {
	return !errors.Is(err, context.Canceled)
}

func firstText(content []mcp.Content) string {
	for _, item := range content {
		switch tc := item.(type) {
		case mcp.TextContent:
			return tc.Text
		case *mcp.TextContent:
			return tc.Text
		}
	}
	return ""
}

// usageFrom extracts structuredContent.usage as a generic map.
func usageFrom(structured any) map[string]any {
	if structured == nil {
		return nil
	}
	m, ok := structured.(map[string]any)
	if !ok {
		raw, err := json.Marshal(structured)
		if err != nil || json.Unmarshal(raw, &m) != nil {
			return nil
		}
	}
	usage, _ := m["usage"].(map[string]any)
	return usage
}

