package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Dispatcher routes tool calls to the Up client and wraps every outcome in
// a CallToolResult.
type Dispatcher struct {
	api    API
	tools  []*EnrichedTool
	byName map[string]*EnrichedTool
	logger *slog.Logger
}

// NewDispatcher builds a dispatcher over the full tool catalog. A nil
// logger discards output.
func NewDispatcher(api API, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tools := Catalog()
	byName := make(map[string]*EnrichedTool, len(tools))
	for _, tool := range tools {
		byName[tool.Name] = tool
	}

	return &Dispatcher{api: api, tools: tools, byName: byName, logger: logger}
}

// Tools returns the catalog in presentation order.
func (d *Dispatcher) Tools() []*EnrichedTool {
	return d.tools
}

// Call invokes the named tool. It never returns a nil result; failures are
// reported in the result itself with IsError set.
func (d *Dispatcher) Call(ctx context.Context, name string, args Arguments) *mcp.CallToolResult {
	tool, ok := d.byName[name]
	if !ok {
		d.logger.Warn("unknown tool", "tool", name)
		return errorResult(fmt.Errorf("Unknown tool: %s", name))
	}

	start := time.Now()
	result, err := tool.invoke(ctx, d.api, args)
	if err != nil {
		d.logger.Warn("tool call failed", "tool", name, "duration", time.Since(start), "error", err)
		return errorResult(err)
	}

	text, err := renderResult(result)
	if err != nil {
		return errorResult(fmt.Errorf("failed to encode result: %w", err))
	}

	d.logger.Debug("tool call", "tool", name, "duration", time.Since(start))
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// GenerateTools registers every catalog entry on server, routed through d.
// Arguments are coerced by d rather than validated by the SDK, and calls to
// tools outside the catalog are answered by d too.
func (d *Dispatcher) GenerateTools(server *mcp.Server) {
	for _, tool := range d.tools {
		server.AddTool(tool.Tool, d.handlerFor(tool.Name))
	}
	server.AddReceivingMiddleware(d.unknownTools)
}

func (d *Dispatcher) handlerFor(name string) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var raw json.RawMessage
		if req != nil && req.Params != nil {
			raw = req.Params.Arguments
		}

		args, err := decodeArguments(raw)
		if err != nil {
			return errorResult(err), nil
		}
		return d.Call(ctx, name, args), nil
	}
}

func (d *Dispatcher) unknownTools(next mcp.MethodHandler) mcp.MethodHandler {
	return func(ctx context.Context, method string, req mcp.Request) (mcp.Result, error) {
		if method != methodCallTool {
			return next(ctx, method, req)
		}

		call, ok := req.(*mcp.CallToolRequest)
		if !ok || call.Params == nil {
			return next(ctx, method, req)
		}
		if _, known := d.byName[call.Params.Name]; known {
			return next(ctx, method, req)
		}
		return d.Call(ctx, call.Params.Name, nil), nil
	}
}

const methodCallTool = "tools/call"

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + err.Error()}},
		IsError: true,
	}
}

// renderResult prefers the upstream body as received, indented. Results
// that were not read from the API are encoded from their typed form.
func renderResult(v interface{}) (string, error) {
	if doc, ok := v.(interface{ Body() json.RawMessage }); ok && len(doc.Body()) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, bytes.TrimSpace(doc.Body()), "", "  "); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return encodeJSON(v)
}

// encodeJSON renders v with two-space indentation and without HTML
// escaping.
func encodeJSON(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
