// Package mcp exposes request handlers as Model Context Protocol tools.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/callumgare/media-finder-cli/internal/app"
	"github.com/callumgare/media-finder-cli/internal/resolver"
	"github.com/callumgare/media-finder-cli/mediafinder"
	"github.com/callumgare/media-finder-cli/schema"
)

const (
	serverName = "media-finder"

	// SecretsSetArg selects a secrets set for one call.
	SecretsSetArg = "secretsSet"
)

var unsafeToolChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// QueryRunner fetches one page for a tool call.
type QueryRunner interface {
	RunQuery(ctx context.Context, finder *mediafinder.Finder, in app.QueryInput) (*mediafinder.Response, error)
}

// Filter limits the exposed tools to one source and, optionally, one of
// its handlers. The zero Filter exposes everything.
type Filter struct {
	SourceID         string
	RequestHandlerID string
}

func (f Filter) allows(src *mediafinder.Source, h *mediafinder.RequestHandler) bool {
	if f.SourceID != "" && f.SourceID != src.ID {
		return false
	}
	return f.RequestHandlerID == "" || f.RequestHandlerID == h.ID
}

type tool struct {
	def     mcp.Tool
	source  string
	handler string
	options []resolver.Option
}

type Server struct {
	finder *mediafinder.Finder
	runner QueryRunner
	tools  []tool
	mcp    *server.MCPServer
}

// NewServer registers one tool per request handler of finder. Handlers
// whose request schema is not an object are skipped with a warning.
func NewServer(finder *mediafinder.Finder, runner QueryRunner, version string, filter Filter) *Server {
	s := &Server{
		finder: finder,
		runner: runner,
		mcp:    server.NewMCPServer(serverName, version, server.WithLogging()),
	}
	for _, src := range finder.Sources() {
		for _, h := range src.RequestHandlers {
			if !filter.allows(src, h) {
				continue
			}
			opts, err := resolver.DescribeOptions(h.RequestSchema)
			if err != nil {
				slog.Warn("skipping request handler", "source", src.ID, "handler", h.ID, "error", err)
				continue
			}
			t := tool{
				def:     toolFor(src, h, opts),
				source:  src.ID,
				handler: h.ID,
				options: opts,
			}
			s.tools = append(s.tools, t)
			s.mcp.AddTool(t.def, s.handle(t))
		}
	}
	return s
}

// Tools lists the registered tool definitions in registration order.
func (s *Server) Tools() []mcp.Tool {
	out := make([]mcp.Tool, 0, len(s.tools))
	for _, t := range s.tools {
		out = append(out, t.def)
	}
	return out
}

// Call dispatches req to the tool it names.
func (s *Server) Call(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	i := slices.IndexFunc(s.tools, func(t tool) bool { return t.def.Name == req.Params.Name })
	if i < 0 {
		return mcp.NewToolResultError(fmt.Sprintf("unknown tool %q", req.Params.Name)), nil
	}
	return s.handle(s.tools[i])(ctx, req)
}

// ServeStdio serves the tools over stdin/stdout until the client hangs up.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// ToolName is the tool name for a source and handler pair.
func ToolName(sourceID, handlerID string) string {
	return unsafeToolChars.ReplaceAllString(sourceID+"_"+handlerID, "_")
}

func toolFor(src *mediafinder.Source, h *mediafinder.RequestHandler, opts []resolver.Option) mcp.Tool {
	desc := h.Description
	if desc == "" {
		desc = fmt.Sprintf("Find media with the %s request handler of %s.", h.ID, src.DisplayName)
	}
	toolOpts := []mcp.ToolOption{mcp.WithDescription(desc)}
	for _, o := range opts {
		toolOpts = append(toolOpts, property(o))
	}
	toolOpts = append(toolOpts, mcp.WithString(SecretsSetArg,
		mcp.Description("Name of the secrets set to read API credentials from"),
	))
	return mcp.NewTool(ToolName(src.ID, h.ID), toolOpts...)
}

func property(o resolver.Option) mcp.ToolOption {
	var props []mcp.PropertyOption
	desc := o.Description
	if o.ValueType == resolver.UnknownType {
		desc = jsonHint(desc)
	}
	if desc != "" {
		props = append(props, mcp.Description(desc))
	}
	if o.Required {
		props = append(props, mcp.Required())
	}

	switch o.ValueType {
	case string(schema.TypeNumber):
		if len(o.Choices) > 0 {
			props = append(props, enum(o.Choices, numberChoice))
		}
		if f, ok := toFloat(o.Default); o.HasDefault && ok {
			props = append(props, mcp.DefaultNumber(f))
		}
		return mcp.WithNumber(o.Name, props...)
	case string(schema.TypeBoolean):
		if len(o.Choices) > 0 {
			props = append(props, enum(o.Choices, boolChoice))
		}
		if b, ok := o.Default.(bool); o.HasDefault && ok {
			props = append(props, mcp.DefaultBool(b))
		}
		return mcp.WithBoolean(o.Name, props...)
	case resolver.UnknownType:
		return mcp.WithString(o.Name, props...)
	default:
		// Mixed literal unions travel as strings and are converted back in
		// tool.request.
		if len(o.Choices) > 0 {
			props = append(props, mcp.Enum(o.Choices...))
		}
		if v, ok := o.Default.(string); o.HasDefault && ok {
			props = append(props, mcp.DefaultString(v))
		}
		return mcp.WithString(o.Name, props...)
	}
}

// enum sets a typed enum; choices that do not convert are left out.
func enum(choices []string, convert func(string) (any, bool)) mcp.PropertyOption {
	return func(prop map[string]any) {
		values := make([]any, 0, len(choices))
		for _, c := range choices {
			if v, ok := convert(c); ok {
				values = append(values, v)
			}
		}
		prop["enum"] = values
	}
}

func numberChoice(s string) (any, bool) {
	f, err := strconv.ParseFloat(s, 64)
	return f, err == nil
}

func boolChoice(s string) (any, bool) {
	b, err := strconv.ParseBool(s)
	return b, err == nil
}

// mixedValue converts a string argument of a mixed literal union back to
// the literal it names.
func mixedValue(o resolver.Option, raw string) any {
	if !slices.Contains(o.Choices, raw) {
		return raw
	}
	types := strings.Split(o.ValueType, " | ")
	if slices.Contains(types, string(schema.TypeNumber)) {
		if v, ok := numberChoice(raw); ok {
			return v
		}
	}
	if slices.Contains(types, string(schema.TypeBoolean)) {
		if v, ok := boolChoice(raw); ok {
			return v
		}
	}
	if raw == "null" && slices.Contains(types, string(schema.ValueNull)) {
		return nil
	}
	return raw
}

func jsonHint(desc string) string {
	if desc == "" {
		return "JSON encoded value"
	}
	return desc + " (JSON encoded value)"
}

func (s *Server) handle(t tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return safeInvokeTool(t.def.Name, func() (*mcp.CallToolResult, error) {
			request, err := t.request(req.GetArguments())
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			secretsSet, _ := req.GetArguments()[SecretsSetArg].(string)
			resp, err := s.runner.RunQuery(ctx, s.finder, app.QueryInput{
				Request:    request,
				SecretsSet: secretsSet,
				CacheMode:  mediafinder.CacheAlways,
			})
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			body, err := json.MarshalIndent(resp, "", "  ")
			if err != nil {
				return nil, err
			}
			return mcp.NewToolResultText(string(body)), nil
		})
	}
}

// request builds the media finder request from tool arguments. Unknown
// arguments are dropped; options typed "unknown" arrive JSON encoded.
func (t tool) request(args map[string]any) (map[string]any, error) {
	request := map[string]any{"source": t.source, "queryType": t.handler}
	for _, o := range t.options {
		v, ok := args[o.Name]
		if !ok || v == nil {
			continue
		}
		if o.ValueType == resolver.UnknownType {
			if raw, isString := v.(string); isString {
				var decoded any
				if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
					return nil, fmt.Errorf("argument %s: invalid JSON: %w", o.Name, err)
				}
				v = decoded
			}
		}
		request[o.Name] = v
	}
	return request, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
