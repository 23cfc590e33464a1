package mcp

import (
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
)

// safeInvokeTool turns a panicking tool handler into an error result so the
// stdio transport stays open.
func safeInvokeTool(name string, h func() (*mcp.CallToolResult, error)) (resp *mcp.CallToolResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			msg := fmt.Sprintf("tool panic: %v", r)
			slog.Error("mcp tool panicked", "tool", name, "panic", r)
			resp = mcp.NewToolResultError(msg)
			err = nil
		}
	}()
	return h()
}
