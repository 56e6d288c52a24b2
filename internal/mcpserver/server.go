// Package mcpserver exposes tree queries as Model Context Protocol tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/agentic-research/arbor/api"
	"github.com/agentic-research/arbor/internal/graph"
)

// Tool names.
const (
	ToolGetAll         = "get_all"
	ToolGetItem        = "get_item"
	ToolGetChildren    = "get_children"
	ToolGetAllChildren = "get_all_children"
	ToolGetAllParents  = "get_all_parents"
)

// Server serves the query tools for one tree.
type Server struct {
	tree graph.Tree
	mcp  *server.MCPServer
}

// New builds an MCP server with every query tool registered.
func New(tree graph.Tree, version string) *Server {
	s := &Server{
		tree: tree,
		mcp:  server.NewMCPServer("arbor", version, server.WithToolCapabilities(false)),
	}

	s.mcp.AddTool(mcp.NewTool(ToolGetAll,
		mcp.WithDescription("Return every record in source order."),
	), s.handleGetAll)

	s.mcp.AddTool(idTool(ToolGetItem, "Return the record with the given id, or null."), s.handleGetItem)
	s.mcp.AddTool(idTool(ToolGetChildren, "Return the direct children of a record."), s.queryHandler(tree.Children))
	s.mcp.AddTool(idTool(ToolGetAllChildren, "Return every descendant of a record, level by level."), s.queryHandler(tree.AllChildren))
	s.mcp.AddTool(idTool(ToolGetAllParents, "Return the ancestors of a record, nearest first."), s.queryHandler(tree.AllParents))

	return s
}

func idTool(name, description string) mcp.Tool {
	return mcp.NewTool(name,
		mcp.WithDescription(description),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description(`Record id. Base-10 numbers are integer ids; use "root" for top-level records.`),
		),
		mcp.WithBoolean("string_id",
			mcp.Description("Treat a numeric id as a string id."),
		),
	)
}

// ServeStdio runs the server on stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCP returns the underlying server.
func (s *Server) MCP() *server.MCPServer {
	return s.mcp
}

func (s *Server) handleGetAll(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.tree.All())
}

func (s *Server) handleGetItem(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requestID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, found, err := s.tree.Item(id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !found {
		return mcp.NewToolResultText("null"), nil
	}
	return jsonResult(item)
}

func (s *Server) queryHandler(query func(any) ([]api.Item, error)) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := requestID(req)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		items, err := query(id)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(items)
	}
}

// requestID reads the id argument. JSON numbers are accepted as well as
// strings.
func requestID(req mcp.CallToolRequest) (api.ID, error) {
	args := req.GetArguments()
	forceString, _ := args["string_id"].(bool)

	switch v := args["id"].(type) {
	case string:
		return api.ParseArg(v, forceString), nil
	case nil:
		return api.ID{}, fmt.Errorf("missing required argument: id")
	default:
		id, ok := api.ParseID(v)
		if !ok {
			return api.ID{}, fmt.Errorf("invalid id argument: %v", v)
		}
		if forceString {
			return api.StringID(id.String()), nil
		}
		return id, nil
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
