// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the folder-note linker for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/foldernote/internal/linkservice"
)

// ConventionsURI is the resource describing the folder-note convention.
const ConventionsURI = "foldernote://conventions"

// Server wraps the MCP server with the linker tools.
type Server struct {
	mcp *server.MCPServer
	svc *linkservice.Service
}

// New creates a new MCP server with all tools registered.
func New(svc *linkservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"foldernote",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("refresh_folder",
		mcp.WithDescription("Set the parent field of every document under a folder to its folder note. "+
			"Read the conventions first via the "+ConventionsURI+" resource."),
		mcp.WithString("folder", mcp.Description("Folder path relative to the vault root (empty for the whole vault)")),
	), s.refreshFolder)

	s.mcp.AddTool(mcp.NewTool("resolve_parent",
		mcp.WithDescription("Compute the parent note of a document without modifying it. "+
			"Returns the parent link or the reason none applies."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Document path (e.g. Projects/plan.md)")),
	), s.resolveParent)

	s.mcp.AddTool(mcp.NewTool("list_children",
		mcp.WithDescription("List the documents whose parent link points at the given folder note."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Path of the folder note (e.g. Projects/Projects.md)")),
	), s.listChildren)

	s.mcp.AddTool(mcp.NewTool("get_settings",
		mcp.WithDescription("Return the linker settings: enabled, verbose logging, last refreshed folder, allowed paths."),
	), s.getSettings)

	// Resource: folder-note conventions.
	s.mcp.AddResource(
		mcp.NewResource(ConventionsURI, "Folder Note Conventions",
			mcp.WithResourceDescription("How folder notes and parent links are laid out in the vault."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readConventionsResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) refreshFolder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	folder := req.GetString("folder", "")
	report, err := s.svc.Refresh(ctx, folder)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(report)
}

func (s *Server) resolveParent(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	res, err := s.svc.Resolve(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if res.Link == "" {
		return mcp.NewToolResultText(fmt.Sprintf("no parent for %s: %s", res.Path, res.Reason)), nil
	}
	return jsonResult(res)
}

func (s *Server) listChildren(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	links, err := s.svc.Children(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(links) == 0 {
		return mcp.NewToolResultText("no children found"), nil
	}
	return jsonResult(links)
}

func (s *Server) getSettings(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.svc.Settings(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(st)
}

func (s *Server) readConventionsResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ConventionsURI,
			MIMEType: "text/markdown",
			Text:     Conventions,
		},
	}, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
