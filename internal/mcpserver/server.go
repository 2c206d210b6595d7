// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the pocket add operations as tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/pocketpick/internal/apperr"
	"github.com/starford/pocketpick/internal/models"
	"github.com/starford/pocketpick/internal/pocket"
)

// Tool names.
const (
	ToolAdd     = "pocket_add"
	ToolAddFile = "pocket_add_file"
)

// Server wraps the MCP server with the pocket tools.
type Server struct {
	mcp     *server.MCPServer
	svc     *pocket.Service
	dbPath  string
	fixedDB bool
}

// New creates a new MCP server with all pocket tools registered.
// dbPath is used when a call does not name a database. When fixedDB is
// true the per-call "db" argument is ignored.
func New(svc *pocket.Service, dbPath string, fixedDB bool) *Server {
	s := &Server{svc: svc, dbPath: dbPath, fixedDB: fixedDB}

	s.mcp = server.NewMCPServer(
		"pocket-pick",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(mcp.NewTool(ToolAdd,
		mcp.WithDescription("Add a new item to your pocket pick database."),
		mcp.WithString("text", mcp.Required(), mcp.Description("Text of the item")),
		mcp.WithString("id", mcp.Description("Unique id for the item (a UUID is generated when empty)")),
		mcp.WithArray("tags", mcp.Description("Tags for the item; normalized to lowercase kebab-case"), mcp.WithStringItems()),
		mcp.WithString("db", mcp.Description("Path to the pocket pick database")),
	), s.add)

	s.mcp.AddTool(mcp.NewTool(ToolAddFile,
		mcp.WithDescription("Add the contents of a local text file to your pocket pick database."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path of the file to add")),
		mcp.WithString("id", mcp.Description("Unique id for the item (a UUID is generated when empty)")),
		mcp.WithArray("tags", mcp.Description("Tags for the item; normalized to lowercase kebab-case"), mcp.WithStringItems()),
		mcp.WithString("db", mcp.Description("Path to the pocket pick database")),
	), s.addFile)

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

func (s *Server) add(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := s.itemID(req)
	item, err := s.svc.Add(ctx, models.AddCommand{
		ID:     id,
		Text:   text,
		Tags:   req.GetStringSlice("tags", nil),
		DBPath: s.db(req),
	})
	if err != nil {
		return toolError(err, id), nil
	}
	return mcp.NewToolResultText(formatAdded(item)), nil
}

func (s *Server) addFile(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id := s.itemID(req)
	item, err := s.svc.AddFile(ctx, models.AddFileCommand{
		ID:       id,
		FilePath: filePath,
		Tags:     req.GetStringSlice("tags", nil),
		DBPath:   s.db(req),
	})
	if err != nil {
		return toolError(err, id), nil
	}
	return mcp.NewToolResultText(formatAdded(item)), nil
}

func (s *Server) itemID(req mcp.CallToolRequest) string {
	if id := strings.TrimSpace(req.GetString("id", "")); id != "" {
		return id
	}
	return uuid.NewString()
}

func (s *Server) db(req mcp.CallToolRequest) string {
	if s.fixedDB {
		return s.dbPath
	}
	return req.GetString("db", s.dbPath)
}

func toolError(err error, id string) *mcp.CallToolResult {
	if errors.Is(err, apperr.ErrAlreadyExists) {
		return mcp.NewToolResultError("item already exists: " + id)
	}
	return mcp.NewToolResultError(err.Error())
}

func formatAdded(item *models.PocketItem) string {
	return fmt.Sprintf("Added item with ID: %s\nText: %s\nTags: %s",
		item.ID, item.Text, strings.Join(item.Tags, ", "))
}
