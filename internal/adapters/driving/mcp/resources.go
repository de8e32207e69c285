package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

const (
	// URIScheme is the custom URI scheme for idlekit resources.
	uriScheme = "idlekit://"
)

// sessionsResource is the JSON body of idlekit://sessions.
type sessionsResource struct {
	Running      []int                    `json:"running"`
	Tracked      []domain.SessionSnapshot `json:"tracked"`
	StopFailures []domain.StopRecord      `json:"stop_failures"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "sessions",
		Name:        "sessions",
		Description: "Running titles, tracked sessions with their remaining budget, and recent stop failures",
		MIMEType:    "application/json",
	}, s.handleSessionsResource)
}

// handleSessionsResource returns the session registry state.
func (s *Server) handleSessionsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	running, err := s.ports.Registry.Running(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	body := sessionsResource{
		Running:      running,
		Tracked:      s.ports.Registry.Snapshot(),
		StopFailures: s.ports.Registry.StopFailures(),
	}
	if body.Running == nil {
		body.Running = []int{}
	}
	if body.Tracked == nil {
		body.Tracked = []domain.SessionSnapshot{}
	}
	if body.StopFailures == nil {
		body.StopFailures = []domain.StopRecord{}
	}

	data, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling sessions: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
