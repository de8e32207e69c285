package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/idlekit/internal/core/domain"
)

// TitleInput identifies a title.
type TitleInput struct {
	TitleID int    `json:"title_id" jsonschema:"the numeric title id"`
	Name    string `json:"name,omitempty" jsonschema:"display name passed to the host"`
}

// EmptyInput is the input of tools without arguments.
type EmptyInput struct{}

// TitleOutput is a title in tool output.
type TitleOutput struct {
	ID   int    `json:"id"`
	Name string `json:"name,omitempty"`
}

// StartIdleOutput is the output of start_idle.
type StartIdleOutput struct {
	Started        bool `json:"started"`
	AlreadyRunning bool `json:"already_running"`
	BudgetMinutes  int  `json:"budget_minutes"`
}

// StatusOutput acknowledges a command.
type StatusOutput struct {
	Status string `json:"status"`
}

// LaunchOutput is the output of trigger_auto_idle.
type LaunchOutput struct {
	Started        []TitleOutput `json:"started"`
	AlreadyRunning []TitleOutput `json:"already_running"`
	Failed         []TitleOutput `json:"failed"`
	Attempts       int           `json:"attempts"`
	GaveUp         bool          `json:"gave_up"`
}

// FarmingOutput is the output of start_farming.
type FarmingOutput struct {
	RunID   string          `json:"run_id,omitempty"`
	Profile string          `json:"profile,omitempty"`
	Targets []FarmingTarget `json:"targets"`
	Failed  []TitleOutput   `json:"failed"`
}

// FarmingTarget is one farmed title.
type FarmingTarget struct {
	Title     TitleOutput `json:"title"`
	Remaining int         `json:"remaining"`
	Target    int         `json:"target"`
}

// UnlockOutput is the output of unlock_status.
type UnlockOutput struct {
	Phase               string       `json:"phase"`
	RunID               string       `json:"run_id,omitempty"`
	CurrentTitle        *TitleOutput `json:"current_title,omitempty"`
	UnlockedCount       int          `json:"unlocked_count"`
	RemainingForCurrent int          `json:"remaining_for_current"`
	TotalUnlocked       int          `json:"total_unlocked"`
	QueueLength         int          `json:"queue_length"`
	NextUnlockIn        string       `json:"next_unlock_in,omitempty"`
}

// ToolInfo names one MCP tool.
type ToolInfo struct {
	Name        string
	Description string
}

// Tools lists every tool in registration order.
var Tools = []ToolInfo{
	{"start_idle", "Start idling a title. The idle budget from settings applies."},
	{"stop_idle", "Stop idling a title"},
	{"trigger_auto_idle", "Start every title of the auto-idle list, retrying failures"},
	{"start_farming", "Validate community credentials and start farming card drops"},
	{"stop_farming", "Stop farming card drops"},
	{"start_unlock", "Start the achievement unlocker in the background"},
	{"unlock_status", "Show the achievement unlocker state"},
	{"cancel_unlock", "Cancel the active achievement unlock run"},
}

func tool(name string) *mcp.Tool {
	for _, t := range Tools {
		if t.Name == name {
			return &mcp.Tool{Name: t.Name, Description: t.Description}
		}
	}
	panic("mcp: unknown tool " + name)
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, tool("start_idle"), s.handleStartIdle)
	mcp.AddTool(s.server, tool("stop_idle"), s.handleStopIdle)
	mcp.AddTool(s.server, tool("trigger_auto_idle"), s.handleTriggerAutoIdle)
	mcp.AddTool(s.server, tool("start_farming"), s.handleStartFarming)
	mcp.AddTool(s.server, tool("stop_farming"), s.handleStopFarming)
	mcp.AddTool(s.server, tool("start_unlock"), s.handleStartUnlock)
	mcp.AddTool(s.server, tool("unlock_status"), s.handleUnlockStatus)
	mcp.AddTool(s.server, tool("cancel_unlock"), s.handleCancelUnlock)
}

func (s *Server) handleStartIdle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TitleInput,
) (*mcp.CallToolResult, StartIdleOutput, error) {
	if input.TitleID <= 0 {
		return nil, StartIdleOutput{}, fmt.Errorf("%w: title_id must be positive", domain.ErrInvalidInput)
	}
	result, err := s.ports.Registry.Start(ctx, domain.Title{ID: input.TitleID, Name: input.Name}, true)
	if err != nil {
		return nil, StartIdleOutput{}, err
	}
	return nil, StartIdleOutput{
		Started:        result.Started,
		AlreadyRunning: result.AlreadyRunning,
		BudgetMinutes:  result.BudgetMinutes,
	}, nil
}

func (s *Server) handleStopIdle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input TitleInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if input.TitleID <= 0 {
		return nil, StatusOutput{}, fmt.Errorf("%w: title_id must be positive", domain.ErrInvalidInput)
	}
	s.ports.Registry.Stop(ctx, domain.Title{ID: input.TitleID, Name: input.Name})
	return nil, StatusOutput{Status: "stopped"}, nil
}

func (s *Server) handleTriggerAutoIdle(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, LaunchOutput, error) {
	if s.ports.Launcher == nil {
		return nil, LaunchOutput{}, ErrServiceUnavailable
	}
	report, err := s.ports.Launcher.Trigger(ctx, true)
	if err != nil {
		return nil, LaunchOutput{}, err
	}
	return nil, LaunchOutput{
		Started:        titlesOutput(report.Started),
		AlreadyRunning: titlesOutput(report.AlreadyRunning),
		Failed:         titlesOutput(report.Failed),
		Attempts:       report.Attempts,
		GaveUp:         report.GaveUp,
	}, nil
}

func (s *Server) handleStartFarming(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, FarmingOutput, error) {
	if s.ports.Farming == nil {
		return nil, FarmingOutput{}, ErrServiceUnavailable
	}
	report, err := s.ports.Farming.Start(ctx)
	if err != nil {
		return nil, FarmingOutput{}, err
	}

	output := FarmingOutput{
		RunID:   report.RunID,
		Targets: make([]FarmingTarget, len(report.Targets)),
		Failed:  titlesOutput(report.Failed),
	}
	if report.Profile != nil {
		output.Profile = report.Profile.Name
	}
	for i, t := range report.Targets {
		output.Targets[i] = FarmingTarget{
			Title:     titleOutput(t.Title),
			Remaining: t.Remaining,
			Target:    t.Target,
		}
	}
	return nil, output, nil
}

func (s *Server) handleStopFarming(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Farming == nil {
		return nil, StatusOutput{}, ErrServiceUnavailable
	}
	s.ports.Farming.Stop(ctx)
	return nil, StatusOutput{Status: "stopped"}, nil
}

func (s *Server) handleStartUnlock(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Unlocker == nil {
		return nil, StatusOutput{}, ErrServiceUnavailable
	}
	if err := s.ports.Unlocker.Start(ctx); err != nil {
		return nil, StatusOutput{}, err
	}
	return nil, StatusOutput{Status: "started"}, nil
}

func (s *Server) handleUnlockStatus(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, UnlockOutput, error) {
	if s.ports.Unlocker == nil {
		return nil, UnlockOutput{}, ErrServiceUnavailable
	}
	snap := s.ports.Unlocker.Snapshot()
	output := UnlockOutput{
		Phase:               snap.Phase.String(),
		RunID:               snap.RunID,
		UnlockedCount:       snap.UnlockedCount,
		RemainingForCurrent: snap.RemainingForCurrent,
		TotalUnlocked:       snap.TotalUnlocked,
		QueueLength:         snap.QueueLength,
	}
	if snap.CurrentTitle != nil {
		t := titleOutput(*snap.CurrentTitle)
		output.CurrentTitle = &t
	}
	if !snap.NextUnlockAt.IsZero() {
		output.NextUnlockIn = domain.FormatCountdown(snap.NextUnlockEta)
	}
	return nil, output, nil
}

func (s *Server) handleCancelUnlock(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ EmptyInput,
) (*mcp.CallToolResult, StatusOutput, error) {
	if s.ports.Unlocker == nil {
		return nil, StatusOutput{}, ErrServiceUnavailable
	}
	s.ports.Unlocker.Cancel()
	return nil, StatusOutput{Status: "cancelled"}, nil
}

func titleOutput(t domain.Title) TitleOutput {
	return TitleOutput{ID: t.ID, Name: t.Name}
}

func titlesOutput(titles []domain.Title) []TitleOutput {
	out := make([]TitleOutput, len(titles))
	for i, t := range titles {
		out[i] = titleOutput(t)
	}
	return out
}
