package main

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/scratchd/scratchd/internal/control/client"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve control operations as MCP tools over stdio",
	Long:  "mcp exposes the daemon's control operations as Model Context Protocol tools so editors and assistants can drive scratchd. Requests are forwarded to the control socket; no daemon logic runs here.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		socket, _ := rootCmd.PersistentFlags().GetString("socket")
		cli, err := client.New(socket)
		if err != nil {
			return err
		}
		return newMCPBridge(cli).serve()
	},
}

// mcpBridge translates MCP tool calls into control client requests.
type mcpBridge struct {
	cli *client.Client
	mcp *mcpserver.MCPServer
}

func newMCPBridge(cli *client.Client) *mcpBridge {
	b := &mcpBridge{cli: cli}
	b.mcp = mcpserver.NewMCPServer("scratchctl", version)
	b.registerTools()
	return b
}

func (b *mcpBridge) serve() error {
	return mcpserver.ServeStdio(b.mcp)
}

func (b *mcpBridge) registerTools() {
	b.mcp.AddTool(
		mcp.NewTool("project_get",
			mcp.WithDescription("Report the active project and the known project list"),
		),
		b.handleProjectGet,
	)

	b.mcp.AddTool(
		mcp.NewTool("project_set",
			mcp.WithDescription("Switch the active project and sweep window visibility"),
			mcp.WithString("name", mcp.Description("Project to activate"), mcp.Required()),
		),
		b.handleProjectSet,
	)

	b.mcp.AddTool(
		mcp.NewTool("summon",
			mcp.WithDescription("Bring the first window matching the criteria to the cursor and focus it"),
			mcp.WithString("criteria", mcp.Description("Regexp matched against class, instance, and title, or a numeric con id"), mcp.Required()),
		),
		b.handleSummon,
	)

	b.mcp.AddTool(
		mcp.NewTool("reconcile",
			mcp.WithDescription("Run a reconciliation sweep, or preview the plan without dispatching"),
			mcp.WithBoolean("preview", mcp.Description("Plan only, do not dispatch")),
		),
		b.handleReconcile,
	)

	b.mcp.AddTool(
		mcp.NewTool("status",
			mcp.WithDescription("Summarize daemon state: active project, link health, window counts, metrics"),
		),
		b.handleStatus,
	)

	b.mcp.AddTool(
		mcp.NewTool("windows",
			mcp.WithDescription("List every window as the reconciler classifies it"),
		),
		b.handleWindows,
	)

	b.mcp.AddTool(
		mcp.NewTool("dump",
			mcp.WithDescription("Return the full diagnostic state document"),
		),
		b.handleDump,
	)
}

// toolJSON serializes a control payload for an MCP text result.
func toolJSON(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func (b *mcpBridge) handleProjectGet(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	status, err := b.cli.Project(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(status)
}

func (b *mcpBridge) handleProjectSet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := stringParam(request.GetArguments(), "name", "")
	if name == "" {
		return mcp.NewToolResultError("name is required"), nil
	}
	result, err := b.cli.SetProject(ctx, name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(result)
}

func (b *mcpBridge) handleSummon(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	criteria := stringParam(request.GetArguments(), "criteria", "")
	if criteria == "" {
		return mcp.NewToolResultError("criteria is required"), nil
	}
	result, err := b.cli.Summon(ctx, criteria)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(result)
}

func (b *mcpBridge) handleReconcile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if boolParam(request.GetArguments(), "preview", false) {
		plan, err := b.cli.PreviewReconcile(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if plan == nil {
			plan = []client.PlannedCommand{}
		}
		return toolJSON(plan)
	}
	result, err := b.cli.Reconcile(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(result)
}

func (b *mcpBridge) handleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := b.cli.Status(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(report)
}

func (b *mcpBridge) handleWindows(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reports, err := b.cli.Windows(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if reports == nil {
		reports = []client.WindowReport{}
	}
	return toolJSON(reports)
}

func (b *mcpBridge) handleDump(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := b.cli.Dump(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return toolJSON(report)
}

// Parameter extraction helpers for MCP argument maps.

func stringParam(params map[string]interface{}, key, defaultVal string) string {
	if v, ok := params[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return defaultVal
}

func boolParam(params map[string]interface{}, key string, defaultVal bool) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
