package cli

import (
	"fmt"
	"net"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Model Context Protocol server",
}

var mcpServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the idle tools over MCP",
	Long: `Serve the idle tools to an MCP client.

Without --port the server speaks JSON-RPC on stdio, which is what desktop
clients launch:

  {"mcpServers": {"idlekit": {"command": "idlekit", "args": ["mcp", "serve"]}}}

With --port it serves streamable HTTP on --host:--port. The daemon does the
same on mcp.port.`,
	Args: cobra.NoArgs,
	RunE: runMCPServe,
}

var mcpToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the MCP server exposes",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		for _, t := range mcp.Tools {
			fmt.Fprintf(w, "%s\t%s\n", t.Name, t.Description)
		}
		w.Flush()
	},
}

func init() {
	mcpServeCmd.Flags().IntP("port", "p", 0, "HTTP port (0 = stdio)")
	mcpServeCmd.Flags().String("host", "localhost", "HTTP bind host")
	mcpCmd.AddCommand(mcpServeCmd, mcpToolsCmd)
	rootCmd.AddCommand(mcpCmd)
}

func newMCPServer() (*mcp.Server, error) {
	return mcp.NewServer(&mcp.Ports{
		Registry: sessionRegistry,
		Launcher: autoIdleLauncher,
		Farming:  farmingService,
		Unlocker: unlockScheduler,
	})
}

func runMCPServe(cmd *cobra.Command, _ []string) error {
	port, _ := cmd.Flags().GetInt("port")
	host, _ := cmd.Flags().GetString("host")

	server, err := newMCPServer()
	if err != nil {
		return err
	}
	if port <= 0 {
		return server.Run(cmd.Context())
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	cmd.Printf("MCP server on http://%s\n", addr)
	return server.RunHTTP(cmd.Context(), addr)
}
