package cli

import (
	"runtime"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/idlekit/internal/adapters/driving/mcp"
)

var versionJSON bool

// buildInfo is the JSON form of the version command.
type buildInfo struct {
	Version string `json:"version"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
	MCP     string `json:"mcp"`
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := buildInfo{
			Version: version,
			Go:      runtime.Version(),
			OS:      runtime.GOOS,
			Arch:    runtime.GOARCH,
			MCP:     mcp.Version,
		}
		if versionJSON {
			return printJSON(cmd, info)
		}
		cmd.Printf("idlekit version %s\n", info.Version)
		cmd.Printf("  built with %s for %s/%s, MCP server %s\n", info.Go, info.OS, info.Arch, info.MCP)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(versionCmd)
}
