package cmd

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	up_mcp "github.com/kumolabai/upctl/pkg/mcp"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List things upctl provides",
}

var listToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the MCP server advertises",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		renderTools(cmd.OutOrStdout(), up_mcp.Catalog())
	},
}

func renderTools(out io.Writer, tools []*up_mcp.EnrichedTool) {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.AppendHeader(table.Row{"#", "Name", "Endpoint", "Description"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, WidthMax: 60},
	})
	for i, tool := range tools {
		t.AppendRow(table.Row{
			i + 1, tool.Name, tool.Endpoint, tool.Description,
		})
		t.AppendSeparator()
	}
	t.Render()
}

func init() {
	listCmd.AddCommand(listToolsCmd)
	rootCmd.AddCommand(listCmd)
}
