package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/core"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/iostore"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/mcpsrv"
	"github.com/sunnyshin8/fika-ai-engineering-insights-bot/internal/seeddata"
)

// serveCmd represents the serve command.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fika MCP server",
	Long: `Launch an MCP server that lets chat front-ends and AI agents request
insight reports via standard tools.

Tools:
  get_report        - run (or replay) the report for a repo and period;
                      long runs return an acceptance ack instead of blocking
  get_report_status - poll the stored stage of a report without running it

The repo positional argument is not used here; each tool call names its
own repository.`,
	Args: cobra.MaximumNArgs(1),
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Each MCP tool call names its own repository; a placeholder
		// satisfies the repo requirement in the shared setup path.
		if len(args) == 0 {
			args = []string{"mcp/serve"}
		}
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		reg := core.NewRegistry(core.NewPipeline(seeddata.NewGenerator(cfg.Seed), iostore.Manager, cfg))
		return mcpsrv.StartMCPServer(rootCtx, cfg, reg)
	},
}
