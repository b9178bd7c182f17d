package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"allocation-agent/actionqueue"
	"allocation-agent/graphclient"
)

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "Print the computed actions as executable directives",
	Long: `Runs the full pipeline and renders each action as a standalone
indexer-management directive on stdout. Performs no mutation.`,
	RunE: runRules,
}

func init() {
	rootCmd.AddCommand(rulesCmd)
}

func runRules(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(false); err != nil {
		return err
	}
	source := graphclient.NewClient(cfg.NetworkSubgraphURL)
	sink := actionqueue.NewLocalSink(os.Stdout)
	return runPipeline(cmd.Context(), cfg, source, sink)
}
