package cmd

import (
	"github.com/spf13/cobra"

	"allocation-agent/actionqueue"
	"allocation-agent/graphclient"
)

var actionQueueCmd = &cobra.Command{
	Use:   "actionqueue",
	Short: "Push the computed actions to the indexer's action queue",
	Long: `Runs the full pipeline and delivers the resulting actions to the
management endpoint's queueActions mutation in one batched call.`,
	RunE: runActionQueue,
}

func init() {
	rootCmd.AddCommand(actionQueueCmd)
}

func runActionQueue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(true); err != nil {
		return err
	}
	source := graphclient.NewClient(cfg.NetworkSubgraphURL)
	sink := actionqueue.NewRemoteSink(cfg.ManagementURL)
	return runPipeline(cmd.Context(), cfg, source, sink)
}
