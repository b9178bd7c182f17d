package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"allocation-agent/agentconfig"
	"allocation-agent/logging"
)

var rootCmd = &cobra.Command{
	Use:          "allocation-agent",
	Short:        "Decide and converge an indexer's stake allocations",
	SilenceUsage: true, // don't print usage on operational errors
	Long: `allocation-agent snapshots the network, asks the allocation optimizer for
target amounts and converges the indexer's open allocations to match: either
by queueing actions on the indexer's action queue, or by printing the
equivalent directives for manual execution.`,
}

var (
	flagConfigPath string
	flagConfig     agentconfig.Config
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfigPath, "config", "", "path to YAML config file")
	pf.StringVar(&flagConfig.IndexerID, "indexer", "", "target indexer identity")
	pf.StringVar(&flagConfig.Network, "network", "", "network identity")
	pf.StringVar(&flagConfig.FilterListPath, "filter-list", "", "path to the filter-list CSV")
	pf.StringVar(&flagConfig.MaxGas, "max-gas", "", "per-transaction gas bound in GRT base units")
	pf.IntVar(&flagConfig.LifetimeEpochs, "lifetime-epochs", -1, "allocation lifetime in epochs [0,28]")
	pf.IntVar(&flagConfig.MaxNewAllocations, "max-new-allocations", -1, "maximum count of new allocations")
	pf.Float64Var(&flagConfig.Tau, "tau", -1, "exploration parameter in [0,1]")
	pf.StringVar(&flagConfig.MinSignal, "min-signal", "", "minimum signal threshold in GRT base units")
	pf.StringVar(&flagConfig.NetworkSubgraphURL, "network-subgraph", "", "network subgraph query endpoint URL")
	pf.StringVar(&flagConfig.ManagementURL, "management", "", "indexer management mutation endpoint URL")
	pf.BoolVar(&flagConfig.Debug, "debug", false, "enable debug logging")
}

// loadConfig merges the config file, environment and command-line flags;
// flags take final precedence.
func loadConfig(cmd *cobra.Command) (agentconfig.Config, error) {
	cfg, err := agentconfig.Load(flagConfigPath)
	if err != nil {
		return agentconfig.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("indexer") {
		cfg.IndexerID = flagConfig.IndexerID
	}
	if flags.Changed("network") {
		cfg.Network = flagConfig.Network
	}
	if flags.Changed("filter-list") {
		cfg.FilterListPath = flagConfig.FilterListPath
	}
	if flags.Changed("max-gas") {
		cfg.MaxGas = flagConfig.MaxGas
	}
	if flags.Changed("lifetime-epochs") {
		cfg.LifetimeEpochs = flagConfig.LifetimeEpochs
	}
	if flags.Changed("max-new-allocations") {
		cfg.MaxNewAllocations = flagConfig.MaxNewAllocations
	}
	if flags.Changed("tau") {
		cfg.Tau = flagConfig.Tau
	}
	if flags.Changed("min-signal") {
		cfg.MinSignal = flagConfig.MinSignal
	}
	if flags.Changed("network-subgraph") {
		cfg.NetworkSubgraphURL = flagConfig.NetworkSubgraphURL
	}
	if flags.Changed("management") {
		cfg.ManagementURL = flagConfig.ManagementURL
	}
	if flags.Changed("debug") {
		cfg.Debug = flagConfig.Debug
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logging.UseJSONHandler(level)
	logging.Debug("configuration assembled", logging.Config,
		"network", cfg.Network, "indexer", cfg.IndexerID, "filter_list", cfg.FilterListPath)
	return cfg, nil
}

// Execute is called by main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		logging.Error("run failed", logging.System, "error", err)
		os.Exit(1)
	}
}
