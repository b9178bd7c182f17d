package agentconfig

import (
	"strings"

	"cosmossdk.io/math"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// Config carries one run's knobs. Token amounts are decimal strings in base
// units so the file format round-trips without float loss.
type Config struct {
	IndexerID          string  `koanf:"indexer_id"`
	Network            string  `koanf:"network"`
	FilterListPath     string  `koanf:"filter_list_path"`
	MaxGas             string  `koanf:"max_gas"`
	LifetimeEpochs     int     `koanf:"lifetime_epochs"`
	MaxNewAllocations  int     `koanf:"max_new_allocations"`
	Tau                float64 `koanf:"tau"`
	MinSignal          string  `koanf:"min_signal"`
	NetworkSubgraphURL string  `koanf:"network_subgraph_url"`
	ManagementURL      string  `koanf:"management_url"`
	Debug              bool    `koanf:"debug"`
}

func defaultConfig() Config {
	return Config{
		Network:           "mainnet",
		MaxGas:            "0",
		LifetimeEpochs:    28,
		MaxNewAllocations: 5,
		Tau:               1,
		MinSignal:         "0",
	}
}

const envPrefix = "ALLOCAGENT_"

// Load layers defaults, an optional YAML config file and ALLOCAGENT_*
// environment variables, in that precedence order.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return Config{}, errors.Wrap(err, "loading defaults")
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "loading config file %s", path)
		}
	}
	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return Config{}, errors.Wrap(err, "loading environment")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, errors.Wrap(err, "unmarshalling config")
	}
	return cfg, nil
}

// Validate checks the fields every run needs. requireManagement adds the
// management endpoint check for the action-queue mode.
func (c Config) Validate(requireManagement bool) error {
	if c.IndexerID == "" {
		return errors.New("indexer_id is required")
	}
	if c.Network == "" {
		return errors.New("network is required")
	}
	if c.FilterListPath == "" {
		return errors.New("filter_list_path is required")
	}
	if c.NetworkSubgraphURL == "" {
		return errors.New("network_subgraph_url is required")
	}
	if requireManagement && c.ManagementURL == "" {
		return errors.New("management_url is required in action-queue mode")
	}
	if c.Tau < 0 || c.Tau > 1 {
		return errors.Errorf("tau must be in [0,1], got %v", c.Tau)
	}
	if _, err := c.MaxGasInt(); err != nil {
		return err
	}
	if _, err := c.MinSignalInt(); err != nil {
		return err
	}
	return nil
}

// MaxGasInt parses the per-transaction gas bound.
func (c Config) MaxGasInt() (math.Int, error) {
	return parseAmount("max_gas", c.MaxGas)
}

// MinSignalInt parses the minimum-signal threshold.
func (c Config) MinSignalInt() (math.Int, error) {
	return parseAmount("min_signal", c.MinSignal)
}

func parseAmount(field, value string) (math.Int, error) {
	if value == "" {
		return math.ZeroInt(), nil
	}
	amount, ok := math.NewIntFromString(value)
	if !ok {
		return math.Int{}, errors.Errorf("%s: malformed token amount %q", field, value)
	}
	if amount.IsNegative() {
		return math.Int{}, errors.Errorf("%s: must not be negative", field)
	}
	return amount, nil
}
