package cli

import (
	"fmt"
	"slices"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"callscribe/internal/config"
)

// validConfigKeys lists all supported configuration keys.
var validConfigKeys = []string{
	config.KeyMaxFileSizeMB,
	config.KeySupportedFormats,
	config.KeyChunkDurationMinutes,
	config.KeyMaxWorkers,
	config.KeyNormalizeAudio,
	config.KeyNoiseReduction,
	config.KeyResetThreshold,
	config.KeyModelSize,
	config.KeyModelPath,
	config.KeyEngine,
	config.KeyLanguage,
	config.KeyAutoCleanup,
	config.KeyJobTimeoutMinutes,
}

// ConfigCmd creates the config command with subcommands.
// The env parameter provides injectable dependencies for testing.
func ConfigCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: `Manage persistent configuration settings.

Configuration is stored in ~/.config/callscribe/config as key=value lines.
Some settings can also be set via environment variables
(CALLSCRIBE_MODEL_PATH, CALLSCRIBE_MODEL_SIZE, CALLSCRIBE_ENGINE).`,
		Example: `  callscribe config set model_size small
  callscribe config set max_workers 2
  callscribe config get engine
  callscribe config list`,
	}

	cmd.AddCommand(configSetCmd(env))
	cmd.AddCommand(configGetCmd(env))
	cmd.AddCommand(configListCmd(env))

	return cmd
}

// configSetCmd creates the "config set" subcommand.
func configSetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Example: `  callscribe config set model_size small
  callscribe config set chunk_duration_minutes 10
  callscribe config set auto_cleanup false`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(env, args[0], args[1])
		},
	}
}

// configGetCmd creates the "config get" subcommand.
func configGetCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get a configuration value.

Prints the value to stdout, or nothing if not set.`,
		Example: `  callscribe config get model_size`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(env, args[0])
		},
	}
}

// configListCmd creates the "config list" subcommand.
func configListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration values",
		Long: `List all configuration values.

Shows values from the config file and environment variable overrides.`,
		Example: `  callscribe config list`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigList(env)
		},
	}
}

// runConfigSet handles the "config set" command.
func runConfigSet(env *Env, key, value string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, validConfigKeys)
	}

	// Reject values the pipeline would refuse at load time.
	switch key {
	case config.KeyEngine:
		if value != config.EngineWhisper && value != config.EngineOpenAI {
			return fmt.Errorf("%w: %q (valid: %s, %s)", ErrUnsupportedEngine, value,
				config.EngineWhisper, config.EngineOpenAI)
		}
	case config.KeyMaxWorkers:
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid %s: %q", key, value)
		}
		if n > config.MaxRecommendedWorkers {
			fmt.Fprintf(env.Stderr, "Warning: %s capped at %d\n", key, config.MaxRecommendedWorkers)
			value = strconv.Itoa(config.MaxRecommendedWorkers)
		}
	}

	if err := config.Save(key, value); err != nil {
		return err
	}

	fmt.Fprintf(env.Stderr, "Set %s = %s\n", key, value)
	return nil
}

// runConfigGet handles the "config get" command.
func runConfigGet(env *Env, key string) error {
	if !isValidConfigKey(key) {
		return fmt.Errorf("unknown config key %q (valid keys: %v)", key, validConfigKeys)
	}

	value, err := config.Get(key)
	if err != nil {
		return err
	}

	// Environment variable fallbacks mirror config.Load.
	if value == "" {
		switch key {
		case config.KeyModelPath:
			value = env.Getenv(config.EnvModelPath)
		case config.KeyModelSize:
			value = env.Getenv(config.EnvModelSize)
		case config.KeyEngine:
			value = env.Getenv(config.EnvEngine)
		}
	}

	if value != "" {
		fmt.Fprintln(env.Stdout, value)
	}

	return nil
}

// runConfigList handles the "config list" command.
func runConfigList(env *Env) error {
	data, err := config.List()
	if err != nil {
		return err
	}

	envFallbacks := map[string]string{
		config.KeyModelPath: config.EnvModelPath,
		config.KeyModelSize: config.EnvModelSize,
		config.KeyEngine:    config.EnvEngine,
	}
	for key, envKey := range envFallbacks {
		if _, ok := data[key]; !ok {
			if v := env.Getenv(envKey); v != "" {
				data[key] = v + " (from env)"
			}
		}
	}

	if len(data) == 0 {
		fmt.Fprintln(env.Stdout, "No configuration set.")
		fmt.Fprintln(env.Stdout, "\nAvailable settings:")
		for _, key := range validConfigKeys {
			fmt.Fprintf(env.Stdout, "  %s\n", key)
		}
		return nil
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(env.Stdout, "%s=%s\n", key, data[key])
	}

	return nil
}

// isValidConfigKey checks if a key is a valid configuration key.
func isValidConfigKey(key string) bool {
	return slices.Contains(validConfigKeys, key)
}
