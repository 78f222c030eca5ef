package cmd

import (
	"errors"
	"fmt"
	"maps"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tourscout/internal/config"
)

var errNoConfigFile = errors.New("no config file in use; run 'tourscout config init' first")

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var (
	configInitPath  string
	configInitForce bool
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default configuration file",
	Long: `Write the commented default configuration.

Without --path the file is written to .tourscout/config.yaml in the
current directory, which takes precedence over the user config.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configInitPath
		if path == "" {
			path = localConfigPath
		}
		if fileExists(path) && !configInitForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.WriteDefaultConfig(path); err != nil {
			return err
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

var configSetPolicyCmd = &cobra.Command{
	Use:   "set-policy",
	Short: "Change the polling policy in the config file",
	Long: `Change search.poll_interval, search.max_retries or search.call_timeout in
the config file. Comments and other sections are preserved. A running
tourscout picks up the new policy for its next search.

Examples:
  tourscout config set-policy --poll-interval 500ms
  tourscout config set-policy --max-retries 5 --call-timeout 10s`,
	Args: cobra.NoArgs,
	RunE: runSetPolicy,
}

var configFlagCmd = &cobra.Command{
	Use:   "flag NAME true|false",
	Short: "Turn a feature flag on or off in the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runSetFlag,
}

func init() {
	configInitCmd.Flags().StringVar(&configInitPath, "path", "", "where to write the file")
	configInitCmd.Flags().BoolVar(&configInitForce, "force", false, "overwrite an existing file")

	configSetPolicyCmd.Flags().Duration("poll-interval", 0, "delay between polls")
	configSetPolicyCmd.Flags().Int("max-retries", 0, "failed polls retried before the search errors")
	configSetPolicyCmd.Flags().Duration("call-timeout", 0, "upper bound on one backend call")

	configCmd.AddCommand(configInitCmd, configSetPolicyCmd, configFlagCmd)
	rootCmd.AddCommand(configCmd)
}

func runSetPolicy(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	path := viper.ConfigFileUsed()
	if path == "" {
		return errNoConfigFile
	}

	s := cfg.Search
	f := cmd.Flags()
	if f.Changed("poll-interval") {
		s.PollInterval, _ = f.GetDuration("poll-interval")
	}
	if f.Changed("max-retries") {
		s.MaxRetries, _ = f.GetInt("max-retries")
	}
	if f.Changed("call-timeout") {
		s.CallTimeout, _ = f.GetDuration("call-timeout")
	}

	if err := config.SaveSearch(path, s); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "poll_interval=%s max_retries=%d call_timeout=%s\n",
		s.PollInterval, s.MaxRetries, s.CallTimeout)
	return nil
}

func runSetFlag(cmd *cobra.Command, args []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	path := viper.ConfigFileUsed()
	if path == "" {
		return errNoConfigFile
	}

	enabled, err := strconv.ParseBool(args[1])
	if err != nil {
		return fmt.Errorf("flag value %q: %w", args[1], err)
	}
	updated := maps.Clone(cfg.Flags)
	if updated == nil {
		updated = make(map[string]bool)
	}
	updated[args[0]] = enabled

	if err := config.SaveFlags(path, updated); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s=%t\n", args[0], enabled)
	return nil
}
