package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/tourscout/internal/app"
	"github.com/zjrosen/tourscout/internal/config"
	"github.com/zjrosen/tourscout/internal/log"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".tourscout/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
	// cfgErr is reported by commands that need a valid config.
	cfgErr error
)

var rootCmd = &cobra.Command{
	Use:   "tourscout",
	Short: "Search tour prices from the terminal",
	Long: `A terminal user interface for searching tour prices by country,
city or hotel against an asynchronous price search service.

Type a country code (optionally followed by a city id and a hotel id)
and press enter. Results appear once the service has computed them.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/tourscout/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log (also enabled by TOURSCOUT_DEBUG)")
}

func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return localConfigPath
	}
	return filepath.Join(home, ".config", "tourscout", "config.yaml")
}

func initConfig() {
	v := viper.GetViper()
	config.SetDefaults(v)
	v.SetEnvPrefix("TOURSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Config lookup order:
	// 1. --config
	// 2. .tourscout/config.yaml (current directory)
	// 3. ~/.config/tourscout/config.yaml (user config)
	switch {
	case cfgFile != "":
		v.SetConfigFile(cfgFile)
	case fileExists(localConfigPath):
		v.SetConfigFile(localConfigPath)
	default:
		v.AddConfigPath(filepath.Dir(userConfigPath()))
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cfgErr = fmt.Errorf("reading config: %w", err)
			return
		}
		// No config file found anywhere: write the commented default.
		// If that fails we continue with built-in defaults.
		path := userConfigPath()
		if writeErr := config.WriteDefaultConfig(path); writeErr == nil {
			v.SetConfigFile(path)
			_ = v.ReadInConfig()
		}
	}

	cfg, cfgErr = config.Load(v)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// initLogging opens the debug log when --debug or TOURSCOUT_DEBUG is set.
func initLogging() (func(), error) {
	if !debugFlag && os.Getenv("TOURSCOUT_DEBUG") == "" {
		return func() {}, nil
	}
	path := cfg.Log.Path
	if env := os.Getenv("TOURSCOUT_LOG"); env != "" {
		path = env
	}
	cleanup, err := log.Init(path)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
	log.Info(log.CatConfig, "tourscout starting", "version", version, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	if cfgErr != nil {
		return cfgErr
	}
	cleanup, err := initLogging()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := newRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := config.Watch(ctx, viper.GetViper(), rt.applyConfig); err != nil && !errors.Is(err, config.ErrNoConfigFile) {
		log.WarnErr(log.CatConfig, "Config hot reload disabled", err)
	}

	model := app.New(rt.ctrl, rt.dir, rt.flags, cfg.UI)
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
