// Package main is the CLI entry point for atlaswatch.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"atlaswatch/internal/chat"
	"atlaswatch/internal/command"
	"atlaswatch/internal/config"
	"atlaswatch/internal/gameapi"
	"atlaswatch/internal/watch"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "atlaswatch",
	Short: "Server watch bot - polls the cluster API and posts alerts",
	Long: `atlaswatch polls the game-cluster API on an interval, tracks per-server
player counts and a watch list of enemy players, and posts status lines
and alerts into per-server report channels.

Commands arrive as chat lines starting with "/". Run 'run' and type
/? for the command list.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the bot with the console gateway",
	Long: `Loads the config, wires the cluster API client and the console chat
gateway, and reads command lines from stdin until interrupted.`,
	RunE: runRun,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the config file",
	Long:  `Loads the config file, applies env overrides and clamps, and reports the effective settings.`,
	RunE:  runValidate,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	configPath string
	logPath    string
	jsonOutput bool
)

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "atlaswatch.yaml", "Config file path")
	runCmd.Flags().StringVar(&logPath, "log", "/var/tmp/atlaswatch.log", "Log file path")
	validateCmd.Flags().StringVar(&configPath, "config", "atlaswatch.yaml", "Config file path")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(versionCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := createLogger()
	defer func() { _ = logger.Sync() }()

	console := chat.NewConsole(os.Stdout, logger)
	api := gameapi.New(cfg.ClusterURL(), cfg.PlayerURL())
	watcher := watch.NewWatcher(cfg, console, api, logger)
	dispatcher := command.NewDispatcher(console, logger, command.Table(cfg, console, watcher))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	fmt.Println("atlaswatch ready. type /? for the command list, Ctrl-C to exit.")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	cmdChannel := console.CommandChannelID()
	for {
		select {
		case <-ctx.Done():
			watcher.Stop()
			return nil
		case line, ok := <-lines:
			if !ok {
				watcher.Stop()
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			// Failures are already surfaced to chat and the log.
			_ = dispatcher.Execute(ctx, cmdChannel, line)
		}
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	fmt.Printf("config ok: %s\n", configPath)
	fmt.Printf("  watch_world: %d\n", cfg.WatchWorld())
	fmt.Printf("  watch_interval: %ds\n", cfg.WatchIntervalSeconds())
	fmt.Printf("  player_surge_threshold: %d\n", cfg.SurgeThreshold())
	fmt.Printf("  enemy_list: %d entries\n", len(cfg.Enemies()))
	return nil
}

func createLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{logPath}
	config.ErrorOutputPaths = []string{logPath}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewDevelopment()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("atlaswatch %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
