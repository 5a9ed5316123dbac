package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/rankcheck/internal/control"
	"github.com/vietddude/rankcheck/internal/core/config"
	"github.com/vietddude/stylelog"
)

var (
	cfgPath    string
	isDebug    bool
	sourceDir  string
	resultsDir string
)

var rootCmd = &cobra.Command{
	Use:   "rankcheck",
	Short: "Hypixel profile checker",
	Long:  `Rankcheck looks up every account file in the source folder on Mojang and Hypixel and copies it into a folder named after its rank.`,
	Run:   runRankCheck,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().StringVar(&sourceDir, "source", "", "folder holding the .txt account files (overrides paths.source_dir)")
	rootCmd.Flags().StringVar(&resultsDir, "results", "", "folder receiving the sorted copies (overrides paths.results_dir)")
}

// loadConfig reads .env and the config file, then initializes logging.
// It exits the process when the config is invalid.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})
	return cfg
}

func runRankCheck(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	if sourceDir != "" {
		cfg.Paths.SourceDir = sourceDir
	}
	if resultsDir != "" {
		cfg.Paths.ResultsDir = resultsDir
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := control.NewRankCheck(ctx, control.Config{App: cfg})
	if err != nil {
		slog.Error("Failed to initialize RankCheck", "error", err)
		os.Exit(1)
	}

	slog.Debug("RankCheck started", "config", cfgPath, "run_id", app.RunID())

	_, err = app.Run(ctx)
	app.Close()
	if err != nil {
		if errors.Is(err, control.ErrLocked) {
			slog.Error("Another run is sorting into this folder", "results", cfg.Paths.ResultsDir)
		} else {
			slog.Error("Run failed", "error", err)
		}
		os.Exit(1)
	}

	if ctx.Err() != nil {
		slog.Info("Received signal, stopped early")
	}
}
