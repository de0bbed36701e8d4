package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/datawash-cli/internal/config"
	"github.com/KaramelBytes/datawash-cli/internal/logging"
	"github.com/KaramelBytes/datawash-cli/internal/upload"
)

var (
	cfgFile string
	debug   bool
	// Retry/HTTP flags (override config if set)
	flagHTTPTimeoutSec   int
	flagRetryMaxAttempts int
	flagRetryBaseDelayMs int
	flagRetryMaxDelayMs  int
	flagUploadURL        string

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "datawash",
	Short: "datawash: upload, clean, edit and chart tabular data from the terminal",
	Long: `datawash uploads a CSV, TSV or XLSX file to a cleaning endpoint and shows the
cleaned rows in an editable terminal dashboard with charts, per-column insights
and a session history. "datawash serve" runs the reference cleaning endpoint.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("✗ Error:"), err)
		os.Exit(1)
	}
}

func init() {
	// Initialize configuration before executing commands
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.datawash/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxAttempts, "retry-max", 0, "max retry attempts on 429/5xx (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryBaseDelayMs, "retry-base-ms", 0, "base retry backoff in ms (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMaxDelayMs, "retry-max-ms", 0, "max retry backoff cap in ms (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagUploadURL, "upload-url", "", "cleaning endpoint URL (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		warnf("failed to load config: %v", err)
		c = &cfgpkg.Global{}
	}
	cfg = c

	f := rootCmd.PersistentFlags()
	if f.Changed("http-timeout") && flagHTTPTimeoutSec > 0 {
		cfg.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if f.Changed("retry-max") && flagRetryMaxAttempts > 0 {
		cfg.RetryMaxAttempts = flagRetryMaxAttempts
	}
	if f.Changed("retry-base-ms") && flagRetryBaseDelayMs > 0 {
		cfg.RetryBaseDelayMs = flagRetryBaseDelayMs
	}
	if f.Changed("retry-max-ms") && flagRetryMaxDelayMs > 0 {
		cfg.RetryMaxDelayMs = flagRetryMaxDelayMs
	}
	if f.Changed("upload-url") && flagUploadURL != "" {
		cfg.UploadURL = flagUploadURL
	}
	if debug {
		cfg.LogLevel = "debug"
	}
}

// newLogger builds the logger for a command. console is where records go
// when no log file is configured; the dashboard passes nil because it owns
// the terminal.
func newLogger(console *os.File) (*slog.Logger, func(), error) {
	opts := logging.Options{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		SeqURL: cfg.SeqURL,
		Source: debug,
	}
	if console != nil {
		opts.Writer = console
	}
	return logging.Setup(opts)
}

func newUploadClient() *upload.Client {
	return upload.NewClient(
		cfg.UploadURL,
		time.Duration(cfg.HTTPTimeoutSec)*time.Second,
		cfg.RetryMaxAttempts,
		time.Duration(cfg.RetryBaseDelayMs)*time.Millisecond,
		time.Duration(cfg.RetryMaxDelayMs)*time.Millisecond,
	).WithMaxBytes(cfg.MaxUploadBytes())
}

func okf(format string, args ...any) {
	fmt.Fprintln(os.Stdout, color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	fmt.Fprintln(os.Stderr, color.YellowString("⚠ Warning:"), fmt.Sprintf(format, args...))
}
