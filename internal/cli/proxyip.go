package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vietddude/rankcheck/internal/core/config"
	"github.com/vietddude/rankcheck/internal/infra/ipecho"
)

func newProxyIPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "proxyip",
		Short: "Print the public IPv4 address seen through the configured proxy",
		Run:   runProxyIP,
	}
}

func init() {
	rootCmd.AddCommand(newProxyIPCmd())
}

// ExecuteProxyIP runs the proxy IP fetcher as a standalone binary.
func ExecuteProxyIP() {
	cmd := newProxyIPCmd()
	cmd.Flags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	cmd.Flags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runProxyIP(cmd *cobra.Command, args []string) {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := fetchProxyIP(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}

// fetchProxyIP prints the bare address to stdout and everything else to stderr.
func fetchProxyIP(ctx context.Context, cfg *config.AppConfig, stdout, stderr io.Writer) error {
	if err := cfg.ValidateProxy(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return err
	}

	px := ipecho.ProxyConfig{
		Scheme:   cfg.Proxy.Scheme,
		Host:     cfg.Proxy.Host,
		Port:     cfg.Proxy.Port,
		Username: cfg.Proxy.Username,
		Password: cfg.Proxy.Password,
	}

	_, _ = fmt.Fprintln(stderr, "Proxy IP Fetcher")
	_, _ = fmt.Fprintln(stderr, "================")
	_, _ = fmt.Fprintf(stderr, "Proxy: %s:%d\n", px.Host, px.Port)
	_, _ = fmt.Fprintf(stderr, "Service: %s\n", cfg.Proxy.IPServiceURL)
	_, _ = fmt.Fprintln(stderr, "Connecting...")

	client, err := ipecho.New(cfg.Proxy.IPServiceURL, px, cfg.Proxy.Timeout)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		_, _ = fmt.Fprintln(stderr, "\nFailed to retrieve IP address")
		return err
	}

	slog.Debug("Fetching public address", "proxy", px.Redacted(), "service", cfg.Proxy.IPServiceURL)

	ip, err := client.Fetch(ctx)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		var fe *ipecho.FetchError
		if errors.As(err, &fe) && fe.Details() != "" {
			_, _ = fmt.Fprintf(stderr, "Details: %s\n", fe.Details())
		}
		_, _ = fmt.Fprintln(stderr, "\nFailed to retrieve IP address")
		return err
	}

	_, _ = fmt.Fprintln(stdout, ip)
	_, _ = fmt.Fprintf(stderr, "\nSuccess! Your public IPv4 address is: %s\n", ip)
	return nil
}
