// Command uipstackd runs a user-space IPv4 network stack over a Linux TAP
// interface: Ethernet/ARP/IPv4/ICMP/UDP, driven by a single poll loop.
package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/tinynet/uip/internal/config"
)

// version is the daemon's semantic version, overridable at build time via
// -ldflags -X main.version=....
var version = "dev"

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "uipstackd",
		Short:         "User-space IPv4 network stack daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to configuration file (YAML)")

	root.AddCommand(runCmd(&configPath))
	root.AddCommand(versionCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print uipstackd build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("uipstackd %s\n", version)
		},
	}
}

func runCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Create the TAP interface and start the stack daemon",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			return run(cfg)
		},
	}
}

// run wires the config, logger, Prometheus registry/HTTP server, TAP driver
// and stack.Stack together, then polls until the process receives
// SIGINT/SIGTERM.
func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lg := newLogger(cfg.Log)

	var ipPrefix netip.Prefix
	if cfg.Iface.Addr != "" {
		var err error
		ipPrefix, err = netip.ParsePrefix(cfg.Iface.Addr)
		if err != nil {
			return fmt.Errorf("parse iface.addr %q: %w", cfg.Iface.Addr, err)
		}
	}

	driver, localMAC, localIP, err := newTapDriver(cfg, ipPrefix)
	if err != nil {
		return fmt.Errorf("create tap driver: %w", err)
	}
	defer driver.Close()

	reg := prometheus.NewRegistry()
	s := newStack(cfg, driver, localMAC, localIP, lg, reg)

	if err := s.Init(); err != nil {
		return fmt.Errorf("stack init: %w", err)
	}

	g := startMetricsServer(ctx, cfg.Metrics, reg, lg)

	lg.Info("uipstackd started", "iface", cfg.Iface.Name, "addr", localIP)
	for {
		select {
		case <-ctx.Done():
			lg.Info("uipstackd stopping")
			return g()
		default:
		}
		if err := s.Poll(ctx); err != nil {
			lg.Error("poll error", "err", err.Error())
		}
	}
}

// parseMAC parses "aa:bb:cc:dd:ee:ff" into a [6]byte.
func parseMAC(s string) ([6]byte, error) {
	var out [6]byte
	hw, err := net.ParseMAC(s)
	if err != nil {
		return out, err
	}
	if len(hw) != 6 {
		return out, fmt.Errorf("mac %q: expected 6 bytes, got %d", s, len(hw))
	}
	copy(out[:], hw)
	return out, nil
}

// startMetricsServer launches the Prometheus /metrics HTTP endpoint in the
// background and returns a function that shuts it down gracefully.
func startMetricsServer(ctx context.Context, cfg config.MetricsConfig, reg *prometheus.Registry, lg logger) func() error {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: cfg.Addr, Handler: mux}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			lg.Error("metrics server failed", "err", err.Error())
		}
	}()

	return func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
