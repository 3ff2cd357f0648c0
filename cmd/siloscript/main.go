package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cuemby/siloscript/pkg/config"
	"github.com/cuemby/siloscript/pkg/httpapi"
	"github.com/cuemby/siloscript/pkg/log"
	"github.com/cuemby/siloscript/pkg/machine"
	"github.com/cuemby/siloscript/pkg/metrics"
	"github.com/cuemby/siloscript/pkg/runner"
	"github.com/cuemby/siloscript/pkg/store"
	"github.com/spf13/cobra"
)

var (
	// Version information (set via ldflags during build)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "siloscript",
	Short:   "siloscript - run scripts against per-invocation, human-backed secret storage",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"siloscript version %s\nCommit: %s\nBuilt: %s\n",
		Version, Commit, BuildTime,
	))

	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Data, Control, and Public façades",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a siloscript.yaml config file")
	serveCmd.Flags().String("data-addr", "", "Data façade listen address (overrides config)")
	serveCmd.Flags().String("control-addr", "", "Control façade listen address (overrides config)")
	serveCmd.Flags().String("public-addr", "", "Public façade listen address (overrides config)")
	serveCmd.Flags().String("scripts-root", "", "Root directory scripts are resolved under (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")
	log.Init(log.Config{Level: log.Level(logLevel), JSONOutput: logJSON})
	metrics.SetVersion(Version)

	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	applyFlagOverrides(cmd, &cfg)

	st, err := buildStore(cfg)
	if err != nil {
		return fmt.Errorf("build store: %w", err)
	}
	metrics.RegisterComponent("store", true, "")

	r := runner.New(cfg.ScriptsRoot)
	metrics.RegisterComponent("runner", true, "")

	m := machine.New(machine.Config{
		Store:       st,
		Runner:      r,
		DataURLRoot: cfg.DataURLRoot,
		TokenSalt:   cfg.TokenSalt,
	})
	defer m.Close()

	collector := metrics.NewCollector(m)
	collector.Start()
	defer collector.Stop()

	dataSrv := &http.Server{Addr: cfg.DataAddr, Handler: httpapi.NewData(m)}
	controlSrv := &http.Server{Addr: cfg.ControlAddr, Handler: httpapi.NewControl(m, cfg.StaticDir)}
	publicSrv := &http.Server{Addr: cfg.PublicAddr, Handler: httpapi.NewPublic(m)}

	errCh := make(chan error, 3)
	go serveAndReport(dataSrv, "data", errCh)
	go serveAndReport(controlSrv, "control", errCh)
	go serveAndReport(publicSrv, "public", errCh)

	log.Info("siloscript serving")
	log.Logger.Info().Str("data", cfg.DataAddr).Str("control", cfg.ControlAddr).Str("public", cfg.PublicAddr).Msg("façades listening")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
		log.Info("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, srv := range []*http.Server{dataSrv, controlSrv, publicSrv} {
		_ = srv.Shutdown(ctx)
	}
	return st.Close()
}

func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if v, _ := cmd.Flags().GetString("data-addr"); v != "" {
		cfg.DataAddr = v
	}
	if v, _ := cmd.Flags().GetString("control-addr"); v != "" {
		cfg.ControlAddr = v
	}
	if v, _ := cmd.Flags().GetString("public-addr"); v != "" {
		cfg.PublicAddr = v
	}
	if v, _ := cmd.Flags().GetString("scripts-root"); v != "" {
		cfg.ScriptsRoot = v
	}
}

func buildStore(cfg config.Config) (store.Store, error) {
	var base store.Store
	switch cfg.StoreBackend {
	case "sql":
		sqlStore, err := store.OpenSQL(cfg.SQLPath)
		if err != nil {
			return nil, err
		}
		base = sqlStore
	case "memory", "":
		base = store.NewMemory()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	if !cfg.Encrypt {
		return base, nil
	}
	return store.NewEncrypting(base, cfg.KeyringDir, nil), nil
}

func serveAndReport(srv *http.Server, name string, errCh chan<- error) {
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		errCh <- fmt.Errorf("%s façade: %w", name, err)
	}
}
