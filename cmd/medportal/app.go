package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"medportal/internal/attachments"
	"medportal/internal/blob"
	"medportal/internal/config"
	"medportal/internal/core"
	"medportal/internal/logging"
	"medportal/internal/persistence"
	"medportal/pkg/domain"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app carries the per-invocation runtime shared by every subcommand.
type app struct {
	configFile  string
	identity    string
	role        string
	metricsAddr string

	cfg      *config.Config
	logger   *zap.Logger
	medium   core.Medium
	store    *core.Store
	blobs    blob.Store
	uploader *attachments.Uploader
	registry *prometheus.Registry
	server   *http.Server
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "medportal",
		Short:        "Manage medical records, prescriptions and attachments",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (yaml, json or toml)")
	root.PersistentFlags().StringVar(&a.identity, "as", "", "caller identity (patient id, patient name or doctor name)")
	root.PersistentFlags().StringVar(&a.role, "role", string(domain.RoleAdmin), "caller role: patient, doctor, nurse, pharmacist or admin")
	root.PersistentFlags().StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	root.AddCommand(recordsCmd(a), prescriptionsCmd(a), filesCmd(a), watchCmd(a))
	return root
}

// run wraps a subcommand body with runtime setup and teardown.
func (a *app) run(fn func(ctx context.Context, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if err := a.open(ctx); err != nil {
			return err
		}
		defer func() {
			if cerr := a.close(); err == nil {
				err = cerr
			}
		}()
		return fn(ctx, cmd, args)
	}
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configFile)
	if err != nil {
		return err
	}
	if a.metricsAddr != "" {
		cfg.MetricsAddr = a.metricsAddr
	}
	a.cfg = cfg

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, "medportal")
	if err != nil {
		return err
	}
	a.logger = logger

	medium, err := core.OpenMedium(ctx, cfg.Storage())
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.medium = medium

	blobs, err := blob.Open(ctx, cfg.Blob())
	if err != nil {
		_ = medium.Close()
		return fmt.Errorf("open blob store: %w", err)
	}
	a.blobs = blobs

	a.registry = prometheus.NewRegistry()
	recorder, err := core.NewPrometheusRecorder(a.registry)
	if err != nil {
		_ = medium.Close()
		return err
	}

	opts := []core.Option{core.WithLogger(logger), core.WithMetrics(recorder)}
	if !cfg.SampleData {
		opts = append(opts, core.WithoutSampleData())
	}
	a.store = core.NewStore(persistence.NewAdapter(medium, logger), opts...)
	a.uploader = attachments.NewUploader(a.store, blobs, attachments.WithLogger(logger))

	if cfg.MetricsAddr != "" {
		a.serveMetrics(cfg.MetricsAddr)
	}
	logger.Debug("runtime ready",
		zap.String("storage", cfg.StorageDriver),
		zap.String("blob", string(blobs.Driver())))
	return nil
}

func (a *app) serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	a.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server stopped", zap.String("addr", addr), zap.Error(err))
		}
	}()
	a.logger.Info("serving metrics", zap.String("addr", addr))
}

func (a *app) close() error {
	var errs []error
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		errs = append(errs, a.server.Shutdown(ctx))
		cancel()
	}
	if a.medium != nil {
		errs = append(errs, a.medium.Close())
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}

func (a *app) caller() domain.Caller {
	return domain.Caller{Identity: a.identity, Role: domain.Role(a.role)}
}

// settle turns a persistence warning into a log line; the change it reports
// has already been applied in memory.
func (a *app) settle(err error) error {
	if err == nil {
		return nil
	}
	if domain.IsWarning(err) {
		a.logger.Warn("change applied but not persisted", zap.Error(err))
		return nil
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
