// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"brokerage-matchmaking/internal/app"
	"brokerage-matchmaking/internal/common/camunda"
	"brokerage-matchmaking/internal/common/config"
	"brokerage-matchmaking/internal/common/logger"
	"brokerage-matchmaking/internal/common/observability"

	em "brokerage-matchmaking/internal/workers/matchmaking/expire-matches"
	gm "brokerage-matchmaking/internal/workers/matchmaking/generate-matches"
	gmd "brokerage-matchmaking/internal/workers/matchmaking/get-match-details"
	gms "brokerage-matchmaking/internal/workers/matchmaking/get-match-statistics"
	pmf "brokerage-matchmaking/internal/workers/matchmaking/provide-match-feedback"
	rmi "brokerage-matchmaking/internal/workers/matchmaking/record-match-interaction"
	ums "brokerage-matchmaking/internal/workers/matchmaking/update-match-status"
)

func main() {
	bootLog := logger.New("info", "console", "")
	defer bootLog.Sync()

	bootLog.Info("Starting worker manager...")

	cfg, err := config.Load()
	if err != nil {
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	obs := observability.New("worker-manager")
	defer obs.Shutdown()

	ctx := context.Background()

	zeebe, err := camunda.NewClientWithConfig(ctx, camunda.ConfigFromApp(cfg.Camunda), log)
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("address", cfg.Camunda.BrokerAddress))

	infra, err := app.Connect(ctx, cfg, log)
	if err != nil {
		zapLog.Fatal("infrastructure connect failed", zap.Error(err))
	}
	defer infra.Close()

	core, err := app.Build(cfg, infra, log)
	if err != nil {
		zapLog.Fatal("matchmaking core build failed", zap.Error(err))
	}

	workers := registerWorkers(cfg, zeebe, core, obs, log)
	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	srv := healthServer(cfg.Server.Address, zeebe, infra, log)
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	for _, w := range workers {
		w.Close()
		w.AwaitClose()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped")
}

func registerWorkers(
	cfg *config.Config,
	zeebe *camunda.Client,
	core *app.Components,
	obs *observability.Observability,
	log logger.Logger,
) []worker.JobWorker {
	client := zeebe.GetClient()
	var opened []worker.JobWorker

	start := func(taskType string, handler camunda.JobHandler) {
		if jw := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, obs, log); jw != nil {
			opened = append(opened, jw)
		}
	}

	{
		h := gm.NewHandler(gm.LoadConfig(config.GetWorkerConfig(cfg, gm.TaskType)), core.Generator, log)
		start(gm.TaskType, h.Handle)
	}
	{
		h := ums.NewHandler(ums.LoadConfig(config.GetWorkerConfig(cfg, ums.TaskType)), core.Lifecycle, log)
		start(ums.TaskType, h.Handle)
	}
	{
		h := rmi.NewHandler(rmi.LoadConfig(config.GetWorkerConfig(cfg, rmi.TaskType)), core.Lifecycle, log)
		start(rmi.TaskType, h.Handle)
	}
	{
		h := pmf.NewHandler(pmf.LoadConfig(config.GetWorkerConfig(cfg, pmf.TaskType)), core.Lifecycle, log)
		start(pmf.TaskType, h.Handle)
	}
	{
		h := gms.NewHandler(gms.LoadConfig(config.GetWorkerConfig(cfg, gms.TaskType)), core.Lifecycle, log)
		start(gms.TaskType, h.Handle)
	}
	{
		h := gmd.NewHandler(gmd.LoadConfig(config.GetWorkerConfig(cfg, gmd.TaskType)), core.Lifecycle, log)
		start(gmd.TaskType, h.Handle)
	}
	{
		h := em.NewHandler(em.LoadConfig(config.GetWorkerConfig(cfg, em.TaskType), cfg.Matchmaking), core.Lifecycle, log)
		start(em.TaskType, h.Handle)
	}

	return opened
}

// healthServer serves liveness, readiness and Prometheus metrics. Readiness
// requires both the broker and the database.
func healthServer(addr string, zeebe *camunda.Client, infra *app.Infra, log logger.Logger) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy", nil)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		checks := map[string]string{"zeebe": "ok", "postgres": "ok"}
		ready := true
		if err := zeebe.HealthCheck(ctx); err != nil {
			checks["zeebe"] = err.Error()
			ready = false
		}
		if err := infra.Postgres.Ping(ctx); err != nil {
			checks["postgres"] = err.Error()
			ready = false
		}
		if infra.Redis != nil {
			checks["redis"] = "ok"
			if err := infra.Redis.Ping(ctx); err != nil {
				checks["redis"] = err.Error()
			}
		}

		if !ready {
			log.Warn("readiness check failed", map[string]interface{}{"checks": checks})
			writeStatus(w, http.StatusServiceUnavailable, "not_ready", checks)
			return
		}
		writeStatus(w, http.StatusOK, "ready", checks)
	})

	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/debug/pprof/", http.DefaultServeMux)

	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func writeStatus(w http.ResponseWriter, code int, status string, checks map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": status,
		"checks": checks,
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
