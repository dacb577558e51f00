package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/MrJamesThe3rd/stageledger/internal/config"
	"github.com/MrJamesThe3rd/stageledger/internal/database"
	"github.com/MrJamesThe3rd/stageledger/internal/export"
	apphttp "github.com/MrJamesThe3rd/stageledger/internal/http"
	exportHandler "github.com/MrJamesThe3rd/stageledger/internal/http/export"
	importHandler "github.com/MrJamesThe3rd/stageledger/internal/http/importcsv"
	ledgerHandler "github.com/MrJamesThe3rd/stageledger/internal/http/ledger"
	matchingHandler "github.com/MrJamesThe3rd/stageledger/internal/http/matching"
	projectHandler "github.com/MrJamesThe3rd/stageledger/internal/http/project"
	reportHandler "github.com/MrJamesThe3rd/stageledger/internal/http/report"
	statusHandler "github.com/MrJamesThe3rd/stageledger/internal/http/status"
	txHandler "github.com/MrJamesThe3rd/stageledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/stageledger/internal/importer"
	"github.com/MrJamesThe3rd/stageledger/internal/ledger"
	ledgerStore "github.com/MrJamesThe3rd/stageledger/internal/ledger/store"
	"github.com/MrJamesThe3rd/stageledger/internal/logger"
	"github.com/MrJamesThe3rd/stageledger/internal/matching"
	matchingStore "github.com/MrJamesThe3rd/stageledger/internal/matching/store"
	"github.com/MrJamesThe3rd/stageledger/internal/project"
	projectStore "github.com/MrJamesThe3rd/stageledger/internal/project/store"
	"github.com/MrJamesThe3rd/stageledger/internal/status"
	statusStore "github.com/MrJamesThe3rd/stageledger/internal/status/store"
	"github.com/MrJamesThe3rd/stageledger/internal/transaction"
	txStore "github.com/MrJamesThe3rd/stageledger/internal/transaction/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer log.Sync()

	log = log.With(zap.String("app", cfg.App.Name))

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer db.Close()

	if cfg.DB.AutoMigrate {
		if err := database.Migrate(db, log); err != nil {
			log.Error("failed to migrate database", zap.Error(err))
			return err
		}
	}

	var (
		statusService = status.NewService(statusStore.New(db))
		entries       = ledgerStore.New(db)
		deriver       = ledger.NewDeriver(entries, statusService, ledger.Policy{
			ReceivableStatuses: cfg.Ledger.ReceivableStatuses,
			PayableStatuses:    cfg.Ledger.PayableStatuses,
		}, log)
		ledgerService = ledger.NewService(entries, cfg.Ledger.ConfirmationSecret, log)
		onStageChange = func(ctx context.Context, stage *project.Stage, p *project.Project) error {
			_, err := deriver.DeriveFromStage(ctx, stage, p)
			return err
		}
		projectService     = project.NewService(projectStore.New(db), statusService, onStageChange, log)
		transactionService = transaction.NewService(txStore.New(db), deriver, log)
		matchingService    = matching.NewService(matchingStore.New(db), log)
		importService      = importer.NewService(transactionService, matchingService, log)
		exportService      = export.NewService(ledgerService)
	)

	var (
		statusH      = statusHandler.NewHandler(statusService, log)
		projectH     = projectHandler.NewHandler(projectService, statusService, deriver, log)
		ledgerH      = ledgerHandler.NewHandler(ledgerService, log)
		transactionH = txHandler.NewHandler(transactionService, log)
		importH      = importHandler.NewHandler(importService, log)
		reportH      = reportHandler.NewHandler(projectService, ledgerService, statusService, log)
		matchingH    = matchingHandler.NewHandler(matchingService, log)
		exportH      = exportHandler.NewHandler(exportService, log)
	)

	router := apphttp.New(apphttp.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		JWTSecret:      cfg.Auth.JWTSecret,
	}, log, statusH, projectH, ledgerH, transactionH, importH, reportH, matchingH, exportH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           http.TimeoutHandler(router, cfg.Server.Timeout, "request timed out"),
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)

	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}

		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server failed", zap.Error(err))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
