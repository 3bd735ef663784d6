package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	handlers "github.com/zdziszkee/iban-registry/internal/api/handlers"
	"github.com/zdziszkee/iban-registry/internal/api/router"
	config "github.com/zdziszkee/iban-registry/internal/configuration"
	"github.com/zdziszkee/iban-registry/internal/database"
	"github.com/zdziszkee/iban-registry/internal/importer"
	"github.com/zdziszkee/iban-registry/internal/metrics"
	"github.com/zdziszkee/iban-registry/internal/repository"
	"github.com/zdziszkee/iban-registry/internal/service"
)

// runImport loads the bank directory feed into the registry and updates the
// registry gauges. Failures leave the previous registry state intact.
func runImport(ctx context.Context, path string, imp *importer.Importer, m *metrics.Metrics) error {
	startTime := time.Now()

	report, err := imp.ImportFile(ctx, path)
	if err != nil {
		m.RecordImport(0, 0, false)
		return err
	}

	m.RecordImport(report.TotalBanks, time.Now().Unix(), true)
	log.Printf("Import run %s: loaded %d banks (%d with BIC, %d distinct BICs) in %v",
		report.RunID, report.Imported, report.BanksWithBIC, report.UniqueBICs, time.Since(startTime))
	return nil
}

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	loadFile := flag.String("load", "", "Path to bank directory feed to import")
	importOnly := flag.Bool("import-only", false, "Run the directory import and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *loadFile != "" {
		cfg.Data.DirectoryFile = *loadFile
		cfg.Data.AutoLoad = true
	}

	db, err := database.New(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	repo := repository.NewSQLBankRepository(db)
	imp := importer.New(repo)

	if cfg.Data.AutoLoad && cfg.Data.DirectoryFile != "" {
		log.Printf("Importing bank directory from %s", cfg.Data.DirectoryFile)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		err := runImport(ctx, cfg.Data.DirectoryFile, imp, m)
		cancel()
		if err != nil {
			if *importOnly {
				log.Fatalf("Import failed: %v", err)
			}
			// The previous registry snapshot keeps serving.
			log.Printf("WARNING: import failed, serving previous registry state: %v", err)
		}
	}

	if *importOnly {
		log.Println("Import finished, exiting")
		os.Exit(0)
	}

	lookupService := service.NewLookupService(repo, m)
	lookupHandler := handlers.NewLookupHandler(lookupService)
	app := router.SetupRoutes(lookupHandler, registry)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		log.Printf("Starting server on %s", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exiting")
}
