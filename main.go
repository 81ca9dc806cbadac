package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"covary/adapters/api"
	"covary/adapters/excel"
	"covary/adapters/postgres"
	"covary/app"
	"covary/internal/config"
	"covary/ports"
)

// Entry point: with DATA_FILE set, run a one-shot analysis and write
// the report set; otherwise start the HTTP API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var repo ports.ResultRepository
	if cfg.Database.URL != "" {
		db, err := postgres.Connect(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		repo = postgres.NewResultRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			log.Fatalf("Failed to ensure database schema: %v", err)
		}
	}

	service := app.NewAnalysisService(app.OptionsFromConfig(cfg.Analysis))

	if cfg.Paths.DataFile != "" {
		reader := excel.NewDataReader(cfg.Paths.DataFile)
		if _, err := service.AnalyzeAndReport(ctx, reader, cfg.Paths.OutputDir, repo); err != nil {
			log.Fatalf("Analysis failed: %v", err)
		}
		return
	}

	server := api.NewServer(service, repo)
	if err := server.ListenAndServe(ctx, cfg.Server.Port); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
