package main

import (
	"context"
	"log"

	"github.com/berserker-glitch/9anonai-be-sub000/internal/bootstrap"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/config"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/server"
	"github.com/berserker-glitch/9anonai-be-sub000/internal/tracer"
	"github.com/berserker-glitch/9anonai-be-sub000/pkg/database"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	// 2. Tracing (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.Init("9anonai-backend", cfg.App.Environment)
	defer shutdownTracer(context.Background())

	// 3. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 4. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)

	// 5. Start Background Services
	go func() {
		log.Println("Background: Starting Ingest Service...")
		if err := container.IngestService.Consume(context.Background()); err != nil {
			log.Printf("Background Ingest Error: %v", err)
		}
	}()

	// 6. Initialize Server
	srv := server.New(cfg, container)

	// 7. Run Server
	log.Fatal(srv.Run())
}
