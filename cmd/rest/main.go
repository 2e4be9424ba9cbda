package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-with-pdf-be/internal/bootstrap"
	"chat-with-pdf-be/internal/config"
	"chat-with-pdf-be/internal/pkg/logger"
	"chat-with-pdf-be/internal/server"
	"chat-with-pdf-be/internal/tracer"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	defer sysLogger.Sync()

	if err := cfg.ValidateSessionSecret(); err != nil {
		if cfg.IsProduction() {
			log.Fatalf("Refusing to start in production: %v", err)
		}
		sysLogger.Warn("MAIN", "Session tokens are signed with the development secret", map[string]interface{}{"error": err.Error()})
	}

	// 2. Tracing
	shutdownTracer := tracer.InitTracer(cfg.App.OtelEnabled, sysLogger)
	defer shutdownTracer(context.Background())

	// 3. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg, sysLogger)
	if err != nil {
		log.Fatalf("Unable to bootstrap application: %v", err)
	}
	defer container.Close()

	// 4. Start Background Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := container.Start(ctx); err != nil {
		sysLogger.Error("MAIN", "Background services failed to start", map[string]interface{}{"error": err.Error()})
	}

	// 5. Initialize Server
	srv := server.New(cfg, container)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			sysLogger.Error("MAIN", "Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// 6. Run Server
	if err := srv.Run(); err != nil {
		sysLogger.Error("MAIN", "Server stopped", map[string]interface{}{"error": err.Error()})
	}
}
