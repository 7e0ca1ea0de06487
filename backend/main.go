package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/internal/api"
	"pharmapos/m/internal/assistant"
	"pharmapos/m/internal/config"
	"pharmapos/m/internal/database"
	"pharmapos/m/internal/migrations"
	"pharmapos/m/internal/pos"
	"pharmapos/m/internal/receipt"
	"pharmapos/m/internal/seed"
	"pharmapos/m/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gateway, cleanup := openGateway(ctx, cfg)
	defer cleanup()

	session := pos.Open(ctx, gateway)
	if session.InventoryCount() == 0 {
		seed.LoadMedicines(ctx, session, cfg.SeedCSV, cfg.LowStockDefault)
	}

	tmpl, err := receipt.LoadTemplate(cfg.ReceiptTemplate)
	if err != nil {
		log.Printf("using default receipt template: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("unable to secure admin password: %v", err)
	}

	if cfg.OpenAIAPIKey == "" {
		log.Printf("OPENAI_API_KEY not set; assistant replies will use fallbacks")
	}
	advisor := assistant.New(assistant.NewOpenAIGenerator(cfg.OpenAIAPIKey, cfg.OpenAIModel), cfg.AssistantTimeout)

	handler := api.New(session, advisor, api.Settings{
		Secret:            cfg.Secret,
		AdminUsername:     cfg.AdminUsername,
		AdminPasswordHash: hash,
		Template:          tmpl,
		AllowOversell:     cfg.AllowOversell,
		LowStockDefault:   cfg.LowStockDefault,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
	}()

	log.Printf("Pharmacy POS server starting on :%s (store=%s)", cfg.HTTPPort, cfg.StoreBackend)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
}

// openGateway builds the persistence gateway for cfg.StoreBackend. An
// unreachable backend falls back to memory so the terminal stays usable.
func openGateway(ctx context.Context, cfg config.Config) (*store.Gateway, func()) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, DB: cfg.RedisDB})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[store] WARN: redis at %s unreachable: %v", cfg.RedisAddr, err)
		}
		return store.NewGateway(store.NewRedisKV(client, ""), "redis"), func() { _ = client.Close() }
	case "sql":
		db, err := database.Connect(cfg.DatabaseDriver, cfg.DatabaseDSN)
		if err != nil {
			log.Printf("[store] WARN: %v; keeping state in memory", err)
			break
		}
		if err := migrations.Run(db); err != nil {
			log.Printf("[store] WARN: %v; keeping state in memory", err)
			_ = db.Close()
			break
		}
		return store.NewGateway(store.NewSQLKV(db), "sql"), func() { _ = db.Close() }
	}
	return store.NewGateway(store.NewMemoryKV(), "memory"), func() {}
}
