package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"github.com/adhvyk-ar/studio/config"
	"github.com/adhvyk-ar/studio/internal/bootstrap"
	"github.com/adhvyk-ar/studio/internal/projects/repository"
	cronjob "github.com/adhvyk-ar/studio/internal/uploads/cron"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, cleanup, err := buildRepo(ctx, cfg)
	if err != nil {
		log.Fatalf("repository: %v", err)
	}
	defer cleanup()

	router, err := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:   "ar-studio-api",
		Version:       cfg.App.Version,
		Repo:          repo,
		UploadsDir:    cfg.Server.UploadsDir,
		UploadLimiter: rate.NewLimiter(rate.Limit(5), 10),
	})
	if err != nil {
		log.Fatalf("router: %v", err)
	}

	pruner := cronjob.NewScheduler(cfg.Server.UploadsDir, cfg.Server.UploadTTL)
	pruner.Start()
	defer pruner.Stop()

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Printf("listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// buildRepo picks the store of record: postgres when DB_DSN is set, redis when
// REDIS_ADDR is set, otherwise in-process memory for development.
func buildRepo(ctx context.Context, cfg *config.Config) (repository.ProjectRepository, func(), error) {
	switch {
	case cfg.Server.DatabaseDSN != "":
		pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Server.DatabaseDSN})
		if err != nil {
			return nil, nil, err
		}
		repo := repository.NewPostgresRepository(pool)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		log.Println("using postgres project repository")
		return repo, pool.Close, nil

	case cfg.Server.RedisAddr != "":
		client, err := bootstrap.OpenRedis(ctx, cfg.Server.RedisAddr)
		if err != nil {
			return nil, nil, err
		}
		log.Println("using redis project repository")
		return repository.NewRedisRepository(client), func() { client.Close() }, nil

	default:
		log.Println("using in-memory project repository")
		return repository.NewMemoryRepository(), func() {}, nil
	}
}
