package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"bookreview/internal/auth"
	"bookreview/internal/config"
	"bookreview/internal/handlers"
	"bookreview/internal/notify"
	"bookreview/internal/repositories"
	"bookreview/internal/services"
)

func main() {
	root := &cobra.Command{
		Use:          "bookreview",
		Short:        "Book review catalog API server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		log.Fatalf("%v", err)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return runServer(cfg)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			m, err := migrate.New("file://"+cfg.MigrationsDir, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer m.Close()

			if err := m.Up(); err != nil {
				if errors.Is(err, migrate.ErrNoChange) {
					log.Println("migrations: nothing to apply")
					return nil
				}
				return err
			}
			log.Println("migrations: applied")
			return nil
		},
	}
}

func runServer(cfg *config.Config) error {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{})
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	var sink notify.Sink = notify.LogSink{}
	if cfg.RabbitMQ.URL != "" {
		rmq, err := notify.NewRabbitMQSink(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
		if err != nil {
			return err
		}
		defer rmq.Close()
		sink = rmq
	}

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	userRepo := repositories.NewUserRepository(db)
	genreRepo := repositories.NewGenreRepository(db)
	bookRepo := repositories.NewBookRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	commentRepo := repositories.NewCommentRepository(db)

	authService := services.NewAuthService(db, userRepo, issuer, sink)
	userService := services.NewUserService(db, userRepo)
	catalogService := services.NewCatalogService(db, genreRepo, bookRepo)
	reviewService := services.NewReviewService(db, bookRepo, reviewRepo, commentRepo)

	router := gin.Default()
	handlers.RegisterRoutes(router, issuer, authService, userService, catalogService, reviewService)

	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s", cfg.ServerAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Println("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("Server stopped.")
	return nil
}
