package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"filevault/internal/config"
	"filevault/internal/handler"
	"filevault/internal/middleware"
	"filevault/internal/repository/postgres"
	postgresVault "filevault/internal/repository/postgres/vault"
	serviceVault "filevault/internal/service/vault"
	"filevault/internal/storage/blob"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer closeLog()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
		"blob_backend", cfg.Blob.Backend,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.RunMigrations(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	logger.Info("database ready")

	blobs, err := blob.NewFromConfig(ctx, cfg.Blob, logger)
	if err != nil {
		log.Fatalf("Failed to create blob store: %v", err)
	}
	if err := blobs.ValidateSetup(ctx); err != nil {
		log.Fatalf("Blob store is not usable: %v", err)
	}

	// Create repositories
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	folderRepo := postgresVault.NewFolderRepository(repoConfig)
	fileRepo := postgresVault.NewFileRepository(repoConfig)
	revisionRepo := postgresVault.NewRevisionRepository(repoConfig)
	permRepo := postgresVault.NewPermissionRepository(repoConfig)
	gate := postgresVault.NewAccessGate(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create services
	resolver := serviceVault.NewResolver(gate, folderRepo, permRepo, logger)
	authorizer := serviceVault.NewAuthorizer(gate, resolver)
	folderService := serviceVault.NewFolderService(folderRepo, fileRepo, txManager, authorizer, resolver, logger)
	fileService := serviceVault.NewFileService(fileRepo, revisionRepo, folderRepo, blobs, txManager, authorizer, logger)
	permService := serviceVault.NewPermissionService(permRepo, folderRepo, gate, txManager, authorizer, resolver, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux, handler.Handlers{
		Folders:     handler.NewFolderHandler(folderService, logger),
		Files:       handler.NewFileHandler(fileService, cfg.MaxUploadBytes, logger),
		Permissions: handler.NewPermissionHandler(permService, logger),
		Health:      handler.NewHealthHandler(pool, blobs, logger),
	})

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Identity → Routes
	var h http.Handler = mux
	h = middleware.Identity("/health")(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to answer OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", middleware.UserIDHeader},
		ExposedHeaders:   []string{"Content-Disposition", "X-Revision-No"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // Disabled so large downloads are not cut off
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", "error", err)
		}
	}()

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("server stopped")
}
