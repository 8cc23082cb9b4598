// launching the server, postgres, redis, event broker and the session janitor
package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"path/filepath"

	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/linkhub/config"
	"github.com/ds124wfegd/linkhub/internal/database"
	"github.com/ds124wfegd/linkhub/internal/database/postgres"
	redisrepo "github.com/ds124wfegd/linkhub/internal/database/redis"
	pgclient "github.com/ds124wfegd/linkhub/internal/pkg/postgres"
	redisclient "github.com/ds124wfegd/linkhub/internal/pkg/redis"
	"github.com/ds124wfegd/linkhub/internal/pkg/storage"
	"github.com/ds124wfegd/linkhub/internal/pkg/uploader"
	"github.com/ds124wfegd/linkhub/internal/service"
	"github.com/ds124wfegd/linkhub/internal/transport"
	"github.com/ds124wfegd/linkhub/internal/worker"
	"github.com/gin-gonic/gin"

	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       30 * time.Second, // multipart uploads of up to 10MB
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.Idle_timeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	SetupLogging(cfg)

	db, err := pgclient.NewPostgresDB(cfg)
	if err != nil {
		logrus.Fatalf("failed to initialize db: %s", err.Error())
	}
	defer db.Close()

	if err := pgclient.RunMigrations(context.Background(), db); err != nil {
		logrus.Fatalf("failed to run migrations: %s", err.Error())
	}

	userRepo := postgres.NewUserRepository(db)
	pageRepo := postgres.NewPageRepository(db)
	blockRepo := postgres.NewBlockRepository(db)
	clickRepo := postgres.NewClickRepository(db)

	// redis is optional: without it the cache is skipped and leases are
	// only exclusive within this instance
	var (
		cache  service.Cache      = service.NewNopCache()
		leases service.LeaseStore = redisrepo.NewMemoryLeaseRepository()
	)
	if redisClient := redisclient.NewRedisClient(&cfg.Redis); redisClient != nil {
		defer redisClient.Close()
		cache = redisrepo.NewCacheRepository(redisClient, cfg.App.CacheTTL)
		leases = redisrepo.NewLeaseRepository(redisClient)
	}

	fileStorage := storage.NewFileStorage(cfg.Storage.BasePath)
	assetRepo := database.NewAssetRepository(fileStorage)
	imageHost, err := uploader.New(cfg, assetRepo)
	if err != nil {
		logrus.Fatalf("failed to initialize uploader: %s", err.Error())
	}

	producer := NewEventProducer(cfg)
	defer producer.Close()

	pageService := service.NewPageService(userRepo, pageRepo, blockRepo, cache, cfg.App.WelcomeText)
	blockService := service.NewBlockService(userRepo, pageRepo, blockRepo, cache)
	analyticsService := service.NewAnalyticsService(userRepo, pageRepo, blockRepo, clickRepo, cache)
	imageService := service.NewImageService(userRepo, pageRepo, blockRepo, cache, producer)
	cropService, err := service.NewCropService(cfg.Crop, imageService, imageHost, leases)
	if err != nil {
		logrus.Fatalf("failed to initialize crop service: %s", err.Error())
	}

	mediaDir := ""
	if cfg.Upload.Provider == "local" {
		mediaDir = filepath.Join(fileStorage.Root(), uploader.AssetsDir)
	}

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := transport.InitRoutes(cfg.Server.Timeout, mediaDir,
		transport.NewCropHandler(cropService),
		transport.NewImageHandler(imageService, cropService),
		transport.NewPageHandler(pageService, blockService),
		transport.NewAnalyticsHandler(analyticsService),
	)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	go worker.NewSessionJanitor(cropService, cfg.Crop.JanitorInterval).Start(workerCtx)

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, router); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
	stopWorkers()

	if n := cropService.CancelAll(ctx); n > 0 {
		logrus.Infof("cancelled %d open crop sessions", n)
	}
}

func SetupLogging(cfg *config.Config) {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	level, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logrus.Warnf("unknown log level %q, using info", cfg.Server.LogLevel)
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
