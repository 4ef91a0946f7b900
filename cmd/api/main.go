package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	appcontext "github.com/quantract/certledger/internal/app_context"
	"github.com/quantract/certledger/internal/audit"
	"github.com/quantract/certledger/internal/auth"
	"github.com/quantract/certledger/internal/config"
	"github.com/quantract/certledger/internal/controller"
	"github.com/quantract/certledger/internal/database"
	"github.com/quantract/certledger/internal/env"
	filestorage "github.com/quantract/certledger/internal/file_storage"
	"github.com/quantract/certledger/internal/ledger"
	"github.com/quantract/certledger/internal/metrics"
	"github.com/quantract/certledger/internal/middleware"
	"github.com/quantract/certledger/internal/queue"
	ratelimiter "github.com/quantract/certledger/internal/rate_limiter"
	"github.com/quantract/certledger/internal/repository"
	"github.com/quantract/certledger/internal/route"
	"github.com/quantract/certledger/internal/util"
	"github.com/quantract/certledger/internal/verification"
	"github.com/quantract/certledger/pkg/certpdf"
	"go.uber.org/zap"
)

// this function run before main
func init() {
	env.LoadEnv(".env")
}

func main() {
	cfg := config.GetConfig()

	logger := util.NewLogger(cfg.ENV)
	logger.Debugf("Configuration: %+v \n", cfg)

	if cfg.Auth.JWT_SECRET == "" {
		logger.Panic("AUTH_JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectReturnGormDB(cfg.DB)
	if err != nil {
		logger.Panic(err)
	}

	sqlDb, err := db.DB()
	if err != nil {
		logger.Panic(err)
	}
	defer sqlDb.Close()
	logger.Info("Database connected \n")

	blobs, err := newBlobStore(ctx, cfg, logger)
	if err != nil {
		logger.Panic(err)
	}

	generator, err := certpdf.NewGenerator(&certpdf.Config{
		FontDir:    cfg.Renderer.FontDir,
		FontFamily: cfg.Renderer.FontFamily,
		TmpDir:     cfg.Renderer.TmpDir,
		QRCodeSize: cfg.Renderer.QRCodeSize,
	})
	if err != nil {
		logger.Panic(err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// Custom validation
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := util.RegisterValidations(v); err != nil {
			logger.Panic(err)
		}
	}

	repo := repository.NewRepository(db, logger)

	writers := []audit.Writer{repo.AuditLog}
	if cfg.RabbitMQ.Enabled {
		mq, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			logger.Panic(err)
		}
		defer mq.Close()
		writers = append(writers, mq)
		logger.Infof("Publishing certificate events to exchange %s", cfg.RabbitMQ.Exchange)
	}
	recorder := audit.NewRecorder(audit.Config{
		Workers:   util.DetermineWorkers(cfg.Audit.Workers),
		QueueSize: cfg.Audit.QueueSize,
		Timeout:   cfg.Audit.Timeout,
	}, logger, m, writers...)

	store := repository.NewLedgerStore(repo)
	renderer := ledger.NewPDFRenderer(generator, m)
	branding := ledger.StaticBranding{
		CompanyName:   cfg.Issuance.CompanyName,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	jwtService := auth.NewJwt(cfg.Auth, logger)
	app := appcontext.Application{
		Config:     &cfg,
		Repository: repo,
		Logger:     logger,
		JWTService: jwtService,
		Ledger: ledger.NewService(store, blobs, renderer, branding, logger,
			ledger.Config{MaxAttempts: cfg.Issuance.MaxAttempts},
			ledger.WithEvents(recorder), ledger.WithMetrics(m)),
		Gate: verification.NewGate(store, blobs, renderer, branding, logger,
			verification.WithEvents(recorder), verification.WithMetrics(m)),
		Metrics: m,
	}

	_middleware := middleware.NewMiddleware(&app,
		ratelimiter.NewRateLimiter(cfg.RateLimiter, logger),
		ratelimiter.NewRateLimiter(cfg.VerifyRateLimiter, logger),
	)

	if cfg.IsProduction() {
		logger.Info("Running in production mode")
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()

	// docs: https://github.com/gin-contrib/cors?tab=readme-ov-file#using-defaultconfig-as-start-point
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "Accept"}
	corsConfig.ExposeHeaders = []string{"Content-Disposition", "ETag", "Retry-After"}
	r.Use(cors.New(corsConfig))

	r.GET("/metrics", gin.WrapH(m.Handler()))
	route.Setup(r, controller.NewController(&app), _middleware)

	srv := &http.Server{
		Addr:              "0.0.0.0:" + app.Config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Panicf("Error running server: %v \n", err)
		}
	}()
	logger.Infof("Listening on %s", srv.Addr)

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server shutdown: %v", err)
	}
	if err := recorder.Close(shutdownCtx); err != nil {
		logger.Warnf("Audit events not flushed: %v", err)
	}
}

func newBlobStore(ctx context.Context, cfg config.Config, logger *zap.SugaredLogger) (filestorage.Store, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMinio:
		client, err := filestorage.NewMinioClient(&cfg.Minio)
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		initCtx, cancel := context.WithTimeout(ctx, cfg.Storage.Timeout)
		defer cancel()
		return filestorage.NewMinioStore(initCtx, client, cfg.Minio.BUCKET, logger)
	case config.StorageDriverLocal:
		return filestorage.NewLocalStore(cfg.Storage.LocalDir)
	case config.StorageDriverMemory:
		logger.Warn("Using in-memory blob storage; PDFs are lost on restart and regenerated on demand")
		return filestorage.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)
	}
}
