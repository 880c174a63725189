package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lingo_edu_backend/internal/config"
	"lingo_edu_backend/internal/controller"
	"lingo_edu_backend/internal/repository"
	"lingo_edu_backend/internal/service"
	"lingo_edu_backend/internal/worker"
	"lingo_edu_backend/pkg/database"
	"lingo_edu_backend/pkg/logger"
	"lingo_edu_backend/pkg/monitoring"
	"lingo_edu_backend/pkg/security"
	"lingo_edu_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	pool            *worker.Pool
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user       *repository.UserRepository
	curriculum *repository.CurriculumRepository
	progress   *repository.ProgressRepository
	assessment *repository.AssessmentRepository
	exercise   *repository.ExerciseRepository
	revocation repository.RevocationStore
}

type services struct {
	token      *service.TokenService
	auth       *service.AuthService
	user       *service.UserService
	progress   *service.ProgressService
	exercise   *service.ExerciseService
	assessment *service.AssessmentService
	storage    *service.StorageService
}

type controllers struct {
	auth       *controller.AuthController
	user       *controller.UserController
	learning   *controller.LearningController
	assessment *controller.AssessmentController
	exercise   *controller.ExerciseController
	admin      *controller.AdminController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) ConfigCallbacks() []func(*config.Config) {
	return a.configCallbacks
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:       repository.NewUserRepository(db),
		curriculum: repository.NewCurriculumRepository(db),
		progress:   repository.NewProgressRepository(db),
		assessment: repository.NewAssessmentRepository(db),
		exercise:   repository.NewExerciseRepository(db),
		revocation: repository.NewRevocationStore(rdb),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB) (*services, error) {
	s := &services{}

	storage, err := service.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	s.storage = storage

	s.token = service.NewTokenService(repos.user, repos.revocation, cfg)
	s.auth = service.NewAuthService(repos.user, s.token, cfg)

	s.progress = service.NewProgressService(
		repos.curriculum,
		repos.progress,
		repos.user,
		service.NewPaymentVerifier(cfg.Payment),
		service.PolicyFirstN(cfg.Progress.InitialUnlockedModules),
		cfg.Progress,
		db,
	)
	s.exercise = service.NewExerciseService(repos.exercise, repos.curriculum, s.progress, cfg.Progress)
	s.user = service.NewUserService(repos.user, repos.curriculum, repos.progress, repos.exercise, cfg.Progress)
	s.assessment = service.NewAssessmentService(
		repos.assessment,
		repos.user,
		service.NewAIScorer(cfg.Scoring),
		a.pool,
		cfg.Scoring,
	)

	return s, nil
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:       controller.NewAuthController(s.auth, s.token),
		user:       controller.NewUserController(s.user),
		learning:   controller.NewLearningController(s.progress),
		assessment: controller.NewAssessmentController(s.assessment),
		exercise:   controller.NewExerciseController(s.exercise),
		admin:      controller.NewAdminController(repos.curriculum, s.storage),
		health:     controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
	}

	if cfg.ForceMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Log.Fatal("Failed to migrate database", zap.Error(err))
		}
		if err := database.SeedCurriculum(db); err != nil {
			logger.Log.Fatal("Failed to seed curriculum", zap.Error(err))
		}
		logger.Log.Info("Database migration complete")
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		pool:   worker.NewPool(cfg.Scoring.Workers, cfg.Scoring.QueueSize, logger.Log),
	}

	repos := app.initRepositories(db, rdb)
	services, err := app.initServices(repos, cfg, db)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	controllers := app.initControllers(services, repos, db, rdb)

	monitoring.Init()

	gin.SetMode(resolveGinMode(cfg.Server.Mode))
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("lingo-edu-backend", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	return app
}

func resolveGinMode(mode string) string {
	switch mode {
	case "release":
		return gin.ReleaseMode
	case "test":
		return gin.TestMode
	default:
		return gin.DebugMode
	}
}

func (a *App) Run() {
	a.pool.Start()

	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	// 等待已入队的评分任务收尾
	a.pool.Stop()

	log.Println("Server exiting")
}
