package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/locvowork/hr_onboarding_portal/internal/config"
	"github.com/locvowork/hr_onboarding_portal/internal/database"
	"github.com/locvowork/hr_onboarding_portal/internal/domain"
	"github.com/locvowork/hr_onboarding_portal/internal/handler"
	"github.com/locvowork/hr_onboarding_portal/internal/logger"
	"github.com/locvowork/hr_onboarding_portal/internal/mailer"
	"github.com/locvowork/hr_onboarding_portal/internal/messaging"
	"github.com/locvowork/hr_onboarding_portal/internal/repository"
	"github.com/locvowork/hr_onboarding_portal/internal/repository/memory"
	"github.com/locvowork/hr_onboarding_portal/internal/service"
	"github.com/locvowork/hr_onboarding_portal/internal/service/serviceutils"
	"github.com/locvowork/hr_onboarding_portal/internal/session"
	"github.com/locvowork/hr_onboarding_portal/internal/storage"
)

// bodyLimit leaves room for a 5MB document plus multipart overhead.
const bodyLimit = "6M"

type App struct {
	Echo *echo.Echo
	DB   *sql.DB

	Employees domain.EmployeeRepository
	Forms     domain.FormRepository
	Documents domain.DocumentRepository
	AuditLog  domain.AuditLog
	Directory domain.Directory
	Publisher domain.Publisher
	Files     *storage.LocalStore
	Tokens    *session.Manager

	closers []func() error
}

func NewApp() *App {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = serviceutils.HTTPErrorHandler
	return &App{Echo: e}
}

// Initialize wires the infrastructure, the services and the HTTP surface.
func (a *App) Initialize(ctx context.Context) error {
	if err := a.InitInfrastructure(ctx); err != nil {
		return err
	}

	cfg := config.DefaultEnvConfig
	authSvc := service.NewAuthService(a.Employees, a.Tokens, a.AuditLog, a.Directory)
	empSvc := service.NewEmployeeService(a.Employees, a.Forms, a.Directory, a.AuditLog)
	formSvc := service.NewFormService(a.Employees, a.Forms, a.Files, a.AuditLog)
	docSvc := service.NewDocumentService(a.Employees, a.Documents, a.Files, a.AuditLog)
	emailSvc := service.NewEmailService(a.Employees, mailer.New(a.Publisher, mailer.DefaultPortalName, cfg.PORTAL_URL), a.AuditLog)
	exportSvc := service.NewExportService(empSvc)
	reindexSvc := service.NewReindexService(a.Employees, a.Directory)

	a.RegisterMiddlewares()
	a.RegisterRoutes(Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		Employee: handler.NewEmployeeHandler(empSvc, exportSvc),
		Form:     handler.NewFormHandler(formSvc),
		Document: handler.NewDocumentHandler(docSvc),
		Email:    handler.NewEmailHandler(emailSvc),
		Admin:    handler.NewAdminHandler(reindexSvc),
	})
	return nil
}

// InitInfrastructure loads configuration and opens stores and integrations without
// touching HTTP. Command line tools stop here.
func (a *App) InitInfrastructure(ctx context.Context) error {
	if err := config.LoadEnvConfig(); err != nil {
		return fmt.Errorf("failed to load env config: %w", err)
	}
	cfg := config.DefaultEnvConfig

	logger.InitLogging(LogOptions("portal"))
	logger.InfoLog(ctx, "Environment variables loaded successfully")

	if err := a.initStores(ctx); err != nil {
		return err
	}
	a.initDirectory(ctx)
	a.initPublisher(ctx)

	files, err := storage.NewLocalStore(cfg.UPLOAD_DIR)
	if err != nil {
		return fmt.Errorf("failed to prepare upload dir: %w", err)
	}
	a.Files = files
	a.Tokens = session.NewManager(cfg.JWT_SECRET, cfg.JWT_TTL)
	return nil
}

// LogOptions maps the LOG_* settings for a named binary.
func LogOptions(service string) logger.Options {
	cfg := config.DefaultEnvConfig
	return logger.Options{FilePath: cfg.LOG_FILE_PATH, Level: cfg.LOG_LEVEL, Format: cfg.LOG_FORMAT, Service: service}
}

func dbConfig() database.Config {
	cfg := config.DefaultEnvConfig
	return database.Config{
		Host:            cfg.DB_HOST,
		Port:            cfg.DB_PORT,
		User:            cfg.DB_USER,
		Password:        cfg.DB_PASSWORD,
		DBName:          cfg.DB_NAME,
		SSLMode:         cfg.DB_SSL_MODE,
		MaxOpenConns:    cfg.DB_MAX_OPEN_CONNS,
		MaxIdleConns:    cfg.DB_MAX_IDLE_CONNS,
		ConnMaxLifetime: cfg.DB_CONN_MAX_LIFETIME,
	}
}

func (a *App) initStores(ctx context.Context) error {
	cfg := config.DefaultEnvConfig

	switch cfg.STORE_DRIVER {
	case config.StoreDriverMemory:
		store := memory.New()
		a.Employees, a.Forms, a.Documents = store.Employees(), store.Forms(), store.Documents()
		a.AuditLog = store.AuditLog()
		logger.WarnLog(ctx, "Using in-memory store, data is lost on restart")

		numHR, perStage := database.GetPresetConfig(database.PresetSmall)
		res, err := database.NewDataSeeder(a.Employees, a.Forms, cfg.SEED_DEFAULT_PASSWORD).SeedData(ctx, numHR, perStage)
		if err != nil {
			return fmt.Errorf("failed to seed memory store: %w", err)
		}
		logger.InfoLog(ctx, "Seeded memory store with %d HR and %d employees", res.HR, res.Employees)

	case config.StoreDriverPostgres:
		if cfg.DB_AUTO_MIGRATE {
			st, err := database.Migrate(dbConfig(), database.MigrateUp)
			if err != nil {
				return err
			}
			logger.InfoLog(ctx, "Database schema at version %d", st.Version)
		}
		db, err := database.NewPostgresDB(ctx, dbConfig())
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		a.DB = db
		a.closers = append(a.closers, db.Close)
		a.Employees = repository.NewEmployeeRepository(db)
		a.Forms = repository.NewFormRepository(db)
		a.Documents = repository.NewDocumentRepository(db)

	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", cfg.STORE_DRIVER)
	}

	if cfg.DATASTORE_PROJECT_ID != "" {
		audit, err := database.NewDatastoreAuditLog(ctx, cfg.DATASTORE_PROJECT_ID)
		if err != nil {
			return fmt.Errorf("failed to connect to datastore: %w", err)
		}
		a.AuditLog = audit
		a.closers = append(a.closers, audit.Close)
	}
	if a.AuditLog == nil {
		logger.WarnLog(ctx, "DATASTORE_PROJECT_ID not set, audit trail kept in memory")
		a.AuditLog = memory.New().AuditLog()
	}
	return nil
}

// initDirectory connects Elasticsearch. Search falls back to the roster when it is unavailable.
func (a *App) initDirectory(ctx context.Context) {
	cfg := config.DefaultEnvConfig
	if cfg.ELASTIC_URL == "" {
		logger.InfoLog(ctx, "ELASTIC_URL not set, directory search disabled")
		return
	}
	dir, err := database.NewElasticDirectory(cfg.ELASTIC_URL, cfg.ELASTIC_INDEX)
	if err == nil {
		err = dir.EnsureIndex(ctx)
	}
	if err != nil {
		logger.WarnLog(ctx, "Directory search disabled: %v", err)
		return
	}
	a.Directory = dir
}

func (a *App) initPublisher(ctx context.Context) {
	cfg := config.DefaultEnvConfig
	if cfg.KAFKA_BROKER == "" {
		logger.InfoLog(ctx, "KAFKA_BROKER not set, emails are logged")
		a.Publisher = messaging.LogPublisher{}
		return
	}
	pub := messaging.NewKafkaPublisher(cfg.KAFKA_BROKER, cfg.KAFKA_EMAIL_TOPIC)
	a.Publisher = pub
	a.closers = append(a.closers, pub.Close)
}

func (a *App) RegisterMiddlewares() {
	a.Echo.Use(middleware.RequestID())
	a.Echo.Use(requestContext())
	a.Echo.Use(requestLogger())
	a.Echo.Use(middleware.Recover())
	a.Echo.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.DefaultEnvConfig.CORS_ORIGINS,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	a.Echo.Use(middleware.BodyLimit(bodyLimit))
}

// Handlers groups every HTTP handler the router needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Employee *handler.EmployeeHandler
	Form     *handler.FormHandler
	Document *handler.DocumentHandler
	Email    *handler.EmailHandler
	Admin    *handler.AdminHandler
}

var publicRoutes = map[string]bool{
	"/api/auth/login":          true,
	"/api/auth/reset-password": true,
}

func (a *App) RegisterRoutes(h Handlers) {
	a.Echo.GET("/healthz", handler.HealthHandler)

	api := a.Echo.Group("/api", a.Tokens.Middleware(func(c echo.Context) bool {
		return publicRoutes[c.Path()]
	}, a.Employees))

	auth := api.Group("/auth")
	auth.POST("/register", h.Auth.RegisterHandler)
	auth.POST("/login", h.Auth.LoginHandler)
	auth.POST("/reset-password", h.Auth.ResetPasswordHandler)

	emp := api.Group("/employees")
	emp.GET("", h.Employee.ListHandler)
	emp.GET("/roster", h.Employee.RosterHandler)
	emp.GET("/search", h.Employee.SearchHandler)
	emp.GET("/export", h.Employee.ExportHandler)
	emp.GET("/dashboard-stats", h.Employee.DashboardStatsHandler)
	emp.GET("/me", h.Employee.MeHandler)
	emp.GET("/me/navigation", h.Employee.NavigationHandler)
	emp.GET("/me/guard", h.Employee.GuardHandler)
	emp.PUT("/me/basic-info", h.Employee.SaveBasicInfoHandler)
	emp.GET("/my-hr", h.Employee.MyHRHandler)
	emp.GET("/:id", h.Employee.GetHandler)
	emp.PUT("/:id", h.Employee.UpdateHandler)
	emp.DELETE("/:id", h.Employee.DeactivateHandler)
	emp.POST("/:id/activate", h.Employee.ActivateHandler)
	emp.POST("/:id/verify-basic-info", h.Employee.VerifyBasicInfoHandler)
	emp.POST("/:id/advance-stage", h.Employee.AdvanceStageHandler)
	emp.PUT("/:id/form-access", h.Employee.FormAccessHandler)
	emp.GET("/:id/audit", h.Employee.AuditHandler)

	forms := api.Group("/forms")
	forms.GET("/auto-fill/:employeeId", h.Form.AutoFillHandler)
	forms.GET("/employee/:employeeId", h.Form.ListForEmployeeHandler)
	forms.POST("/:formName", h.Form.SaveHandler)
	forms.GET("/:formName", h.Form.GetHandler)
	forms.POST("/:formName/verify/:employeeId", h.Form.VerifyHandler)

	docs := api.Group("/documents")
	docs.GET("/required", h.Document.RequiredHandler)
	docs.GET("", h.Document.ListMineHandler)
	docs.GET("/employee/:employeeId", h.Document.ListForEmployeeHandler)
	docs.POST("", h.Document.UploadHandler)
	docs.GET("/:id/file", h.Document.DownloadHandler)
	docs.DELETE("/:id", h.Document.DeleteHandler)
	docs.POST("/:id/verify", h.Document.VerifyHandler)

	email := api.Group("/email")
	email.POST("/send-welcome", h.Email.SendWelcomeHandler)
	email.POST("/send-admin-welcome", h.Email.SendAdminWelcomeHandler)

	api.POST("/admin/reindex", h.Admin.ReindexHandler)
}

// Run serves until ctx is cancelled, then drains in-flight requests and closes integrations.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + config.DefaultEnvConfig.APP_PORT
		logger.InfoLog(ctx, "HTTP server listening on %s", addr)
		errCh <- a.Echo.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.InfoLog(ctx, "Shutting down HTTP server")
	timeout := config.DefaultEnvConfig.SHUTDOWN_TIMEOUT
	if timeout < shutdownGrace {
		timeout = shutdownGrace
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.Echo.Shutdown(shutdownCtx)
}

// Close releases every opened integration in reverse order.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.WarnLog(context.Background(), "close failed: %v", err)
		}
	}
	a.closers = nil
}

// requestContext attaches the request id to the request logger.
func requestContext() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Response().Header().Get(echo.HeaderXRequestID)
			ctx := logger.WithLogger(c.Request().Context(), map[string]interface{}{"request_id": id})
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Event(c.Request().Context()).
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// shutdownGrace is the floor applied when SHUTDOWN_TIMEOUT is misconfigured.
const shutdownGrace = time.Second
