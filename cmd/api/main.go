package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	appconfig "inkwell/internal/config"
	pgRepo "inkwell/internal/infra/adapter/persistence/postgres"
	"inkwell/internal/infra/db"
	"inkwell/internal/infra/notifier"
	"inkwell/internal/markdown"
	"inkwell/internal/observability/logging"
	"inkwell/internal/observability/metrics"
	"inkwell/internal/observability/slo"
	"inkwell/internal/observability/tracing"
	"inkwell/pkg/config"
	"inkwell/pkg/ratelimit"
	"inkwell/pkg/security/csp"

	entryUC "inkwell/internal/usecase/entry"
	"inkwell/internal/usecase/notify"

	hhttp "inkwell/internal/handler/http"
	hauth "inkwell/internal/handler/http/auth"
	hentry "inkwell/internal/handler/http/entry"
	"inkwell/internal/handler/http/middleware"
	"inkwell/internal/handler/http/requestid"
	authservice "inkwell/internal/service/auth"

	_ "inkwell/docs" // swagger docs
)

// @title           Inkwell Blog API
// @version         1.0
// @description     個人ブログのバックエンド REST API
// @description     エントリの公開・閲覧とAtomフィード配信を提供します。

// @contact.name   Inkwell
// @contact.email  author@inkwell.blog

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT トークンによる認証。ヘッダーに "Bearer {token}" 形式で指定してください。

func main() {
	logger := initLogger()
	validateAdminCredentials(logger)
	validateViewerCredentials(logger)
	validateJWTSecret(logger)

	siteCfg := loadSiteConfig(logger)
	securityCfg := loadSecurityConfig(logger)
	// 公開エンドポイントのリストを設定ファイルと一致させる
	hauth.SetPublicEndpoints(securityCfg.GetPublicEndpoints())

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	serverComponents := setupServer(logger, database, siteCfg, securityCfg, version)

	runServer(logger, serverComponents, version)
}

// initLogger initializes the process-wide structured logger.
func initLogger() *slog.Logger {
	logger := logging.NewLogger()
	slog.SetDefault(logger)
	return logger
}

// validateAdminCredentials aborts startup when the author account is
// missing or guessable; a weak password here exposes the compose surface.
func validateAdminCredentials(logger *slog.Logger) {
	if err := hauth.ValidateAdminCredentials(); err != nil {
		logger.Error("admin credentials validation failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// validateViewerCredentials checks the optional demo account. A bad viewer
// config only disables that role; the blog keeps running author-only.
func validateViewerCredentials(logger *slog.Logger) {
	_ = hauth.ValidateViewerCredentials(logger)
}

// validateJWTSecret refuses to boot with a short or well-known signing key.
func validateJWTSecret(logger *slog.Logger) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		logger.Error("JWT_SECRET must be set")
		os.Exit(1)
	}
	// HS256 なので最低でも 256 ビット分の鍵長を要求する
	if len(secret) < 32 {
		logger.Error("JWT_SECRET must be at least 32 characters (256 bits)")
		os.Exit(1)
	}
	// ありがちな値とその "123" 付きは拒否
	weakSecrets := []string{"secret", "password", "test", "admin", "default"}
	for _, weak := range weakSecrets {
		if secret == weak || secret == weak+"123" {
			logger.Error("JWT_SECRET must not be a common weak value", slog.String("weak_value", weak))
			os.Exit(1)
		}
	}
}

// loadSiteConfig loads the blog metadata (title, author, base URL, page sizes)
// from the YAML file named by SITE_CONFIG_PATH, falling back to the
// development defaults when the variable is unset.
func loadSiteConfig(logger *slog.Logger) *appconfig.SiteConfig {
	path := os.Getenv("SITE_CONFIG_PATH")
	if path == "" {
		logger.Info("SITE_CONFIG_PATH not set, using default site configuration")
		return appconfig.DefaultSiteConfig()
	}

	cfg, err := appconfig.LoadSiteConfig(path)
	if err != nil {
		logger.Error("failed to load site configuration",
			slog.String("path", path), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("site configuration loaded",
		slog.String("path", path),
		slog.String("title", cfg.GetTitle()),
		slog.String("base_url", cfg.GetBaseURL()))
	return cfg
}

// loadSecurityConfig loads the auth provider and public endpoint list from the
// YAML file named by SECURITY_CONFIG_PATH. The default keeps the whole reading
// surface public; a narrowed list turns the blog members-only.
func loadSecurityConfig(logger *slog.Logger) *appconfig.SecurityConfig {
	path := os.Getenv("SECURITY_CONFIG_PATH")
	if path == "" {
		logger.Info("SECURITY_CONFIG_PATH not set, using default security configuration")
		return appconfig.DefaultSecurityConfig()
	}

	cfg, err := appconfig.LoadSecurityConfig(path)
	if err != nil {
		logger.Error("failed to load security configuration",
			slog.String("path", path), slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("security configuration loaded",
		slog.String("path", path),
		slog.String("auth_provider", cfg.GetAuthProvider()),
		slog.Int("public_endpoints", len(cfg.GetPublicEndpoints())))
	return cfg
}

// initDatabase opens the pool from DATABASE_URL and applies pending
// migrations before anything serves traffic.
func initDatabase(logger *slog.Logger) *sql.DB {
	database, err := db.Open(os.Getenv("DATABASE_URL"))
	if err != nil {
		logger.Error("failed to open database", slog.Any("error", err))
		os.Exit(1)
	}
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// getVersion reads VERSION, defaulting to "dev" for local runs.
func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// ServerComponents is what runServer needs beyond the handler itself: the
// pieces with background loops or shutdown hooks.
type ServerComponents struct {
	Handler     http.Handler
	NotifySvc   notify.Service
	IPStore     *ratelimit.MemoryStore
	IPAlgorithm *ratelimit.SlidingWindow
	IPWindow    time.Duration
	AuthLimiter *middleware.AuthRateLimiter
}

// setupServer assembles the entry usecase, announcement channels, rate
// limiting, and the route tree into one handler.
func setupServer(logger *slog.Logger, database *sql.DB, siteCfg *appconfig.SiteConfig, securityCfg *appconfig.SecurityConfig, version string) *ServerComponents {
	entrySvc := entryUC.Service{
		Repo:      pgRepo.NewEntryRepo(database),
		Renderer:  markdown.NewGoldmarkRenderer(),
		HomeLimit: siteCfg.GetEntriesPerHome(),
		FeedLimit: siteCfg.GetEntriesPerFeed(),
	}

	// Prime the entries gauge so it is meaningful before the first sweep
	primeEntriesGauge(logger, &entrySvc)

	notifySvc := setupAnnouncements(logger, siteCfg)

	rateLimitCfg := config.LoadRateLimitConfig()
	cspCfg := config.LoadCSPConfig()

	// Trusted proxy configuration decides how the client IP is resolved.
	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var ipExtractor middleware.IPExtractor
	if proxyConfig.Enabled {
		ipExtractor = middleware.NewTrustedProxyExtractor(*proxyConfig)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		ipExtractor = &middleware.RemoteAddrExtractor{}
		logger.Info("rate limiting: using RemoteAddr (secure mode, proxy headers ignored)")
	}

	var ipRateLimiter *middleware.IPRateLimiter
	var ipStore *ratelimit.MemoryStore
	var ipAlgorithm *ratelimit.SlidingWindow
	var ipBreaker *ratelimit.Breaker

	if rateLimitCfg.Enabled {
		rlMetrics := ratelimit.NewPrometheusMetrics()

		ipStore = ratelimit.NewMemoryStore(ratelimit.MemoryStoreOptions{
			MaxKeys: rateLimitCfg.MaxKeys,
			Metrics: rlMetrics,
			Limiter: "ip",
		})
		ipAlgorithm = ratelimit.NewSlidingWindow(ratelimit.SystemClock{})
		ipBreaker = ratelimit.NewBreaker(ratelimit.BreakerConfig{
			FailureThreshold: rateLimitCfg.BreakerFailureThreshold,
			RecoveryTimeout:  rateLimitCfg.BreakerRecoveryTimeout,
			Metrics:          rlMetrics,
			Limiter:          "ip",
		})

		ipRateLimiter = middleware.NewIPRateLimiter(
			middleware.IPRateLimiterConfig{
				Limit:   rateLimitCfg.IPLimit,
				Window:  rateLimitCfg.IPWindow,
				Enabled: true,
			},
			ipExtractor,
			ipStore,
			ipAlgorithm,
			rlMetrics,
			ipBreaker,
		)

		logger.Info("rate limiting initialized",
			slog.Int("ip_limit", rateLimitCfg.IPLimit),
			slog.Duration("ip_window", rateLimitCfg.IPWindow),
			slog.Int("auth_limit", rateLimitCfg.AuthLimit),
			slog.Duration("auth_window", rateLimitCfg.AuthWindow),
			slog.Int("max_keys", rateLimitCfg.MaxKeys),
		)
	} else {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	rootMux, authLimiter := setupRoutes(routeDeps{
		database:     database,
		version:      version,
		entrySvc:     entrySvc,
		notifySvc:    notifySvc,
		siteCfg:      siteCfg,
		securityCfg:  securityCfg,
		rateLimitCfg: rateLimitCfg,
		cspCfg:       cspCfg,
		ipExtractor:  ipExtractor,
		ipStore:      ipStore,
		ipBreaker:    ipBreaker,
		logger:       logger,
	})
	handler := applyMiddleware(logger, rootMux, ipRateLimiter, cspCfg)

	return &ServerComponents{
		Handler:     handler,
		NotifySvc:   notifySvc,
		IPStore:     ipStore,
		IPAlgorithm: ipAlgorithm,
		IPWindow:    rateLimitCfg.IPWindow,
		AuthLimiter: authLimiter,
	}
}

// primeEntriesGauge seeds the entries_total gauge at startup. The worker
// refreshes it after every sweep; priming here keeps the gauge from reading
// zero between boot and the first sweep.
func primeEntriesGauge(logger *slog.Logger, svc *entryUC.Service) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	count, err := svc.Count(ctx)
	if err != nil {
		logger.Warn("failed to prime entries gauge", slog.Any("error", err))
		return
	}
	metrics.UpdateEntriesTotal(count)
}

// setupAnnouncements wires the publish announcement channels from environment
// configuration. A service with zero channels is still valid; announcements
// are then logged at debug level and dropped.
func setupAnnouncements(logger *slog.Logger, siteCfg *appconfig.SiteConfig) notify.Service {
	var channels []notify.Channel

	if u := loadWebhookURL(logger, "Discord", "discord.com", "/api/webhooks/"); u != "" {
		cfg := notifier.DiscordConfig{Enabled: true, WebhookURL: u, Timeout: 30 * time.Second}
		channels = append(channels, notify.NewDiscordChannel(cfg, siteCfg))
		logger.Info("Discord channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Discord channel disabled")
	}

	if u := loadWebhookURL(logger, "Slack", "hooks.slack.com", "/services/"); u != "" {
		cfg := notifier.SlackConfig{Enabled: true, WebhookURL: u, Timeout: 30 * time.Second}
		channels = append(channels, notify.NewSlackChannel(cfg, siteCfg))
		logger.Info("Slack channel initialized", slog.String("status", "enabled"))
	} else {
		logger.Info("Slack channel disabled")
	}

	maxConcurrent := config.GetEnvInt("NOTIFY_MAX_CONCURRENT", 10)
	notifySvc := notify.NewService(channels, maxConcurrent)
	logger.Info("announcement service initialized",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", maxConcurrent))
	return notifySvc
}

// loadWebhookURL reads <SERVICE>_ENABLED / <SERVICE>_WEBHOOK_URL and returns
// the webhook URL, or "" when the channel is off or the URL fails validation.
// The URL must be https, on the expected host, under the expected path; a
// misconfigured URL disables the channel with a warning instead of aborting
// startup.
func loadWebhookURL(logger *slog.Logger, service, wantHost, wantPathPrefix string) string {
	envPrefix := strings.ToUpper(service)
	if os.Getenv(envPrefix+"_ENABLED") != "true" {
		return ""
	}

	webhookURL := os.Getenv(envPrefix + "_WEBHOOK_URL")
	if webhookURL == "" {
		logger.Warn(service + " webhook URL is empty, disabling announcements")
		return ""
	}

	u, err := url.Parse(webhookURL)
	switch {
	case err != nil:
		logger.Warn("Invalid "+service+" webhook URL format, disabling announcements", slog.Any("error", err))
	case u.Scheme != "https":
		logger.Warn(service + " webhook URL must use HTTPS, disabling announcements")
	case u.Host != wantHost:
		logger.Warn("Invalid "+service+" webhook host, disabling announcements", slog.String("host", u.Host))
	case !strings.HasPrefix(u.Path, wantPathPrefix):
		logger.Warn("Invalid "+service+" webhook path, disabling announcements", slog.String("path", u.Path))
	default:
		return webhookURL
	}
	return ""
}

// setupAuthService builds the credential provider named by the security
// configuration. The multi_user provider layers the read-only demo account on
// top of the admin credentials; basic knows the admin only.
func setupAuthService(securityCfg *appconfig.SecurityConfig) *authservice.AuthService {
	minLength := securityCfg.GetMinPasswordLength()
	weakPasswords := securityCfg.GetWeakPasswords()

	var provider authservice.AuthProvider
	if securityCfg.GetAuthProvider() == "multi_user" {
		provider = hauth.NewMultiUserAuthProvider(minLength, weakPasswords)
	} else {
		provider = hauth.NewBasicAuthProvider(minLength, weakPasswords)
	}

	return authservice.NewAuthService(provider, securityCfg.GetPublicEndpoints())
}

// routeDeps bundles everything setupRoutes needs to wire the endpoint tree.
type routeDeps struct {
	database     *sql.DB
	version      string
	entrySvc     entryUC.Service
	notifySvc    notify.Service
	siteCfg      *appconfig.SiteConfig
	securityCfg  *appconfig.SecurityConfig
	rateLimitCfg ratelimit.Config
	cspCfg       config.CSPConfig
	ipExtractor  middleware.IPExtractor
	ipStore      *ratelimit.MemoryStore
	ipBreaker    *ratelimit.Breaker
	logger       *slog.Logger
}

// setupRoutes builds the route tree: operational and auth endpoints stay
// public, everything else goes through the authorization layer.
func setupRoutes(deps routeDeps) (*http.ServeMux, *middleware.AuthRateLimiter) {
	// トークン発行はブルートフォースの入口なので、IP リミッタとは別に
	// 常時オンの厳しい制限をかける
	authLimiter := middleware.NewAuthRateLimiter(
		deps.rateLimitCfg.AuthLimit, deps.rateLimitCfg.AuthWindow, deps.ipExtractor)

	authService := setupAuthService(deps.securityCfg)
	tokenTTL := deps.securityCfg.TokenTTL()

	publicMux := http.NewServeMux()
	publicMux.Handle("/auth/token", authLimiter.Middleware(hauth.TokenHandler(authService, tokenTTL)))

	// ヘルスチェックエンドポイント（認証不要）
	publicMux.Handle("/health", &hhttp.HealthHandler{
		DB:                 deps.database,
		Version:            deps.version,
		RateLimiterEnabled: deps.rateLimitCfg.Enabled,
		IPStore:            deps.ipStore,
		IPBreaker:          deps.ipBreaker,
		AuthLimiterIPs:     authLimiter.ActiveIPs,
		CSPEnabled:         deps.cspCfg.Enabled,
		CSPReportOnly:      deps.cspCfg.ReportOnly,
	})
	publicMux.Handle("/ready", &hhttp.ReadyHandler{DB: deps.database})
	publicMux.Handle("/live", &hhttp.LiveHandler{})
	publicMux.Handle("/metrics", hhttp.MetricsHandler())

	// 通知チャネルのヘルスチェック（サーキットブレーカーの状態を公開）
	announceHealth := hhttp.NewAnnounceHealthHandler(deps.notifySvc)
	publicMux.HandleFunc("/health/announce", announceHealth.Health)
	publicMux.HandleFunc("/ready/announce", announceHealth.Ready)

	// Swagger UI（認証不要）
	publicMux.Handle("/swagger/", httpSwagger.WrapHandler)

	blogMux := http.NewServeMux()
	hentry.Register(blogMux, deps.entrySvc, deps.siteCfg, deps.notifySvc, deps.logger)

	// Apply authentication middleware. The reading surface passes through via
	// the configured public endpoint list; compose stays admin-only.
	protected := hauth.Authz(blogMux)

	rootMux := http.NewServeMux()
	rootMux.Handle("/auth/token", publicMux)
	rootMux.Handle("/health", publicMux)
	rootMux.Handle("/health/announce", publicMux)
	rootMux.Handle("/ready", publicMux)
	rootMux.Handle("/ready/announce", publicMux)
	rootMux.Handle("/live", publicMux)
	rootMux.Handle("/metrics", publicMux)
	rootMux.Handle("/swagger/", publicMux)
	rootMux.Handle("/", protected)

	return rootMux, authLimiter
}

// applyMiddleware builds the request pipeline around the route tree. Outermost
// first: CORS, request ID, tracing, IP rate limit, recovery, logging, input
// validation, body limit, CSP, metrics, timeout. Auth sits inside the routes.
func applyMiddleware(logger *slog.Logger, handler http.Handler, ipRateLimiter *middleware.IPRateLimiter, cspCfg config.CSPConfig) http.Handler {
	corsConfig, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}
	corsConfig.Logger = &middleware.SlogAdapter{Logger: logger}

	logger.Info("CORS enabled",
		slog.Int("allowed_origins_count", len(corsConfig.Validator.GetAllowedOrigins())),
		slog.Any("allowed_origins", corsConfig.Validator.GetAllowedOrigins()),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Any("allowed_headers", corsConfig.AllowedHeaders),
		slog.Int("max_age", corsConfig.MaxAge))

	// CSP: API 全体は厳格ポリシー、Swagger UI だけインライン許可
	cspMW := middleware.NewCSP(middleware.CSPConfig{
		Enabled:    cspCfg.Enabled,
		ReportOnly: cspCfg.ReportOnly,
		Default:    csp.Strict(),
		PathPolicies: map[string]*csp.Policy{
			"/swagger/": csp.SwaggerUI(),
		},
	})
	if cspCfg.Enabled {
		logger.Info("CSP enabled", slog.Bool("report_only", cspCfg.ReportOnly))
	} else {
		logger.Warn("CSP is disabled")
	}

	// Outermost first. Rate limiting sits outside recovery and logging so
	// rejected requests stay cheap; metrics and timeout sit innermost so the
	// 504 from a timed-out handler is still counted.
	wrappers := []func(http.Handler) http.Handler{
		middleware.CORS(*corsConfig),
		requestid.Middleware,
		tracing.Middleware,
	}
	if ipRateLimiter != nil {
		wrappers = append(wrappers, ipRateLimiter.Middleware())
	}
	wrappers = append(wrappers,
		hhttp.Recover(logger),
		hhttp.Logging(logger),
		hhttp.InputValidation(),
		hhttp.LimitRequestBody(1<<20), // 1MB
		cspMW.Middleware,
		hhttp.MetricsMiddleware,
		hhttp.Timeout(30*time.Second),
	)

	for i := len(wrappers) - 1; i >= 0; i-- {
		handler = wrappers[i](handler)
	}
	return handler
}

// runServer runs the HTTP server until SIGINT/SIGTERM, then drains it:
// background sweepers first, then open connections, then in-flight
// announcements.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Limiter state is swept for the life of the server.
	cleanupInterval := hhttp.LoadCleanupInterval()

	if components.IPStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.IPStore, components.IPAlgorithm, cleanupInterval, components.IPWindow)
		logger.Info("IP rate limit cleanup started",
			slog.Duration("interval", cleanupInterval),
			slog.Duration("window", components.IPWindow))
	}

	if components.AuthLimiter != nil {
		go hhttp.StartAuthLimiterCleanup(ctx, components.AuthLimiter, cleanupInterval)
		logger.Info("auth rate limit cleanup started",
			slog.Duration("interval", cleanupInterval))
	}

	// Flush the SLO measurement window into gauges periodically
	go slo.Default().StartUpdater(ctx, 30*time.Second)
	logger.Info("SLO updater started", slog.Duration("interval", 30*time.Second))

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // bound slow header writes
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", ":8080"),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	// 背景ループ（レートリミット掃除、SLO 更新）を先に止める
	cancel()
	logger.Debug("background cleanup goroutines cancelled")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}

	// Let in-flight publish announcements finish before the process exits.
	if components.NotifySvc != nil {
		notifyCtx, notifyCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer notifyCancel()
		if err := components.NotifySvc.Shutdown(notifyCtx); err != nil {
			logger.Warn("announcement service shutdown timed out", slog.Any("error", err))
		}
	}

	logger.Info("server stopped")
}
