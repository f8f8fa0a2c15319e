package http

import (
	"log/slog"

	"github.com/carebridge/userhub/internal/config"
	"github.com/carebridge/userhub/internal/http/handlers"
	"github.com/carebridge/userhub/internal/http/middlewares"
	"github.com/carebridge/userhub/internal/observability"
	"github.com/carebridge/userhub/internal/ratelimit"
	"github.com/carebridge/userhub/internal/rbac"
	"github.com/carebridge/userhub/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20 // 1 MiB; no endpoint takes larger payloads

// Deps carries everything the router wires up. All collaborators are
// injected; nothing here reaches for package-level state.
type Deps struct {
	Cfg     config.Config
	Log     *slog.Logger
	Store   store.UserStore
	Auth    handlers.AuthService
	Authz   middlewares.Authorizer
	Limiter ratelimit.Limiter
	// APILimiter throttles the authenticated surface per user; Limiter
	// covers the credential endpoints per client IP.
	APILimiter ratelimit.Limiter
	Prom    *observability.Prom
	Ready   []handlers.ReadyCheck
	Tracing bool
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(RequestID())
	if d.Tracing {
		r.Use(otelgin.Middleware("userhub"))
	}
	r.Use(RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.AllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))

	// health + metrics stay outside auth and rate limits
	health := handlers.NewHealthHandler(d.Ready...)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authn := middlewares.NewAuthMiddleware(d.Authz)

	authHandler := handlers.NewAuthHandler(d.Auth)
	usersHandler := handlers.NewUsersHandler(d.Store)
	permsHandler := handlers.NewPermissionsHandler()

	// credential endpoints: JSON only, rate limited by client IP
	authGroup := r.Group("/auth", middlewares.RequireJSON())
	if d.Limiter != nil {
		authGroup.Use(middlewares.RateLimit(d.Limiter, middlewares.KeyByIP, d.Log))
	}
	authGroup.POST("/login", authHandler.Login)
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/refresh", authHandler.Refresh)

	// authenticated endpoints throttle per user; it runs after the auth
	// middleware so the key is the user id, not the shared proxy IP
	rateByUser := func(c *gin.Context) { c.Next() }
	if d.APILimiter != nil {
		rateByUser = middlewares.RateLimit(d.APILimiter, middlewares.KeyByUserOrIP, d.Log)
	}

	// user registry
	users := r.Group("/users")
	users.GET("", authn.RequirePermission(rbac.PermViewUsers), rateByUser, usersHandler.List)
	users.GET("/summary", authn.RequirePermission(rbac.PermViewUsers), rateByUser, usersHandler.Summary)
	users.GET("/:id", authn.RequirePermission(rbac.PermViewUsers), rateByUser, usersHandler.Get)
	users.POST("", middlewares.RequireJSON(), authn.RequirePermission(rbac.PermCreateUsers), rateByUser, usersHandler.Create)
	// self-or-admin decisions live in the handler; the middleware only
	// establishes identity
	users.PUT("/:id", middlewares.RequireJSON(), authn.RequireAuth(), rateByUser, usersHandler.Update)
	users.DELETE("/:id", authn.RequireAuth(), rateByUser, usersHandler.Delete)

	// the caller's own account
	me := r.Group("/me", authn.RequireAuth(), rateByUser)
	me.GET("", usersHandler.Me)
	me.PUT("", middlewares.RequireJSON(), usersHandler.Update)
	me.DELETE("", usersHandler.Delete)

	// role introspection
	r.GET("/permissions", authn.RequireAuth(), rateByUser, permsHandler.List)
	r.GET("/permissions/check/:permission", authn.RequireAuth(), rateByUser, permsHandler.Check)
	r.GET("/routes", authn.RequireAuth(), rateByUser, permsHandler.Routes)
	r.GET("/role-info", authn.RequireAuth(), rateByUser, permsHandler.RoleInfo)

	return r
}
