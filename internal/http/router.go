package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bitminerobotics/platform/internal/auth"
	"github.com/bitminerobotics/platform/internal/config"
	"github.com/bitminerobotics/platform/internal/domain/user"
	"github.com/bitminerobotics/platform/internal/http/handlers"
	"github.com/bitminerobotics/platform/internal/http/middlewares"
	"github.com/bitminerobotics/platform/internal/notifications"
	"github.com/bitminerobotics/platform/internal/observability"
	"github.com/bitminerobotics/platform/internal/ratelimit"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const maxBodyBytes = 1 << 20

// Users is everything the auth, users and analytics handlers need from the
// user store.
type Users interface {
	handlers.UsersStore
	handlers.AuthUsers
	handlers.UserCounter
}

// Sessions is the refresh token store.
type Sessions interface {
	handlers.SessionStore
	handlers.SessionRevoker
}

// Deps are the collaborators the router wires into handlers. Prom, Gatherer
// and Limiter are optional.
type Deps struct {
	Categories handlers.CategoriesStore
	Products   handlers.ProductsStore
	Orders     handlers.OrdersStore
	Users      Users
	Sessions   Sessions
	JWT        *auth.Manager
	Notifier   notifications.Notifier
	Limiter    ratelimit.Limiter
	Health     []handlers.HealthCheck

	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("bitmine-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(log))
	r.Use(middlewares.SecurityHeaders(cfg.Env == "prod"))
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(maxBodyBytes))
	r.Use(middlewares.RequireJSON())

	var ordersCreated prometheus.Counter
	var signups *prometheus.CounterVec

	if deps.Prom != nil {
		r.Use(deps.Prom.HTTPMetrics())
		ordersCreated = deps.Prom.OrdersCreated
		signups = deps.Prom.NewsletterSignups
	}

	limiter := deps.Limiter
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimitPerMinute, time.Minute)
	}
	limited := middlewares.RateLimit(limiter, middlewares.KeyByIP, deps.Prom, log)
	limitedPerUser := middlewares.RateLimit(limiter, middlewares.KeyByUserOrIP, deps.Prom, log)

	// health
	h := handlers.NewHealthHandler(deps.Health...)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	authMW := middlewares.NewAuthMiddleware(deps.JWT)
	requireAuth := authMW.RequireAuth()
	adminOnly := []gin.HandlerFunc{requireAuth, authMW.RequireRole(user.RoleAdmin)}

	// auth
	authHandler := handlers.NewAuthHandler(deps.Users, deps.JWT, deps.Sessions, cfg.Env == "prod")

	authGroup := r.Group("/auth")
	authGroup.POST("/signup", limited, authHandler.SignUp)
	authGroup.POST("/login", limited, authHandler.Login)
	authGroup.POST("/refresh", authHandler.Refresh)
	authGroup.POST("/logout", authHandler.Logout)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	// categories: reads are public, writes are admin only
	categories := handlers.NewCategoriesHandler(deps.Categories)

	r.GET("/categories", categories.ListCategories)
	r.GET("/categories/:id", categories.GetCategory)
	r.GET("/categories/:id/subcategories", categories.ListSubcategories)

	catAdmin := r.Group("/categories", adminOnly...)
	catAdmin.POST("", categories.CreateCategory)
	catAdmin.PUT("/:id", categories.UpdateCategory)
	catAdmin.DELETE("/:id", categories.DeleteCategory)
	catAdmin.POST("/:id/subcategories", categories.CreateSubcategory)
	catAdmin.PUT("/subcategories/:id", categories.UpdateSubcategory)
	catAdmin.DELETE("/subcategories/:id", categories.DeleteSubcategory)

	// products
	if deps.Products != nil {
		products := handlers.NewProductsHandler(deps.Products)

		r.GET("/products", products.ListProducts)
		r.GET("/products/:id", products.GetProduct)

		prodAdmin := r.Group("/products", adminOnly...)
		prodAdmin.POST("", products.CreateProduct)
		prodAdmin.PUT("/:id", products.UpdateProduct)
		prodAdmin.DELETE("/:id", products.DeleteProduct)
	}

	// orders
	if deps.Orders != nil {
		orders := handlers.NewOrdersHandler(deps.Orders, ordersCreated)

		r.POST("/orders", requireAuth, limitedPerUser, orders.CreateOrder)
		r.GET("/orders/:id", requireAuth, orders.GetOrder)

		ordAdmin := r.Group("/orders", adminOnly...)
		ordAdmin.GET("", orders.ListOrders)
		ordAdmin.PUT("/:id/status", orders.UpdateOrderStatus)
		ordAdmin.DELETE("/:id", orders.DeleteOrder)

		analyticsHandler := handlers.NewAnalyticsHandler(deps.Orders, deps.Users)
		r.GET("/analytics/summary", append(adminOnly, analyticsHandler.Summary)...)
	}

	// users
	users := handlers.NewUsersHandler(deps.Users, deps.Sessions)

	usrAdmin := r.Group("/users", adminOnly...)
	usrAdmin.GET("", users.ListUsers)
	usrAdmin.GET("/:id", users.GetUser)
	usrAdmin.POST("", users.CreateUser)
	usrAdmin.PUT("/:id", users.UpdateUser)
	usrAdmin.DELETE("/:id", users.DeleteUser)

	// newsletter
	notifier := deps.Notifier
	if notifier == nil {
		notifier = notifications.NewLogNotifier(log)
	}
	newsletter := handlers.NewNewsletterHandler(notifier, signups, log)
	r.POST("/newsletter", limited, newsletter.Subscribe)

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondError(ctx, http.StatusNotFound, "not_found", "Route not found", nil)
	})

	return r
}
