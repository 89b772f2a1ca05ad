package http

import (
	"context"
	"errors"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docqa-backend/internal/bootstrap"
	"docqa-backend/internal/transport/http/handler"
	"docqa-backend/internal/transport/http/middleware"
)

var errConnectionClosed = errors.New("connection closed")

// Handlers is everything the router mounts.
type Handlers struct {
	Auth         *handler.AuthHandler
	Organization *handler.OrganizationHandler
	Document     *handler.DocumentHandler
	Chat         *handler.ChatHandler
	Health       *handler.HealthHandler
}

type RouterOptions struct {
	GinMode      string
	JWTSecret    string
	AllowOrigins []string
	MaxUploadMB  int
	Logger       zerolog.Logger
	Users        middleware.UserLoader
}

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config
	checks := map[string]handler.DependencyCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := app.Postgres.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
		"redis": func(ctx context.Context) error {
			return app.Redis.Ping(ctx).Err()
		},
		"rabbitmq": func(context.Context) error {
			if app.MQConn == nil || app.MQConn.IsClosed() {
				return errConnectionClosed
			}
			return nil
		},
	}

	return Mount(RouterOptions{
		GinMode:      cfg.App.GinMode,
		JWTSecret:    cfg.Auth.JWTSecret,
		AllowOrigins: cfg.CORS.AllowOrigins,
		MaxUploadMB:  cfg.RAG.MaxUploadMB,
		Logger:       app.Logger,
		Users:        app.Services.Auth,
	}, Handlers{
		Auth:         handler.NewAuthHandler(app.Services.Auth),
		Organization: handler.NewOrganizationHandler(app.Services.Organization),
		Document:     handler.NewDocumentHandler(app.Services.Document, cfg.MaxUploadBytes()),
		Chat:         handler.NewChatHandler(app.Services.Answer),
		Health:       handler.NewHealthHandler(cfg.App.Name, cfg.App.Env, app.StartedAt, checks),
	})
}

// Mount builds the gin engine around already constructed handlers.
func Mount(opts RouterOptions, h Handlers) *gin.Engine {
	if opts.GinMode != "" {
		gin.SetMode(opts.GinMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestContext(opts.Logger),
		middleware.AccessLog(),
		middleware.Recovery(),
	)
	if len(opts.AllowOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     opts.AllowOrigins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Authorization", "Content-Type", middleware.HeaderRequestID},
			ExposeHeaders:    []string{middleware.HeaderRequestID, "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if opts.MaxUploadMB > 0 {
		// multipart parts beyond this stay on disk instead of in memory
		router.MaxMultipartMemory = int64(opts.MaxUploadMB) << 20
	}

	router.GET("/healthz", h.Health.Check)

	authed := []gin.HandlerFunc{
		middleware.AuthJWT(opts.JWTSecret),
		middleware.RequireActiveUser(opts.Users),
	}

	v1 := router.Group("/api/v1")
	authGroup := v1.Group("/auth")
	authGroup.POST("/signup", h.Auth.Signup)
	authGroup.POST("/login", h.Auth.Login)
	authGroup.GET("/me", append(authed, h.Auth.Me)...)

	orgGroup := v1.Group("/organization", authed...)
	orgGroup.POST("/create", h.Organization.Create)
	orgGroup.GET("/me", h.Organization.Mine)
	orgGroup.DELETE("/delete", h.Organization.Delete)

	docGroup := v1.Group("/documents", authed...)
	docGroup.POST("/upload", h.Document.Upload)
	docGroup.GET("/my_documents", h.Document.MyDocuments)
	docGroup.GET("/download", h.Document.Download)
	docGroup.DELETE("/delete", h.Document.Delete)
	docGroup.POST("/reindex", h.Document.Reindex)

	chatGroup := v1.Group("/chat", authed...)
	chatGroup.POST("/ask", h.Chat.Ask)
	chatGroup.GET("/audit_logs", h.Chat.AuditLogs)

	return router
}
