package bootstrap

import (
	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/cipherstudio/cipherstudio-backend/internal/auth"
	"github.com/cipherstudio/cipherstudio-backend/internal/editor"
	"github.com/cipherstudio/cipherstudio-backend/internal/httpapi"
	"github.com/cipherstudio/cipherstudio-backend/internal/middleware"
	"github.com/cipherstudio/cipherstudio-backend/internal/preview"
	"github.com/cipherstudio/cipherstudio-backend/internal/projects"
	"github.com/cipherstudio/cipherstudio-backend/internal/users"
)

type RouterDeps struct {
	ServiceName    string
	Version        string
	DB             *pgxpool.Pool
	Redis          *redis.Client
	FirebaseAuth   *fbauth.Client // nil enables the dev header fallback
	Sessions       *editor.Manager
	AllowedOrigins []string
	RateLimitRPS   float64
	RateLimitBurst int
}

func BuildRouter(dep RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	corsCfg := cors.DefaultConfig()
	if len(dep.AllowedOrigins) > 0 {
		corsCfg.AllowOrigins = dep.AllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization", "X-Request-Id", "X-User-Id")
	r.Use(cors.New(corsCfg))

	if dep.RateLimitRPS > 0 {
		r.Use(middleware.RateLimit(rate.Limit(dep.RateLimitRPS), dep.RateLimitBurst))
	}

	healthHandler := httpapi.NewHealthHandler(dep.ServiceName, dep.Version, dep.DB, dep.Redis)
	healthHandler.RegisterRoutes(r)

	userRepo := users.NewRepo(dep.DB)
	projectRepo := projects.NewRepo(dep.DB)
	previewCache := preview.NewCache(dep.Redis)

	api := r.Group("/api/v1")
	api.Use(auth.WithUser(dep.FirebaseAuth, userRepo))

	auth.Register(api.Group("/auth"), userRepo)

	projectsGroup := api.Group("/projects")
	projects.Register(projectsGroup, projectRepo, dep.Sessions, previewCache)
	editor.RegisterFileRoutes(projectsGroup, dep.Sessions)
	preview.Register(projectsGroup, dep.Sessions, previewCache)

	return r
}
