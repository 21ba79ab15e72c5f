package app

import (
	"go-advance/internal/advance"
	"go-advance/internal/employee"
	"go-advance/internal/messaging/kafka"
	"go-advance/internal/middleware"
	"go-advance/internal/rbac"
	"go-advance/internal/rbac/infra"
	"go-advance/internal/shared/counter"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

func registerModules(
	router *gin.Engine,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	advanceRepo := advance.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(gormDB)

	// --- RBAC Core ---
	enforcer, err := infra.NewEnforcer()
	if err != nil {
		return err
	}
	rbacService := rbac.NewService(rbacRepo, enforcer)
	perms := rbac.NewAdvancePermissions(rbacService)

	// --- Services ---
	advanceService := advance.NewService(
		advanceRepo,
		employeeRepo,
		counterRepo,
		outboxRepo,
		perms,
		rdb,
	)

	// --- Handlers ---
	advanceHandler := advance.NewHandlerWithRedis(advanceService, rdb)

	// --- Routes Registration ---
	router.Use(middleware.RequestID())
	router.Use(middleware.ContextLogger(zap.L()))

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimitByIP(rate.Limit(50), 100))
	{
		advance.RegisterRoutes(api, advanceHandler, rbacService, rdb)
	}

	return nil
}
