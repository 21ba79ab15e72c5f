package advance

import (
	"go-advance/internal/middleware"
	"go-advance/internal/rbac"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	rbacService rbac.Service,
	rdb *redis.Client,
) {
	advances := r.Group("/advances")
	advances.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		advances.GET("", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRead), handler.GetAll)
		advances.GET("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRead), handler.GetById)
		advances.GET("/:id/repayments", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRead), handler.GetRepayments)
		advances.POST("", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionCreate), handler.Create)
		advances.PUT("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionUpdate), handler.Update)
		advances.DELETE("/:id", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionDelete), handler.Delete)
		advances.POST("/:id/approve", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionApprove), handler.Approve)
		advances.POST("/:id/reject", middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionApprove), handler.Reject)
	}

	employees := r.Group("/employees")
	employees.Use(middleware.AuthMiddleware(), middleware.ExtractUserID())
	{
		employees.POST("/:employeeId/repayments",
			middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRepay),
			middleware.Idempotency(rdb),
			handler.RecordRepayment,
		)
		employees.DELETE("/:employeeId/repayments/:entryId",
			middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRepay),
			handler.DeleteRepayment,
		)
		employees.GET("/:employeeId/repayments/monthly",
			middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRead),
			handler.GetMonthlyHistory,
		)
		employees.GET("/:employeeId/receipts/:entryId",
			middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRead),
			handler.GetReceipt,
		)
		employees.GET("/:employeeId/balance",
			middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionRead),
			handler.GetOutstandingBalance,
		)
		employees.PUT("/:employeeId/monthly-deduction",
			middleware.RBACAuthorize(rbacService, rbac.ResourceAdvances, rbac.ActionUpdate),
			handler.UpdateMonthlyDeductions,
		)
	}
}
