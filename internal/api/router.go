package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bu-wallet-ledger/internal/api/handler"
	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	walletHandler *handler.WalletHandler,
	operationHandler *handler.OperationHandler,
	withdrawalAdminHandler *handler.WithdrawalAdminHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics())

	v1 := r.Group("/api/v1", middleware.Identity())
	{
		wallet := v1.Group("/wallet")
		{
			wallet.GET("", walletHandler.Get)
			wallet.GET("/journal", walletHandler.GetJournal)
			wallet.GET("/journal/:operation_id", walletHandler.GetJournalEntry)
		}

		v1.POST("/transfers", operationHandler.Transfer)
		v1.POST("/tickets", operationHandler.PurchaseTicket)
		v1.POST("/gateway-transfers", operationHandler.GatewayTransfer)

		withdrawals := v1.Group("/withdrawals")
		{
			withdrawals.POST("", operationHandler.RequestWithdrawal)

			admin := withdrawals.Group("/:id", middleware.RequireAdmin())
			admin.POST("/processing", withdrawalAdminHandler.MarkProcessing)
			admin.POST("/complete", withdrawalAdminHandler.Complete)
			admin.POST("/fail", withdrawalAdminHandler.Fail)
			admin.POST("/payout", withdrawalAdminHandler.Payout)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
