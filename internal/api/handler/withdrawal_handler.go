package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/bu-wallet-ledger/internal/api/service"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WithdrawalAdminHandler drives withdrawals through their lifecycle. Routes
// using it sit behind middleware.RequireAdmin.
type WithdrawalAdminHandler struct {
	operations service.OperationService
	logger     *slog.Logger
}

func NewWithdrawalAdminHandler(logger *slog.Logger, operations service.OperationService) *WithdrawalAdminHandler {
	return &WithdrawalAdminHandler{
		operations: operations,
		logger:     logger,
	}
}

type transitionFunc func(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error)

func (h *WithdrawalAdminHandler) MarkProcessing(c *gin.Context) {
	h.handle(c, "processing", h.operations.MarkProcessing)
}

func (h *WithdrawalAdminHandler) Complete(c *gin.Context) {
	h.handle(c, "complete", h.operations.Complete)
}

func (h *WithdrawalAdminHandler) Fail(c *gin.Context) {
	h.handle(c, "fail", h.operations.Fail)
}

// Payout hands the withdrawal to the payout gateway and applies its answer
func (h *WithdrawalAdminHandler) Payout(c *gin.Context) {
	h.handle(c, "payout", h.operations.ProcessPayout)
}

func (h *WithdrawalAdminHandler) handle(c *gin.Context, action string, apply transitionFunc) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	idParam := c.Param("id")
	withdrawalID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid withdrawal ID")
		return
	}

	// the body is optional
	var req TransitionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.logger.Warn("Invalid withdrawal transition request", "action", action, "error", err)
			RespondBadRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}

	w, err := apply(c.Request.Context(), orchestrator.TransitionRequest{
		WithdrawalID:  withdrawalID,
		ActorID:       user.ID,
		Reason:        req.Reason,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	h.logger.Info("Withdrawal updated", "action", action, "withdrawal_id", w.ID, "status", w.Status, "actor_id", user.ID)
	RespondOK(c, mapWithdrawalToResponse(w))
}
