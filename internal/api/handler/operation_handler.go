package handler

import (
	"log/slog"

	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/bu-wallet-ledger/internal/api/service"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OperationHandler starts money movements on behalf of the caller
type OperationHandler struct {
	operations service.OperationService
	logger     *slog.Logger
}

// NewOperationHandler creates a new operation handler
func NewOperationHandler(logger *slog.Logger, operations service.OperationService) *OperationHandler {
	return &OperationHandler{
		operations: operations,
		logger:     logger,
	}
}

// Transfer sends BU to another user as a transfer or a tip
func (h *OperationHandler) Transfer(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid transfer request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	kind := transfer.TypeTransfer
	if req.Type != "" {
		kind = transfer.Type(req.Type)
	}

	t, err := h.operations.Transfer(c.Request.Context(), orchestrator.TransferRequest{
		SenderID:      user.ID,
		ReceiverID:    req.ReceiverID,
		Amount:        req.Amount,
		PIN:           req.PIN,
		Type:          kind,
		Message:       req.Message,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransferToResponse(t))
}

// PurchaseTicket buys tickets for an event
func (h *OperationHandler) PurchaseTicket(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	var req TicketPurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid ticket purchase request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	eventID, err := uuid.Parse(req.EventID)
	if err != nil {
		RespondBadRequest(c, "Invalid event ID")
		return
	}

	purchase, err := h.operations.PurchaseTicket(c.Request.Context(), orchestrator.TicketPurchaseRequest{
		BuyerID:       user.ID,
		EventID:       eventID,
		Quantity:      req.Quantity,
		PIN:           req.PIN,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, TicketPurchaseResponse{
		Transfer: mapTransferToResponse(purchase.Transfer),
		Ticket:   mapTicketToResponse(purchase.Ticket),
	})
}

// GatewayTransfer pays a celebrant through a scanned gateway QR code
func (h *OperationHandler) GatewayTransfer(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	var req GatewayTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid gateway transfer request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var eventID *uuid.UUID
	if req.EventID != "" {
		id, err := uuid.Parse(req.EventID)
		if err != nil {
			RespondBadRequest(c, "Invalid event ID")
			return
		}
		eventID = &id
	}

	t, err := h.operations.GatewayQRTransfer(c.Request.Context(), orchestrator.GatewayQRRequest{
		SenderID:      user.ID,
		CelebrantID:   req.CelebrantID,
		GatewayID:     req.GatewayID,
		EventID:       eventID,
		Amount:        req.Amount,
		PIN:           req.PIN,
		Message:       req.Message,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapTransferToResponse(t))
}

// RequestWithdrawal locks funds and opens a pending withdrawal
func (h *OperationHandler) RequestWithdrawal(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	var req WithdrawalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid withdrawal request", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	w, err := h.operations.RequestWithdrawal(c.Request.Context(), orchestrator.WithdrawalRequest{
		UserID:        user.ID,
		Amount:        req.Amount,
		Type:          withdrawal.Type(req.Type),
		PIN:           req.PIN,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapWithdrawalToResponse(w))
}
