package handler

import (
	"log/slog"
	"net/http"

	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/bu-wallet-ledger/internal/api/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// WalletHandler serves the caller's wallet and operation history
type WalletHandler struct {
	walletService   service.WalletService
	logger          *slog.Logger
	defaultPageSize int
}

// NewWalletHandler creates a wallet handler. defaultPageSize applies when a
// journal request does not name per_page.
func NewWalletHandler(logger *slog.Logger, walletService service.WalletService, defaultPageSize int) *WalletHandler {
	return &WalletHandler{
		walletService:   walletService,
		logger:          logger,
		defaultPageSize: defaultPageSize,
	}
}

// Get returns the caller's balance
func (h *WalletHandler) Get(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	w, err := h.walletService.GetWallet(c.Request.Context(), user.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapWalletToResponse(w))
}

// GetJournal returns a page of the caller's operations, newest first
func (h *WalletHandler) GetJournal(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	var params PaginationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Error("Invalid pagination parameters", "error", err)
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}
	if params.PerPage == 0 {
		params.PerPage = h.defaultPageSize
	}

	entries, total, err := h.walletService.GetJournal(c.Request.Context(), user.ID, params.Page, params.PerPage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	response := make([]JournalEntryResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, mapJournalEntryToResponse(e))
	}

	RespondWithPaginatedData(c, http.StatusOK, response, params.Page, params.PerPage, total)
}

// GetJournalEntry returns one operation the caller took part in
func (h *WalletHandler) GetJournalEntry(c *gin.Context) {
	user, ok := middleware.GetUser(c)
	if !ok {
		RespondUnauthorized(c)
		return
	}

	idParam := c.Param("operation_id")
	operationID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid operation ID")
		return
	}

	entry, err := h.walletService.GetJournalEntry(c.Request.Context(), user.ID, operationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	RespondOK(c, mapJournalEntryToResponse(entry))
}
