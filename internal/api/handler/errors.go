package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/bu-wallet-ledger/internal/domain/event"
	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/identity"
	"github.com/bu-wallet-ledger/internal/ledger"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/bu-wallet-ledger/internal/saga"
	"github.com/gin-gonic/gin"
)

// respondError maps service errors to status codes. Orchestration failures
// are checked first: their cause may be a business error, but money had
// already moved and was reversed.
func respondError(c *gin.Context, logger *slog.Logger, err error) {
	if correlationID := middleware.GetCorrelationID(c); correlationID != "" {
		logger = logger.With("correlation_id", correlationID)
	}

	if failure, ok := saga.AsFailure(err); ok {
		message := "The operation failed and was reversed"
		if !failure.Compensated {
			message = "The operation failed and could not be fully reversed; it has been flagged for reconciliation"
		}
		logger.Error("Orchestration failed", "saga", failure.Saga, "failed_step", failure.FailedStep, "compensated", failure.Compensated, "error", err)
		RespondWithError(c, http.StatusInternalServerError, "OPERATION_FAILED", message)
		return
	}

	var insufficient wallet.ErrInsufficientFunds
	var invalidTransition withdrawal.ErrInvalidTransition
	switch {
	case errors.As(err, &insufficient):
		RespondWithError(c, http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", insufficient.Error())
	case errors.Is(err, wallet.ErrWalletNotFound{}):
		RespondNotFound(c, "WALLET_NOT_FOUND", "Wallet not found")
	case errors.Is(err, event.ErrEventNotFound{}):
		RespondNotFound(c, "EVENT_NOT_FOUND", "Event not found")
	case errors.Is(err, withdrawal.ErrWithdrawalNotFound{}):
		RespondNotFound(c, "WITHDRAWAL_NOT_FOUND", "Withdrawal not found")
	case errors.Is(err, journal.ErrEntryNotFound{}):
		RespondNotFound(c, "OPERATION_NOT_FOUND", "Operation not found")
	case errors.Is(err, identity.ErrInvalidPIN):
		RespondWithError(c, http.StatusForbidden, "INVALID_PIN", "Invalid transaction PIN")
	case errors.Is(err, identity.ErrPINNotSet):
		RespondWithError(c, http.StatusForbidden, "PIN_NOT_SET", "Set a transaction PIN before moving funds")
	case errors.As(err, &invalidTransition):
		RespondWithError(c, http.StatusConflict, "INVALID_TRANSITION", invalidTransition.Error())
	case errors.Is(err, transfer.ErrDuplicatePayment{}):
		RespondWithError(c, http.StatusConflict, "DUPLICATE_PAYMENT", err.Error())
	case errors.Is(err, wallet.ErrInvalidAmount),
		errors.Is(err, withdrawal.ErrInvalidType),
		errors.Is(err, ledger.ErrMissingUserID),
		errors.Is(err, orchestrator.ErrSelfTransfer),
		errors.Is(err, orchestrator.ErrInvalidTransferType),
		errors.Is(err, orchestrator.ErrInvalidQuantity),
		errors.Is(err, orchestrator.ErrMissingRecipient):
		RespondWithError(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		logger.Error("Request failed", "path", c.FullPath(), "error", err)
		RespondInternalError(c)
	}
}
