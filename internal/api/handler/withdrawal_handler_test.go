package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupWithdrawalAdminRouter(svc *MockOperationService) *gin.Engine {
	r, api := setupTestRouter()
	h := NewWithdrawalAdminHandler(testLogger(), svc)
	admin := api.Group("/withdrawals/:id", middleware.RequireAdmin())
	admin.POST("/processing", h.MarkProcessing)
	admin.POST("/complete", h.Complete)
	admin.POST("/fail", h.Fail)
	admin.POST("/payout", h.Payout)
	return r
}

func withdrawalIn(status withdrawal.Status, locked bool) *withdrawal.Withdrawal {
	return &withdrawal.Withdrawal{
		ID:          uuid.New(),
		UserID:      "alice",
		BUAmount:    decimal.NewFromInt(40),
		NairaAmount: decimal.NewFromInt(40),
		Type:        withdrawal.TypeBank,
		Status:      status,
		FundsLocked: locked,
		CreatedAt:   time.Now(),
	}
}

func TestWithdrawalAdminHandler_Transitions(t *testing.T) {
	tests := []struct {
		name   string
		action string
		method string
		status withdrawal.Status
	}{
		{name: "MarkProcessing", action: "processing", method: "MarkProcessing", status: withdrawal.StatusProcessing},
		{name: "Complete", action: "complete", method: "Complete", status: withdrawal.StatusCompleted},
		{name: "Payout", action: "payout", method: "ProcessPayout", status: withdrawal.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockOperationService)
			w := withdrawalIn(tt.status, true)
			if tt.status == withdrawal.StatusCompleted {
				now := time.Now()
				w.CompletedAt = &now
			}
			svc.On(tt.method, mock.Anything, mock.MatchedBy(func(req orchestrator.TransitionRequest) bool {
				return req.WithdrawalID == w.ID && req.ActorID == "ops" && req.Reason == ""
			})).Return(w, nil)

			rr := perform(setupWithdrawalAdminRouter(svc), http.MethodPost,
				"/withdrawals/"+w.ID.String()+"/"+tt.action, "", asAdmin("ops"))

			assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
			var body WithdrawalResponse
			decodeData(t, rr, &body)
			assert.Equal(t, string(tt.status), body.Status)
			svc.AssertExpectations(t)
		})
	}
}

func TestWithdrawalAdminHandler_FailWithReason(t *testing.T) {
	svc := new(MockOperationService)
	w := withdrawalIn(withdrawal.StatusFailed, true)
	w.FailureReason = "bank rejected account"
	svc.On("Fail", mock.Anything, mock.MatchedBy(func(req orchestrator.TransitionRequest) bool {
		return req.WithdrawalID == w.ID && req.Reason == "bank rejected account"
	})).Return(w, nil)

	rr := perform(setupWithdrawalAdminRouter(svc), http.MethodPost,
		"/withdrawals/"+w.ID.String()+"/fail", `{"reason":"bank rejected account"}`, asAdmin("ops"))

	assert.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var body WithdrawalResponse
	decodeData(t, rr, &body)
	assert.Equal(t, "failed", body.Status)
	assert.Equal(t, "bank rejected account", body.FailureReason)
	svc.AssertExpectations(t)
}

func TestWithdrawalAdminHandler_Errors(t *testing.T) {
	t.Run("NotAdmin", func(t *testing.T) {
		svc := new(MockOperationService)

		rr := perform(setupWithdrawalAdminRouter(svc), http.MethodPost,
			"/withdrawals/"+uuid.NewString()+"/complete", "", asUser("alice"))

		assert.Equal(t, http.StatusForbidden, rr.Code)
		svc.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	})

	t.Run("InvalidID", func(t *testing.T) {
		svc := new(MockOperationService)

		rr := perform(setupWithdrawalAdminRouter(svc), http.MethodPost,
			"/withdrawals/42/complete", "", asAdmin("ops"))

		assertErrorCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")
	})

	t.Run("MalformedBody", func(t *testing.T) {
		svc := new(MockOperationService)

		rr := perform(setupWithdrawalAdminRouter(svc), http.MethodPost,
			"/withdrawals/"+uuid.NewString()+"/fail", `{"reason":`, asAdmin("ops"))

		assertErrorCode(t, rr, http.StatusBadRequest, "BAD_REQUEST")
		svc.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything)
	})

	t.Run("InvalidTransition", func(t *testing.T) {
		svc := new(MockOperationService)
		svc.On("Fail", mock.Anything, mock.Anything).Return(nil, withdrawal.ErrInvalidTransition{
			From: withdrawal.StatusFailed,
			To:   withdrawal.StatusFailed,
		})

		rr := perform(setupWithdrawalAdminRouter(svc), http.MethodPost,
			"/withdrawals/"+uuid.NewString()+"/fail", "", asAdmin("ops"))

		assertErrorCode(t, rr, http.StatusConflict, "INVALID_TRANSITION")
	})

	t.Run("NotFound", func(t *testing.T) {
		svc := new(MockOperationService)
		id := uuid.New()
		svc.On("Complete", mock.Anything, mock.Anything).Return(nil, withdrawal.ErrWithdrawalNotFound{ID: id})

		rr := perform(setupWithdrawalAdminRouter(svc), http.MethodPost,
			"/withdrawals/"+id.String()+"/complete", "", asAdmin("ops"))

		assertErrorCode(t, rr, http.StatusNotFound, "WITHDRAWAL_NOT_FOUND")
	})
}
