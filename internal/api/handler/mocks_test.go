package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/bu-wallet-ledger/internal/api/middleware"
	"github.com/bu-wallet-ledger/internal/domain/journal"
	"github.com/bu-wallet-ledger/internal/domain/transfer"
	"github.com/bu-wallet-ledger/internal/domain/wallet"
	"github.com/bu-wallet-ledger/internal/domain/withdrawal"
	"github.com/bu-wallet-ledger/internal/orchestrator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockWalletService struct {
	mock.Mock
}

func (m *MockWalletService) GetWallet(ctx context.Context, userID string) (*wallet.Wallet, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*wallet.Wallet), args.Error(1)
}

func (m *MockWalletService) GetJournal(ctx context.Context, userID string, page, perPage int) ([]*journal.Entry, int64, error) {
	args := m.Called(ctx, userID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*journal.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockWalletService) GetJournalEntry(ctx context.Context, userID string, operationID uuid.UUID) (*journal.Entry, error) {
	args := m.Called(ctx, userID, operationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*journal.Entry), args.Error(1)
}

type MockOperationService struct {
	mock.Mock
}

func (m *MockOperationService) Transfer(ctx context.Context, req orchestrator.TransferRequest) (*transfer.Transfer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Transfer), args.Error(1)
}

func (m *MockOperationService) PurchaseTicket(ctx context.Context, req orchestrator.TicketPurchaseRequest) (*orchestrator.TicketPurchase, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*orchestrator.TicketPurchase), args.Error(1)
}

func (m *MockOperationService) GatewayQRTransfer(ctx context.Context, req orchestrator.GatewayQRRequest) (*transfer.Transfer, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*transfer.Transfer), args.Error(1)
}

func (m *MockOperationService) RequestWithdrawal(ctx context.Context, req orchestrator.WithdrawalRequest) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, req)
	return withdrawalResult(args)
}

func (m *MockOperationService) MarkProcessing(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, req)
	return withdrawalResult(args)
}

func (m *MockOperationService) Complete(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, req)
	return withdrawalResult(args)
}

func (m *MockOperationService) Fail(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, req)
	return withdrawalResult(args)
}

func (m *MockOperationService) ProcessPayout(ctx context.Context, req orchestrator.TransitionRequest) (*withdrawal.Withdrawal, error) {
	args := m.Called(ctx, req)
	return withdrawalResult(args)
}

func withdrawalResult(args mock.Arguments) (*withdrawal.Withdrawal, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Withdrawal), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestRouter builds an engine with correlation ids and identity headers
// applied the way the production router applies them.
func setupTestRouter() (*gin.Engine, *gin.RouterGroup) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r, r.Group("", middleware.Identity())
}

func perform(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func asUser(id string) map[string]string {
	return map[string]string{middleware.UserIDHeader: id}
}

func asAdmin(id string) map[string]string {
	return map[string]string{middleware.UserIDHeader: id, middleware.UserRoleHeader: "admin"}
}

// decodeData unmarshals the envelope and its data field into out
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, out interface{}) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	if out != nil {
		require.NotNil(t, resp.Data, "'data' field should not be nil")
		dataBytes, err := json.Marshal(resp.Data)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(dataBytes, out))
	}
	return resp
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) Response {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	resp := decodeData(t, rr, nil)
	require.NotNil(t, resp.Error)
	require.Equal(t, code, resp.Error.Code)
	return resp
}

