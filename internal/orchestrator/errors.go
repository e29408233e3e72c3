package orchestrator

import (
	"errors"

	"github.com/bu-wallet-ledger/internal/identity"
)

var (
	ErrSelfTransfer         = errors.New("cannot transfer to yourself")
	ErrInvalidTransferType  = errors.New("transfer type must be transfer or tip")
	ErrInvalidQuantity      = errors.New("ticket quantity is out of range")
	ErrMissingRecipient     = errors.New("recipient is required")
	ErrPaymentNotSuccessful = errors.New("payment was not successful")

	// ErrInvalidPIN is returned when the transaction PIN does not match
	ErrInvalidPIN = identity.ErrInvalidPIN
)
