package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

var (
	ErrAccountNotFound = errors.New("account_not_found")
)

type Repository interface {
	GetAccount(ctx context.Context, id snowflake.ID) (*Account, error)
	ListActiveAccounts(ctx context.Context) ([]Account, error)

	// GetDefaultBillingAddress returns nil without error when the account
	// has no default address; the caller decides the fallback.
	GetDefaultBillingAddress(ctx context.Context, accountID snowflake.ID) (*BillingAddress, error)
	CreateBillingAddress(ctx context.Context, address *BillingAddress) error
}
