package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/cloudkhata/cloudkhata/internal/account/domain"
	"github.com/cloudkhata/cloudkhata/pkg/repository"
	"gorm.io/gorm"
)

type accountRepo struct {
	accounts  repository.Repository[domain.Account]
	addresses repository.Repository[domain.BillingAddress]
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &accountRepo{
		accounts:  repository.ProvideStore[domain.Account](db),
		addresses: repository.ProvideStore[domain.BillingAddress](db),
	}
}

func (r *accountRepo) GetAccount(ctx context.Context, id snowflake.ID) (*domain.Account, error) {
	account, err := r.accounts.FindOne(ctx, &domain.Account{ID: id})
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, domain.ErrAccountNotFound
	}
	return account, nil
}

func (r *accountRepo) ListActiveAccounts(ctx context.Context) ([]domain.Account, error) {
	items, err := r.accounts.Find(ctx, &domain.Account{IsActive: true})
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.Account, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		accounts = append(accounts, *item)
	}
	return accounts, nil
}

func (r *accountRepo) GetDefaultBillingAddress(ctx context.Context, accountID snowflake.ID) (*domain.BillingAddress, error) {
	return r.addresses.FindOne(ctx, &domain.BillingAddress{AccountID: accountID, IsDefault: true})
}

func (r *accountRepo) CreateBillingAddress(ctx context.Context, address *domain.BillingAddress) error {
	return r.addresses.Create(ctx, address)
}
