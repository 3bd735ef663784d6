package mocks

import (
	"context"
	"errors"

	"github.com/zdziszkee/iban-registry/internal/model"
	"github.com/zdziszkee/iban-registry/internal/repository"
)

// MockBankRepository implements the BankRepository interface for testing.
type MockBankRepository struct {
	FindBySortCodeFunc func(ctx context.Context, sortCode string) (*model.BankDirectoryEntry, error)
	FindByBICFunc      func(ctx context.Context, bic string) (*model.BankDirectoryEntry, error)
	SearchByNameFunc   func(ctx context.Context, term string, limit int) ([]model.BankDirectoryEntry, error)
	StatusFunc         func(ctx context.Context) (*repository.RegistryStatus, error)
	ReplaceAllFunc     func(ctx context.Context, entries []model.BankDirectoryEntry) (int, error)
}

func (m *MockBankRepository) FindBySortCode(ctx context.Context, sortCode string) (*model.BankDirectoryEntry, error) {
	if m.FindBySortCodeFunc != nil {
		return m.FindBySortCodeFunc(ctx, sortCode)
	}
	return nil, errors.New("FindBySortCode not implemented")
}

func (m *MockBankRepository) FindByBIC(ctx context.Context, bic string) (*model.BankDirectoryEntry, error) {
	if m.FindByBICFunc != nil {
		return m.FindByBICFunc(ctx, bic)
	}
	return nil, errors.New("FindByBIC not implemented")
}

func (m *MockBankRepository) SearchByName(ctx context.Context, term string, limit int) ([]model.BankDirectoryEntry, error) {
	if m.SearchByNameFunc != nil {
		return m.SearchByNameFunc(ctx, term, limit)
	}
	return nil, errors.New("SearchByName not implemented")
}

func (m *MockBankRepository) Status(ctx context.Context) (*repository.RegistryStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return nil, errors.New("Status not implemented")
}

func (m *MockBankRepository) ReplaceAll(ctx context.Context, entries []model.BankDirectoryEntry) (int, error) {
	if m.ReplaceAllFunc != nil {
		return m.ReplaceAllFunc(ctx, entries)
	}
	return 0, errors.New("ReplaceAll not implemented")
}
