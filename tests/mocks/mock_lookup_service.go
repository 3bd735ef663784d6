package mocks

import (
	"context"
	"errors"

	"github.com/zdziszkee/iban-registry/internal/iban"
	"github.com/zdziszkee/iban-registry/internal/repository"
	"github.com/zdziszkee/iban-registry/internal/service"
)

// MockLookupService implements service.LookupService.
type MockLookupService struct {
	ResolveByIBANFunc      func(ctx context.Context, rawIBAN string) (*service.LookupResult, error)
	ResolveBySortCodeFunc  func(ctx context.Context, sortCode string) (*service.LookupResult, error)
	ResolveByBICFunc       func(ctx context.Context, bic string) (*service.LookupResult, error)
	SearchByNameFunc       func(ctx context.Context, term string, limit int) ([]service.SearchResult, error)
	BatchResolveByIBANFunc func(ctx context.Context, ibans []string) ([]service.BatchResult, error)
	StatusFunc             func(ctx context.Context) (*repository.RegistryStatus, error)
	ValidateIBANFunc       func(rawIBAN string) iban.Result
}

func (m *MockLookupService) ResolveByIBAN(ctx context.Context, rawIBAN string) (*service.LookupResult, error) {
	if m.ResolveByIBANFunc != nil {
		return m.ResolveByIBANFunc(ctx, rawIBAN)
	}
	return nil, errors.New("ResolveByIBAN not implemented")
}

func (m *MockLookupService) ResolveBySortCode(ctx context.Context, sortCode string) (*service.LookupResult, error) {
	if m.ResolveBySortCodeFunc != nil {
		return m.ResolveBySortCodeFunc(ctx, sortCode)
	}
	return nil, errors.New("ResolveBySortCode not implemented")
}

func (m *MockLookupService) ResolveByBIC(ctx context.Context, bic string) (*service.LookupResult, error) {
	if m.ResolveByBICFunc != nil {
		return m.ResolveByBICFunc(ctx, bic)
	}
	return nil, errors.New("ResolveByBIC not implemented")
}

func (m *MockLookupService) SearchByName(ctx context.Context, term string, limit int) ([]service.SearchResult, error) {
	if m.SearchByNameFunc != nil {
		return m.SearchByNameFunc(ctx, term, limit)
	}
	return nil, errors.New("SearchByName not implemented")
}

func (m *MockLookupService) BatchResolveByIBAN(ctx context.Context, ibans []string) ([]service.BatchResult, error) {
	if m.BatchResolveByIBANFunc != nil {
		return m.BatchResolveByIBANFunc(ctx, ibans)
	}
	return nil, errors.New("BatchResolveByIBAN not implemented")
}

func (m *MockLookupService) Status(ctx context.Context) (*repository.RegistryStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx)
	}
	return nil, errors.New("Status not implemented")
}

func (m *MockLookupService) ValidateIBAN(rawIBAN string) iban.Result {
	if m.ValidateIBANFunc != nil {
		return m.ValidateIBANFunc(rawIBAN)
	}
	return iban.Validate(rawIBAN)
}
