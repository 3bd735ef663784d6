package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/zdziszkee/iban-registry/internal/iban"
	"github.com/zdziszkee/iban-registry/internal/metrics"
	"github.com/zdziszkee/iban-registry/internal/model"
	"github.com/zdziszkee/iban-registry/internal/repository"
)

var (
	ErrNotFound     = errors.New("bank not found")
	ErrInvalidInput = errors.New("invalid input provided")
)

const (
	// sortCodeLength is the fixed digit width of the national sort code
	// scheme (German Bankleitzahl) this service resolves end-to-end.
	sortCodeCountry = "DE"

	// minSearchTermLength guards the name search against near-full-table
	// scans on single-character input.
	minSearchTermLength = 2

	// MaxBatchSize bounds a single batch lookup request.
	MaxBatchSize = 100
)

var (
	sortCodeRegex = regexp.MustCompile(`^[0-9]{8}$`)
	// BIC: 4-letter institution, 2-letter country, 2 alphanumeric location,
	// optional 3 alphanumeric branch.
	bicRegex = regexp.MustCompile(`^[A-Z]{4}[A-Z]{2}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
)

// BankInfo is the bank payload returned by the lookup endpoints.
type BankInfo struct {
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	BIC       string `json:"bic"`
	City      string `json:"city"`
}

// LookupResult reports a single resolution. A miss is a successful outcome
// with Found set to false, not an error.
type LookupResult struct {
	Found        bool      `json:"found"`
	BankSortCode string    `json:"bankSortCode,omitempty"`
	Bank         *BankInfo `json:"bank,omitempty"`
}

// SearchResult is one ranked row of a name search.
type SearchResult struct {
	SortCode        string `json:"sortCode"`
	Name            string `json:"name"`
	ShortName       string `json:"shortName"`
	BIC             string `json:"bic"`
	City            string `json:"city"`
	DisplayName     string `json:"displayName"`
	FullDisplayName string `json:"fullDisplayName"`
}

// BatchResult reports the outcome for one element of a batch lookup. A bad
// IBAN or a registry fault is confined to its own element.
type BatchResult struct {
	IBAN         string      `json:"iban"`
	Valid        bool        `json:"valid"`
	ErrorReason  iban.Reason `json:"errorReason,omitempty"`
	Found        bool        `json:"found"`
	BankSortCode string      `json:"bankSortCode,omitempty"`
	Bank         *BankInfo   `json:"bank,omitempty"`
	LookupError  string      `json:"lookupError,omitempty"`
}

// LookupService orchestrates the validator and the registry.
type LookupService interface {
	ResolveByIBAN(ctx context.Context, rawIBAN string) (*LookupResult, error)
	ResolveBySortCode(ctx context.Context, sortCode string) (*LookupResult, error)
	ResolveByBIC(ctx context.Context, bic string) (*LookupResult, error)
	SearchByName(ctx context.Context, term string, limit int) ([]SearchResult, error)
	BatchResolveByIBAN(ctx context.Context, ibans []string) ([]BatchResult, error)
	Status(ctx context.Context) (*repository.RegistryStatus, error)
	ValidateIBAN(rawIBAN string) iban.Result
}

type lookupService struct {
	repo    repository.BankRepository
	metrics *metrics.Metrics
}

// NewLookupService creates a new lookup service instance. The metrics
// argument may be nil, in which case instrumentation is skipped.
func NewLookupService(repo repository.BankRepository, m *metrics.Metrics) LookupService {
	return &lookupService{repo: repo, metrics: m}
}

// ResolveByIBAN validates an IBAN and, for the supported national scheme,
// resolves the embedded sort code against the registry. IBANs from other
// countries are a normal input and resolve to a well-formed miss.
func (s *lookupService) ResolveByIBAN(ctx context.Context, rawIBAN string) (*LookupResult, error) {
	result := iban.Validate(rawIBAN)
	if iban.Normalize(rawIBAN) == "" || !result.Valid {
		s.metrics.RecordLookup("iban", "invalid")
		return nil, fmt.Errorf("%w: iban failed validation (%s)", ErrInvalidInput, result.Reason)
	}

	if result.CountryCode != sortCodeCountry || result.BankCode == "" {
		s.metrics.RecordLookup("iban", "not_found")
		return &LookupResult{Found: false}, nil
	}

	entry, err := s.repo.FindBySortCode(ctx, result.BankCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordLookup("iban", "not_found")
			return &LookupResult{Found: false}, nil
		}
		s.metrics.RecordLookup("iban", "error")
		return nil, err
	}

	s.metrics.RecordLookup("iban", "found")
	return lookupResultFromEntry(entry), nil
}

// ResolveBySortCode resolves an exact national sort code. Input must be
// exactly eight digits; anything else is a client error, not a miss.
func (s *lookupService) ResolveBySortCode(ctx context.Context, sortCode string) (*LookupResult, error) {
	sortCode = strings.TrimSpace(sortCode)
	if !sortCodeRegex.MatchString(sortCode) {
		s.metrics.RecordLookup("sortcode", "invalid")
		return nil, fmt.Errorf("%w: sort code must be exactly 8 digits", ErrInvalidInput)
	}

	entry, err := s.repo.FindBySortCode(ctx, sortCode)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordLookup("sortcode", "not_found")
			return nil, ErrNotFound
		}
		s.metrics.RecordLookup("sortcode", "error")
		return nil, err
	}

	s.metrics.RecordLookup("sortcode", "found")
	return lookupResultFromEntry(entry), nil
}

// ResolveByBIC resolves a structurally valid BIC to one registry entry.
func (s *lookupService) ResolveByBIC(ctx context.Context, bic string) (*LookupResult, error) {
	bic = strings.ToUpper(strings.TrimSpace(bic))
	if !bicRegex.MatchString(bic) {
		s.metrics.RecordLookup("bic", "invalid")
		return nil, fmt.Errorf("%w: malformed BIC", ErrInvalidInput)
	}

	entry, err := s.repo.FindByBIC(ctx, bic)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.RecordLookup("bic", "not_found")
			return nil, ErrNotFound
		}
		s.metrics.RecordLookup("bic", "error")
		return nil, err
	}

	s.metrics.RecordLookup("bic", "found")
	return lookupResultFromEntry(entry), nil
}

// SearchByName returns ranked name matches. Terms shorter than two
// characters yield an empty result without touching the registry.
func (s *lookupService) SearchByName(ctx context.Context, term string, limit int) ([]SearchResult, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < minSearchTermLength {
		return []SearchResult{}, nil
	}

	entries, err := s.repo.SearchByName(ctx, term, limit)
	if err != nil {
		s.metrics.RecordLookup("name", "error")
		return nil, err
	}

	s.metrics.RecordLookup("name", "found")
	results := make([]SearchResult, 0, len(entries))
	for i := range entries {
		results = append(results, searchResultFromEntry(&entries[i]))
	}
	return results, nil
}

// BatchResolveByIBAN resolves up to MaxBatchSize IBANs independently. The
// result slice preserves input order and cardinality; one failing element
// never aborts the rest.
func (s *lookupService) BatchResolveByIBAN(ctx context.Context, ibans []string) ([]BatchResult, error) {
	if len(ibans) == 0 {
		return nil, fmt.Errorf("%w: ibans must not be empty", ErrInvalidInput)
	}
	if len(ibans) > MaxBatchSize {
		return nil, fmt.Errorf("%w: at most %d ibans per batch", ErrInvalidInput, MaxBatchSize)
	}

	s.metrics.RecordBatchSize(len(ibans))

	results := make([]BatchResult, len(ibans))
	for i, raw := range ibans {
		results[i] = s.resolveBatchItem(ctx, raw)
	}
	return results, nil
}

func (s *lookupService) resolveBatchItem(ctx context.Context, raw string) BatchResult {
	validation := iban.Validate(raw)
	item := BatchResult{
		IBAN:        raw,
		Valid:       validation.Valid,
		ErrorReason: validation.Reason,
	}
	if iban.Normalize(raw) == "" {
		item.Valid = false
		item.ErrorReason = iban.ReasonFormat
		return item
	}
	if !validation.Valid {
		return item
	}
	if validation.CountryCode != sortCodeCountry || validation.BankCode == "" {
		return item
	}

	entry, err := s.repo.FindBySortCode(ctx, validation.BankCode)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			item.LookupError = "registry lookup failed"
		}
		return item
	}

	item.Found = true
	item.BankSortCode = entry.SortCode
	item.Bank = bankInfoFromEntry(entry)
	return item
}

// Status reports registry health.
func (s *lookupService) Status(ctx context.Context) (*repository.RegistryStatus, error) {
	return s.repo.Status(ctx)
}

// ValidateIBAN exposes the pure validator for the UI field-validation
// endpoint.
func (s *lookupService) ValidateIBAN(rawIBAN string) iban.Result {
	return iban.Validate(rawIBAN)
}

func bankInfoFromEntry(entry *model.BankDirectoryEntry) *BankInfo {
	return &BankInfo{
		Name:      entry.FullName,
		ShortName: entry.ShortName,
		BIC:       entry.BIC,
		City:      entry.City,
	}
}

func lookupResultFromEntry(entry *model.BankDirectoryEntry) *LookupResult {
	return &LookupResult{
		Found:        true,
		BankSortCode: entry.SortCode,
		Bank:         bankInfoFromEntry(entry),
	}
}

func searchResultFromEntry(entry *model.BankDirectoryEntry) SearchResult {
	display := entry.DisplayName()
	full := display
	if entry.City != "" {
		full = fmt.Sprintf("%s, %s", display, entry.City)
	}
	if entry.BIC != "" {
		full = fmt.Sprintf("%s (%s)", full, entry.BIC)
	}
	return SearchResult{
		SortCode:        entry.SortCode,
		Name:            entry.FullName,
		ShortName:       entry.ShortName,
		BIC:             entry.BIC,
		City:            entry.City,
		DisplayName:     display,
		FullDisplayName: full,
	}
}
