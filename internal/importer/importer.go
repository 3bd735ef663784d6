// Package importer loads the national bank directory feed into the registry.
// The feed is a semicolon-delimited file in a legacy single-byte encoding;
// each run replaces the whole directory in one transaction.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"

	"github.com/zdziszkee/iban-registry/internal/model"
	"github.com/zdziszkee/iban-registry/internal/repository"
)

var (
	ErrMissingSortCodeColumn = errors.New("directory feed has no recognizable sort code column")
	ErrEmptyFeed             = errors.New("directory feed contains no bank entries")
)

// Report summarizes a completed import run.
type Report struct {
	RunID        string `json:"runId"`
	Imported     int    `json:"importedCount"`
	TotalBanks   int64  `json:"totalBanks"`
	UniqueBICs   int64  `json:"uniqueBics"`
	BanksWithBIC int    `json:"banksWithBic"`
}

// Importer parses the directory feed and writes it through the repository.
type Importer struct {
	repo repository.BankRepository
}

// New creates an importer writing to the given repository.
func New(repo repository.BankRepository) *Importer {
	return &Importer{repo: repo}
}

// ImportFile runs a full import from a local directory file.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open directory file %s: %w", path, err)
	}
	defer file.Close()

	return im.Import(ctx, file)
}

// Import parses the feed and replaces the registry contents. Any error rolls
// the registry back to its previous state.
func (im *Importer) Import(ctx context.Context, input io.Reader) (*Report, error) {
	entries, banksWithBIC, err := Parse(input)
	if err != nil {
		return nil, err
	}

	imported, err := im.repo.ReplaceAll(ctx, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to replace registry contents: %w", err)
	}

	status, err := im.repo.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry status after import: %w", err)
	}

	return &Report{
		RunID:        uuid.NewString(),
		Imported:     imported,
		TotalBanks:   status.TotalEntries,
		UniqueBICs:   status.UniqueBICs,
		BanksWithBIC: banksWithBIC,
	}, nil
}

// Parse decodes and parses the feed into directory entries. The feed is
// decoded from Windows-1252 first; reading it as UTF-8 would corrupt the
// umlauts in institution and city names. Rows without a sort code are
// structural filler and are skipped silently. Repeated sort codes keep the
// first occurrence, so the registry holds at most one entry per key.
func Parse(input io.Reader) ([]model.BankDirectoryEntry, int, error) {
	decoded := charmap.Windows1252.NewDecoder().Reader(input)

	reader := csv.NewReader(decoded)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return nil, 0, ErrEmptyFeed
		}
		return nil, 0, fmt.Errorf("failed to read feed header: %w", err)
	}

	resolver := newFieldResolver(header)
	if _, ok := resolver.resolve(fieldSortCode); !ok {
		return nil, 0, ErrMissingSortCodeColumn
	}

	var entries []model.BankDirectoryEntry
	seen := make(map[string]bool)
	banksWithBIC := 0
	line := 1

	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read feed line %d: %w", line, err)
		}

		sortCode := resolver.value(record, fieldSortCode)
		if sortCode == "" {
			continue
		}
		if seen[sortCode] {
			continue
		}
		seen[sortCode] = true

		entry := model.BankDirectoryEntry{
			SortCode:            sortCode,
			Flag:                resolver.value(record, fieldFlag),
			FullName:            resolver.value(record, fieldFullName),
			ShortName:           resolver.value(record, fieldShortName),
			PostalCode:          resolver.value(record, fieldPostalCode),
			City:                resolver.value(record, fieldCity),
			HeadOfficeIndicator: resolver.value(record, fieldHeadOfficeIndicator),
			BIC:                 strings.ToUpper(resolver.value(record, fieldBIC)),
			ChecksumMethod:      resolver.value(record, fieldChecksumMethod),
			RecordNumber:        resolver.value(record, fieldRecordNumber),
			ChangeMarker:        resolver.value(record, fieldChangeMarker),
			DeletionMarker:      resolver.value(record, fieldDeletionMarker),
			SuccessorSortCode:   resolver.value(record, fieldSuccessorSortCode),
		}
		if entry.BIC != "" {
			banksWithBIC++
		}
		entries = append(entries, entry)
	}

	if len(entries) == 0 {
		return nil, 0, ErrEmptyFeed
	}
	return entries, banksWithBIC, nil
}
