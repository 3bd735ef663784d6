package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zdziszkee/iban-registry/internal/database"
	"github.com/zdziszkee/iban-registry/internal/model"
)

var (
	ErrNotFound = errors.New("bank not found")
)

const (
	// maxSearchLimit caps name-search results regardless of what the caller
	// requests, to bound the response payload.
	maxSearchLimit = 50

	// insertBatchSize bounds the per-statement payload during a full import.
	insertBatchSize = 500
)

const entryColumns = "sort_code, flag, full_name, short_name, postal_code, city, head_office_indicator, bic, checksum_method, record_number, change_marker, deletion_marker, successor_sort_code, updated_at"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS bank_directory (
    sort_code             TEXT PRIMARY KEY,
    flag                  TEXT NOT NULL DEFAULT '',
    full_name             TEXT NOT NULL DEFAULT '',
    short_name            TEXT NOT NULL DEFAULT '',
    postal_code           TEXT NOT NULL DEFAULT '',
    city                  TEXT NOT NULL DEFAULT '',
    head_office_indicator TEXT NOT NULL DEFAULT '',
    bic                   TEXT NOT NULL DEFAULT '',
    checksum_method       TEXT NOT NULL DEFAULT '',
    record_number         TEXT NOT NULL DEFAULT '',
    change_marker         TEXT NOT NULL DEFAULT '',
    deletion_marker       TEXT NOT NULL DEFAULT '',
    successor_sort_code   TEXT NOT NULL DEFAULT '',
    updated_at            TIMESTAMPTZ NOT NULL
)`

var indexDDL = []string{
	`CREATE INDEX IF NOT EXISTS idx_bank_directory_bic ON bank_directory (bic)`,
	`CREATE INDEX IF NOT EXISTS idx_bank_directory_full_name ON bank_directory (lower(full_name))`,
}

// RegistryStatus is the aggregate health read over the bank directory.
type RegistryStatus struct {
	TotalEntries  int64      `json:"totalEntries"`
	UniqueBICs    int64      `json:"uniqueBics"`
	LastUpdatedAt *time.Time `json:"lastUpdatedAt"`
}

// BankRepository defines the data operations on the bank directory. All read
// paths are request-safe; ReplaceAll belongs to the importer alone.
type BankRepository interface {
	FindBySortCode(ctx context.Context, sortCode string) (*model.BankDirectoryEntry, error)
	FindByBIC(ctx context.Context, bic string) (*model.BankDirectoryEntry, error)
	SearchByName(ctx context.Context, term string, limit int) ([]model.BankDirectoryEntry, error)
	Status(ctx context.Context) (*RegistryStatus, error)
	ReplaceAll(ctx context.Context, entries []model.BankDirectoryEntry) (int, error)
}

// SQLBankRepository implements BankRepository over database/sql.
type SQLBankRepository struct {
	db *sql.DB
}

// NewSQLBankRepository creates a new repository instance.
func NewSQLBankRepository(db *database.Database) BankRepository {
	return &SQLBankRepository{db: db.DB}
}

// FindBySortCode returns the entry for an exact sort code. Entries without a
// BIC are excluded: they cannot feed BIC propagation downstream.
func (r *SQLBankRepository) FindBySortCode(ctx context.Context, sortCode string) (*model.BankDirectoryEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_directory WHERE sort_code = $1 AND bic <> ''", entryColumns)
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, sortCode))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query by sort code failed: %w", err)
	}
	return entry, nil
}

// FindByBIC returns one entry for an exact BIC match. A BIC may be shared by
// several sort codes; the lowest sort code wins so repeated calls are
// deterministic.
func (r *SQLBankRepository) FindByBIC(ctx context.Context, bic string) (*model.BankDirectoryEntry, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_directory WHERE bic = $1 ORDER BY sort_code ASC LIMIT 1", entryColumns)
	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, strings.ToUpper(bic)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query by bic failed: %w", err)
	}
	return entry, nil
}

// SearchByName performs a case-insensitive substring search over full name,
// short name and city, restricted to entries that carry a BIC. Prefix matches
// on the short name rank first, then prefix matches on the full name, then
// the remaining substring matches, alphabetical by full name within each tier.
func (r *SQLBankRepository) SearchByName(ctx context.Context, term string, limit int) ([]model.BankDirectoryEntry, error) {
	if limit <= 0 || limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	needle := strings.ToLower(strings.TrimSpace(term))
	substring := "%" + escapeLike(needle) + "%"
	prefix := escapeLike(needle) + "%"

	query := fmt.Sprintf(`SELECT %s FROM bank_directory
		WHERE bic <> '' AND (lower(full_name) LIKE $1 OR lower(short_name) LIKE $1 OR lower(city) LIKE $1)
		ORDER BY CASE
			WHEN lower(short_name) LIKE $2 THEN 0
			WHEN lower(full_name) LIKE $2 THEN 1
			ELSE 2
		END, full_name ASC
		LIMIT $3`, entryColumns)

	rows, err := r.db.QueryContext(ctx, query, substring, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("name search failed: %w", err)
	}
	defer rows.Close()

	var entries []model.BankDirectoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("name search scan failed: %w", err)
		}
		entries = append(entries, *entry)
	}
	return entries, rows.Err()
}

// Status reports aggregate registry health.
func (r *SQLBankRepository) Status(ctx context.Context) (*RegistryStatus, error) {
	query := `SELECT COUNT(*), COUNT(DISTINCT bic) FILTER (WHERE bic <> ''), MAX(updated_at) FROM bank_directory`

	var status RegistryStatus
	var lastUpdated sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&status.TotalEntries, &status.UniqueBICs, &lastUpdated); err != nil {
		return nil, fmt.Errorf("status query failed: %w", err)
	}
	if lastUpdated.Valid {
		status.LastUpdatedAt = &lastUpdated.Time
	}
	return &status, nil
}

// ReplaceAll swaps the whole directory for the given entries inside a single
// transaction: readers see either the previous or the new registry, never a
// partial one. The insert is an upsert by sort code so a re-run over an
// overlapping data set stays idempotent.
func (r *SQLBankRepository) ReplaceAll(ctx context.Context, entries []model.BankDirectoryEntry) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin import transaction failed: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return 0, fmt.Errorf("ensure schema failed: %w", err)
	}
	for _, ddl := range indexDDL {
		if _, err := tx.ExecContext(ctx, ddl); err != nil {
			return 0, fmt.Errorf("ensure index failed: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM bank_directory"); err != nil {
		return 0, fmt.Errorf("clear directory failed: %w", err)
	}

	now := time.Now().UTC()
	inserted := 0
	for start := 0; start < len(entries); start += insertBatchSize {
		end := start + insertBatchSize
		if end > len(entries) {
			end = len(entries)
		}
		if err := insertBatch(ctx, tx, entries[start:end], now); err != nil {
			return 0, err
		}
		inserted += end - start
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import transaction failed: %w", err)
	}
	return inserted, nil
}

func insertBatch(ctx context.Context, tx *sql.Tx, entries []model.BankDirectoryEntry, now time.Time) error {
	if len(entries) == 0 {
		return nil
	}

	const columnCount = 14
	values := make([]interface{}, 0, len(entries)*columnCount)
	placeholders := make([]string, 0, len(entries))

	for i, entry := range entries {
		base := i * columnCount
		marks := make([]string, columnCount)
		for j := range marks {
			marks[j] = fmt.Sprintf("$%d", base+j+1)
		}
		placeholders = append(placeholders, "("+strings.Join(marks, ", ")+")")
		values = append(values,
			entry.SortCode,
			entry.Flag,
			entry.FullName,
			entry.ShortName,
			entry.PostalCode,
			entry.City,
			entry.HeadOfficeIndicator,
			strings.ToUpper(entry.BIC),
			entry.ChecksumMethod,
			entry.RecordNumber,
			entry.ChangeMarker,
			entry.DeletionMarker,
			entry.SuccessorSortCode,
			now,
		)
	}

	query := fmt.Sprintf(`INSERT INTO bank_directory (%s) VALUES %s
		ON CONFLICT (sort_code) DO UPDATE SET
			flag = EXCLUDED.flag,
			full_name = EXCLUDED.full_name,
			short_name = EXCLUDED.short_name,
			postal_code = EXCLUDED.postal_code,
			city = EXCLUDED.city,
			head_office_indicator = EXCLUDED.head_office_indicator,
			bic = EXCLUDED.bic,
			checksum_method = EXCLUDED.checksum_method,
			record_number = EXCLUDED.record_number,
			change_marker = EXCLUDED.change_marker,
			deletion_marker = EXCLUDED.deletion_marker,
			successor_sort_code = EXCLUDED.successor_sort_code,
			updated_at = EXCLUDED.updated_at`,
		entryColumns, strings.Join(placeholders, ", "))

	if _, err := tx.ExecContext(ctx, query, values...); err != nil {
		return fmt.Errorf("insert batch of %d entries failed: %w", len(entries), err)
	}
	return nil
}

// escapeLike neutralizes LIKE metacharacters in user-supplied search terms.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func scanEntry(scanner interface {
	Scan(dest ...any) error
}) (*model.BankDirectoryEntry, error) {
	var entry model.BankDirectoryEntry
	err := scanner.Scan(
		&entry.SortCode,
		&entry.Flag,
		&entry.FullName,
		&entry.ShortName,
		&entry.PostalCode,
		&entry.City,
		&entry.HeadOfficeIndicator,
		&entry.BIC,
		&entry.ChecksumMethod,
		&entry.RecordNumber,
		&entry.ChangeMarker,
		&entry.DeletionMarker,
		&entry.SuccessorSortCode,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
