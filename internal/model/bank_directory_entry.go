package model

import (
	"time"
)

// BankDirectoryEntry represents one institution row in the bank_directory table.
// The registry is keyed by the national sort code (Bankleitzahl); all feed
// bookkeeping columns are stored verbatim for audit purposes.
type BankDirectoryEntry struct {
	SortCode            string    `db:"sort_code" json:"sortCode"`
	Flag                string    `db:"flag" json:"flag"`
	FullName            string    `db:"full_name" json:"fullName"`
	ShortName           string    `db:"short_name" json:"shortName"`
	PostalCode          string    `db:"postal_code" json:"postalCode"`
	City                string    `db:"city" json:"city"`
	HeadOfficeIndicator string    `db:"head_office_indicator" json:"headOfficeIndicator"`
	BIC                 string    `db:"bic" json:"bic"`
	ChecksumMethod      string    `db:"checksum_method" json:"checksumMethod"`
	RecordNumber        string    `db:"record_number" json:"recordNumber"`
	ChangeMarker        string    `db:"change_marker" json:"changeMarker"`
	DeletionMarker      string    `db:"deletion_marker" json:"deletionMarker"`
	SuccessorSortCode   string    `db:"successor_sort_code" json:"successorSortCode"`
	UpdatedAt           time.Time `db:"updated_at" json:"updatedAt"`
}

// DisplayName returns the short name if present, otherwise the full name.
func (e *BankDirectoryEntry) DisplayName() string {
	if e.ShortName != "" {
		return e.ShortName
	}
	return e.FullName
}
