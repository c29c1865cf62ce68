// Package index persists the durable filing index: which filings exist,
// which companies they belong to, and how far each filing has progressed
// through the download and parse stages.
package index

import (
	"time"
)

// Company represents a filing entity (issuing trust or filer) in the index.
// A CIK appears at most once; attributes are first-write-wins.
type Company struct {
	CIK       int64     `gorm:"column:cik;primaryKey"`
	Name      string    `gorm:"column:name;size:255"`
	IsTrust   bool      `gorm:"column:is_trust;default:false"`
	AssetType *string   `gorm:"column:asset_type;size:32"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName returns the table name.
func (Company) TableName() string {
	return "companies"
}

// Filing represents one indexed exhibit submission keyed by accession number.
type Filing struct {
	AccNo        int64     `gorm:"column:acc_no;primaryKey"`
	CIKFiler     int64     `gorm:"column:cik_filer;index"`
	CIKTrust     int64     `gorm:"column:cik_trust;index"`
	URL          string    `gorm:"column:url;size:255;not null"`
	IsDownloaded bool      `gorm:"column:is_downloaded;default:false;index"`
	IsParsed     bool      `gorm:"column:is_parsed;default:false;index"`
	Skip         bool      `gorm:"column:skip;default:false"`
	DateFiling   time.Time `gorm:"column:date_filing;index"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName returns the table name.
func (Filing) TableName() string {
	return "filings"
}

// Entry bundles one scraped search result: the resolved trust, the filer
// when distinct from the trust, and the filing row itself.
type Entry struct {
	Trust  Company
	Filer  *Company
	Filing Filing
}

// PendingFiling is a filing awaiting a pipeline stage, joined with the
// identity of its issuing trust for path building and filtering.
type PendingFiling struct {
	AccNo      int64
	CIKTrust   int64
	URL        string
	DateFiling time.Time
	TrustName  string
	AssetType  string
}

// SameDayGroup reports a trust that filed more than once on a single day.
// Diagnostic only; duplicates are flagged for the operator, never merged.
type SameDayGroup struct {
	CIKTrust   int64
	TrustName  string
	DateFiling time.Time
	Count      int
}
