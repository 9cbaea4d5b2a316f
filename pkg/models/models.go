package models

import (
	"fmt"
	"strings"
	"time"
)

// Record is one procurement result extracted from a listing card.
// Absent values are nil and serialize as JSON null.
type Record struct {
	Reference         *string `json:"reference"`
	ObjectDescription *string `json:"object_description"`
	Buyer             *string `json:"buyer"`
	PublicationDate   *string `json:"publication_date"`
	QuoteCount        *string `json:"quote_count"`
	IsAwarded         bool    `json:"is_awarded"`
	AwardedCompany    *string `json:"awarded_company"`
	AwardAmount       *string `json:"award_amount"`
}

// Key returns the business reference used for deduplication.
func (r Record) Key() (string, bool) {
	if r.Reference == nil || *r.Reference == "" {
		return "", false
	}
	return *r.Reference, true
}

// PublicationDay returns the date token (dd/mm/yyyy) of the raw publication date.
func (r Record) PublicationDay() (string, bool) {
	if r.PublicationDate == nil {
		return "", false
	}
	fields := strings.Fields(*r.PublicationDate)
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

// AwardConsistent reports whether the award fields agree with IsAwarded.
func (r Record) AwardConsistent() bool {
	hasCompany := r.AwardedCompany != nil
	hasAmount := r.AwardAmount != nil
	if hasCompany != hasAmount {
		return false
	}
	return r.IsAwarded == hasCompany
}

// Mode selects the crawl behavior.
type Mode string

const (
	// ModeFull walks the whole page range without date filtering.
	ModeFull Mode = "full"
	// ModeDaily keeps only records published on the current day.
	ModeDaily Mode = "daily"
)

// PageOutcome is the result of fetching and extracting one page.
type PageOutcome struct {
	Page     int
	Records  []Record
	Attempts int
	Failed   bool
	Err      error
}

// Retries returns how many attempts were made beyond the first one.
func (o PageOutcome) Retries() int {
	if o.Attempts <= 1 {
		return 0
	}
	return o.Attempts - 1
}

// Summary reports what a crawl run did.
type Summary struct {
	RunID         string
	Mode          Mode
	Today         string
	PagesTotal    int
	PagesFailed   int
	RecordsSeen   int
	Accepted      int
	Duplicates    int
	Repeated      int
	OffDate       int
	Retries       int
	DatasetSize   int
	FailedPages   []int
	DatasetSaved  bool
	FailedSaved   bool
	Duration      time.Duration
	DatasetPath   string
	FailedLogPath string
}

// Line renders the one-line human summary printed at the end of a run.
func (s Summary) Line() string {
	if s.Accepted == 0 {
		if s.Mode == ModeDaily {
			return fmt.Sprintf("No new data found for %s.", s.Today)
		}
		return "No new data found."
	}
	if s.Mode == ModeDaily {
		return fmt.Sprintf("%d new records added for %s.", s.Accepted, s.Today)
	}
	return fmt.Sprintf("%d new records added, %d records saved.", s.Accepted, s.DatasetSize)
}
