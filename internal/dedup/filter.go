// Package dedup decides which freshly extracted records are new.
package dedup

import (
	"time"

	"github.com/law-makers/marches/pkg/models"
)

// DateLayout is the portal's publication date format (dd/mm/yyyy).
const DateLayout = "02/01/2006"

// Verdict is the result of checking one record.
type Verdict int

const (
	Accept Verdict = iota
	RejectDuplicate
	RejectRepeated
	RejectOffDate
)

func (v Verdict) String() string {
	switch v {
	case Accept:
		return "accept"
	case RejectDuplicate:
		return "duplicate"
	case RejectRepeated:
		return "repeated"
	case RejectOffDate:
		return "off_date"
	default:
		return "unknown"
	}
}

// Snapshot is the immutable set of references present before the run.
type Snapshot struct {
	refs map[string]struct{}
}

// NewSnapshot collects the references already stored in the dataset.
// Empty references are ignored.
func NewSnapshot(references []string) Snapshot {
	refs := make(map[string]struct{}, len(references))
	for _, ref := range references {
		if ref != "" {
			refs[ref] = struct{}{}
		}
	}
	return Snapshot{refs: refs}
}

// Contains reports whether ref existed before the run.
func (s Snapshot) Contains(ref string) bool {
	_, ok := s.refs[ref]
	return ok
}

// Len returns the number of known references.
func (s Snapshot) Len() int {
	return len(s.refs)
}

// Filter applies the dedup and date rules. It is meant to be driven by the
// single goroutine consuming crawl outcomes and is not safe for concurrent use.
type Filter struct {
	snapshot Snapshot
	mode     models.Mode
	today    string
	accepted map[string]struct{}
}

// NewFilter creates a Filter. today is only consulted in daily mode.
func NewFilter(snapshot Snapshot, mode models.Mode, today string) *Filter {
	return &Filter{
		snapshot: snapshot,
		mode:     mode,
		today:    today,
		accepted: make(map[string]struct{}),
	}
}

// Check returns the verdict for rec and remembers accepted references so a
// listing repeated across pages of the same run is only kept once.
func (f *Filter) Check(rec models.Record) Verdict {
	key, hasKey := rec.Key()

	if hasKey && f.snapshot.Contains(key) {
		return RejectDuplicate
	}
	if hasKey {
		if _, seen := f.accepted[key]; seen {
			return RejectRepeated
		}
	}

	if f.mode == models.ModeDaily {
		day, ok := rec.PublicationDay()
		if !ok || day != f.today {
			return RejectOffDate
		}
	}

	if hasKey {
		f.accepted[key] = struct{}{}
	}
	return Accept
}

// TodayToken formats t the way the portal prints publication dates.
func TodayToken(t time.Time) string {
	return t.Format(DateLayout)
}
