package dedup

import (
	"testing"
	"time"

	"github.com/law-makers/marches/pkg/models"
	"github.com/stretchr/testify/assert"
)

func ptr(s string) *string { return &s }

func rec(ref, date string) models.Record {
	r := models.Record{}
	if ref != "" {
		r.Reference = ptr(ref)
	}
	if date != "" {
		r.PublicationDate = ptr(date)
	}
	return r
}

func TestFilter_RejectsKnownReferences(t *testing.T) {
	snap := NewSnapshot([]string{"A1", "A2", "", "A1"})
	assert.Equal(t, 2, snap.Len())

	f := NewFilter(snap, models.ModeFull, "")
	assert.Equal(t, RejectDuplicate, f.Check(rec("A1", "")))
	assert.Equal(t, RejectDuplicate, f.Check(rec("A2", "05/05/2024")))
	assert.Equal(t, Accept, f.Check(rec("B1", "")))
}

func TestFilter_RerunIsIdempotent(t *testing.T) {
	existing := []models.Record{rec("A1", ""), rec("A2", ""), rec("A3", "")}
	f := NewFilter(NewSnapshot([]string{"A1", "A2", "A3"}), models.ModeFull, "")

	for _, r := range existing {
		assert.NotEqual(t, Accept, f.Check(r))
	}
}

func TestFilter_MissingReferenceAlwaysNew(t *testing.T) {
	f := NewFilter(NewSnapshot(nil), models.ModeFull, "")
	assert.Equal(t, Accept, f.Check(rec("", "")))
	assert.Equal(t, Accept, f.Check(rec("", "")))
}

func TestFilter_IntraRunRepeat(t *testing.T) {
	f := NewFilter(NewSnapshot(nil), models.ModeFull, "")
	assert.Equal(t, Accept, f.Check(rec("B2", "")))
	assert.Equal(t, RejectRepeated, f.Check(rec("B2", "")))
}

func TestFilter_DailyDate(t *testing.T) {
	tests := []struct {
		name  string
		date  string
		today string
		want  Verdict
	}{
		{"same day", "07/03/2024", "07/03/2024", Accept},
		{"same day with time", "07/03/2024 10:30", "07/03/2024", Accept},
		{"other day", "07/03/2024", "08/03/2024", RejectOffDate},
		{"absent date", "", "07/03/2024", RejectOffDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter(NewSnapshot(nil), models.ModeDaily, tt.today)
			assert.Equal(t, tt.want, f.Check(rec("X", tt.date)))
		})
	}
}

func TestFilter_DuplicateCheckedBeforeDate(t *testing.T) {
	f := NewFilter(NewSnapshot([]string{"A1"}), models.ModeDaily, "07/03/2024")
	assert.Equal(t, RejectDuplicate, f.Check(rec("A1", "01/01/2020")))
}

func TestFilter_OffDateDoesNotMarkSeen(t *testing.T) {
	f := NewFilter(NewSnapshot(nil), models.ModeDaily, "07/03/2024")
	assert.Equal(t, RejectOffDate, f.Check(rec("C3", "06/03/2024")))
	assert.Equal(t, Accept, f.Check(rec("C3", "07/03/2024")))
}

func TestFilter_FullModeIgnoresDate(t *testing.T) {
	f := NewFilter(NewSnapshot(nil), models.ModeFull, "07/03/2024")
	assert.Equal(t, Accept, f.Check(rec("D4", "")))
	assert.Equal(t, Accept, f.Check(rec("D5", "01/01/1999")))
}

func TestTodayToken(t *testing.T) {
	day := time.Date(2024, time.March, 7, 23, 59, 0, 0, time.UTC)
	assert.Equal(t, "07/03/2024", TodayToken(day))
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "accept", Accept.String())
	assert.Equal(t, "off_date", RejectOffDate.String())
}
