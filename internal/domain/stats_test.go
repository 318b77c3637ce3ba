package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"recipe-harvester/internal/domain"
)

func TestRunStats_RecordFoldsCounters(t *testing.T) {
	tests := []struct {
		name   string
		status domain.ItemStatus
		want   domain.RunStats
	}{
		{
			name:   "stored counts through every stage",
			status: domain.ItemStored,
			want:   domain.RunStats{Extracted: 1, Approved: 1, Stored: 1},
		},
		{
			name:   "embedding degraded still counts as stored",
			status: domain.ItemEmbeddingDegraded,
			want:   domain.RunStats{Extracted: 1, Approved: 1, Stored: 1},
		},
		{
			name:   "rejected counts as extracted and failed",
			status: domain.ItemRejected,
			want:   domain.RunStats{Extracted: 1, Failed: 1},
		},
		{
			name:   "extraction failure counts only as failed",
			status: domain.ItemExtractionFailed,
			want:   domain.RunStats{Failed: 1},
		},
		{
			name:   "duplicate is approved but not stored nor failed",
			status: domain.ItemDuplicateSkipped,
			want:   domain.RunStats{Extracted: 1, Approved: 1, Duplicates: 1},
		},
		{
			name:   "store failure counts as approved and failed",
			status: domain.ItemStoreFailed,
			want:   domain.RunStats{Extracted: 1, Approved: 1, Failed: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s domain.RunStats
			s.Record(domain.ItemOutcome{URL: "https://example.com/r", Status: tt.status})

			assert.Equal(t, tt.want.Extracted, s.Extracted)
			assert.Equal(t, tt.want.Approved, s.Approved)
			assert.Equal(t, tt.want.Stored, s.Stored)
			assert.Equal(t, tt.want.Duplicates, s.Duplicates)
			assert.Equal(t, tt.want.Failed, s.Failed)
			assert.Len(t, s.Items, 1)
		})
	}
}

func TestRunStats_InvariantsHoldForAnyMix(t *testing.T) {
	statuses := []domain.ItemStatus{
		domain.ItemStored,
		domain.ItemRejected,
		domain.ItemExtractionFailed,
		domain.ItemDuplicateSkipped,
		domain.ItemStoreFailed,
		domain.ItemEmbeddingDegraded,
		domain.ItemStored,
		domain.ItemRejected,
	}

	s := domain.RunStats{Searched: len(statuses)}
	for _, st := range statuses {
		s.Record(domain.ItemOutcome{Status: st})
	}

	assert.LessOrEqual(t, s.Stored+s.Duplicates, s.Approved)
	assert.LessOrEqual(t, s.Approved, s.Extracted)
	assert.LessOrEqual(t, s.Extracted, s.Searched)
	// Every item lands in exactly one terminal bucket.
	assert.Equal(t, len(statuses), s.Stored+s.Duplicates+s.Failed)
}
