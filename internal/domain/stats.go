package domain

// ItemStatus is the terminal state of one candidate in a harvest run.
type ItemStatus string

const (
	// ItemStored means the recipe was persisted with an embedding.
	ItemStored ItemStatus = "stored"
	// ItemEmbeddingDegraded means the recipe was persisted without an
	// embedding because generation exhausted its retry budget. This is
	// a successful outcome, not a failure.
	ItemEmbeddingDegraded ItemStatus = "embedding_degraded"
	// ItemRejected means validation turned the draft down.
	ItemRejected ItemStatus = "rejected"
	// ItemExtractionFailed means the page fetch or model parse failed.
	ItemExtractionFailed ItemStatus = "extraction_failed"
	// ItemDuplicateSkipped means the recipe already exists in the store.
	ItemDuplicateSkipped ItemStatus = "duplicate_skipped"
	// ItemStoreFailed means persistence failed for a non-duplicate reason.
	ItemStoreFailed ItemStatus = "store_failed"
)

// ItemOutcome records how one candidate ended, with enough detail for
// operational triage.
type ItemOutcome struct {
	URL    string
	Status ItemStatus
	Reason string
}

// RunStats aggregates one harvest run. It is built by folding item
// outcomes rather than by mutating shared counters, and is read-only
// once the run completes.
type RunStats struct {
	Query      string
	Searched   int
	Extracted  int
	Approved   int
	Stored     int
	Duplicates int
	Failed     int
	Items      []ItemOutcome
}

// Record folds one item outcome into the counters. Every counter a
// status implies is derived here so the run invariants
// (stored+failed+duplicates <= approved <= extracted <= searched)
// hold by construction.
func (s *RunStats) Record(out ItemOutcome) {
	s.Items = append(s.Items, out)

	switch out.Status {
	case ItemExtractionFailed:
		s.Failed++
	case ItemRejected:
		s.Extracted++
		s.Failed++
	case ItemDuplicateSkipped:
		s.Extracted++
		s.Approved++
		s.Duplicates++
	case ItemStoreFailed:
		s.Extracted++
		s.Approved++
		s.Failed++
	case ItemStored, ItemEmbeddingDegraded:
		s.Extracted++
		s.Approved++
		s.Stored++
	}
}
