package model

// QueryOpts holds optional filters applied to archive entry queries.
type QueryOpts struct {
	MinLevel *Level // nil = no level gate
	Category string // empty = all categories
	Contains string // empty = no substring match
	Limit    int    // 0 = store default
}

// EntryQuerier provides read-only queries over archived entries.
type EntryQuerier interface {
	RecentEntries(opts QueryOpts) ([]*Entry, error)
	TotalEntryCount() (int64, error)
	LevelCounts() ([]LevelCount, error)
	CountsByMinute(limit int) ([]MinuteCounts, error)
}

// EntryWriter provides append-oriented writes for assembled entries.
type EntryWriter interface {
	InsertEntryBatch(entries []*Entry) error
}

// EntrySnapshotter returns the full in-memory log in arrival order.
// Implemented by the view model; used by read surfaces when no archive
// is configured.
type EntrySnapshotter interface {
	Snapshot() []*Entry
}
