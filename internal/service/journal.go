package service

import (
	"log/slog"
)

// Journal receives every committed operation. *store.Journal implements it.
type Journal interface {
	Append(kind string, data any) (uint64, error)
}

// recorder appends to the journal after a commit. The journal is an audit
// feed, so a failed append is logged and never fails the operation.
type recorder struct {
	journal Journal
	logger  *slog.Logger
}

func (r recorder) record(kind string, data any) {
	if r.journal == nil {
		return
	}
	if _, err := r.journal.Append(kind, data); err != nil {
		r.logger.Warn("journal append failed",
			slog.String("kind", kind),
			slog.String("error", err.Error()),
		)
	}
}
