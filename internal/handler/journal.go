package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/efreitasn/dex/internal/store"
)

// JournalReader reads committed operations back. *store.Journal implements
// it.
type JournalReader interface {
	Entries(from uint64, limit int) ([]store.JournalEntry, error)
}

// JournalHandler serves the operation journal.
type JournalHandler struct {
	journal JournalReader
	logger  *slog.Logger
}

// NewJournalHandler creates a new JournalHandler.
func NewJournalHandler(journal JournalReader, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{journal: journal, logger: logger}
}

type journalEntryResponse struct {
	Seq  uint64          `json:"seq"`
	Kind string          `json:"kind"`
	At   string          `json:"at"`
	Data json.RawMessage `json:"data"`
}

type journalResponse struct {
	Entries []journalEntryResponse `json:"entries"`
	Next    uint64                 `json:"next"`
}

// List handles GET /journal.
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	var from uint64 = 1
	if f := r.URL.Query().Get("from"); f != "" {
		var err error
		from, err = strconv.ParseUint(f, 10, 64)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "from must be a non-negative integer")
			return
		}
	}

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		var err error
		limit, err = strconv.Atoi(l)
		if err != nil || limit < 1 || limit > 1000 {
			WriteError(w, http.StatusBadRequest, "validation_error", "limit must be between 1 and 1000")
			return
		}
	}

	entries, err := h.journal.Entries(from, limit)
	if err != nil {
		h.logger.Error("journal read failed", slog.String("error", err.Error()))
		WriteError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
		return
	}

	resp := journalResponse{
		Entries: make([]journalEntryResponse, len(entries)),
		Next:    from,
	}
	for i, e := range entries {
		resp.Entries[i] = journalEntryResponse{
			Seq:  e.Seq,
			Kind: e.Kind,
			At:   formatTime(e.At),
			Data: e.Data,
		}
		resp.Next = e.Seq + 1
	}
	WriteJSON(w, http.StatusOK, resp)
}
