package hedge

import (
	"context"
	"log/slog"

	"github.com/vietddude/sentinel/internal/core/domain"
	"github.com/vietddude/sentinel/internal/infra/storage"
)

// JournalEscalator persists escalations to a durable journal so they survive
// the process and can be reviewed by tooling.
type JournalEscalator struct {
	journal storage.EscalationJournal
	log     *slog.Logger
}

// NewJournalEscalator wraps a journal as an escalation sink.
func NewJournalEscalator(journal storage.EscalationJournal, log *slog.Logger) *JournalEscalator {
	if log == nil {
		log = slog.Default()
	}
	return &JournalEscalator{journal: journal, log: log}
}

// Escalate stores the record. A journal write failure is logged, never
// raised; the slog line emitted by the retrier remains the minimum sink.
func (j *JournalEscalator) Escalate(ctx context.Context, e domain.Escalation) {
	if err := j.journal.Insert(ctx, e); err != nil {
		j.log.Error("failed to journal escalation", "escalation_id", e.ID, "error", err)
	}
}
