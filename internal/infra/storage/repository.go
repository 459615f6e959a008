package storage

import (
	"context"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// EscalationJournal records exhausted critical actions for operator review.
type EscalationJournal interface {
	Insert(ctx context.Context, e domain.Escalation) error
	Recent(ctx context.Context, limit int) ([]domain.Escalation, error)
}

// RouteStore persists route health across restarts.
type RouteStore interface {
	SaveSnapshot(ctx context.Context, reports []domain.RouteReport) error
	LoadSnapshot(ctx context.Context) ([]domain.RouteReport, error)
}
