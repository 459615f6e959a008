package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// EscalationRepo persists escalations so alerts survive a process restart.
type EscalationRepo struct {
	db *DB
}

// NewEscalationRepo creates the repository.
func NewEscalationRepo(db *DB) *EscalationRepo {
	return &EscalationRepo{db: db}
}

type escalationRow struct {
	ID        string    `db:"id"`
	Action    string    `db:"action"`
	Chain     string    `db:"chain"`
	Venue     string    `db:"venue"`
	Pair      string    `db:"pair"`
	Quantity  float64   `db:"quantity"`
	OriginTx  string    `db:"origin_tx"`
	LastError string    `db:"last_error"`
	Attempts  int       `db:"attempts"`
	CreatedAt time.Time `db:"created_at"`
}

// Insert stores one escalation record.
func (r *EscalationRepo) Insert(ctx context.Context, e domain.Escalation) error {
	query := `
		INSERT INTO escalations (id, action, chain, venue, pair, quantity, origin_tx, last_error, attempts, created_at)
		VALUES (:id, :action, :chain, :venue, :pair, :quantity, :origin_tx, :last_error, :attempts, :created_at)
		ON CONFLICT (id) DO NOTHING`

	row := escalationRow{
		ID:        e.ID,
		Action:    e.Action,
		Chain:     e.Route.Chain,
		Venue:     e.Route.Venue,
		Pair:      e.Route.Pair,
		Quantity:  e.Position.Quantity,
		OriginTx:  e.Position.OriginTx,
		LastError: e.LastError,
		Attempts:  e.Attempts,
		CreatedAt: e.Timestamp,
	}
	if _, err := r.db.NamedExecContext(ctx, query, row); err != nil {
		return fmt.Errorf("insert escalation: %w", err)
	}
	return nil
}

// Recent returns the newest escalations, most recent first.
func (r *EscalationRepo) Recent(ctx context.Context, limit int) ([]domain.Escalation, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []escalationRow
	query := `
		SELECT id, action, chain, venue, pair, quantity, origin_tx, last_error, attempts, created_at
		FROM escalations
		ORDER BY created_at DESC
		LIMIT $1`
	if err := r.db.SelectContext(ctx, &rows, query, limit); err != nil {
		return nil, fmt.Errorf("list escalations: %w", err)
	}

	out := make([]domain.Escalation, 0, len(rows))
	for _, row := range rows {
		route := domain.RouteID{Chain: row.Chain, Venue: row.Venue, Pair: row.Pair}
		out = append(out, domain.Escalation{
			ID:        row.ID,
			Action:    row.Action,
			Route:     route,
			Position:  domain.Position{Route: route, Quantity: row.Quantity, OriginTx: row.OriginTx},
			LastError: row.LastError,
			Attempts:  row.Attempts,
			Timestamp: row.CreatedAt,
		})
	}
	return out, nil
}
