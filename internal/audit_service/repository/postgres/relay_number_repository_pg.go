package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/relayops/syncaudit/internal/audit_service/domain"
)

// Querier is the slice of pgxpool.Pool the repositories use. Keeping it an
// interface lets tests substitute pgxmock.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

type PgRelayNumberRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgRelayNumberRepository(db Querier, logger *slog.Logger) *PgRelayNumberRepository {
	return &PgRelayNumberRepository{
		db:     db,
		logger: logger.With("component", "relay_number_repository_pg"),
	}
}

// ListNumbers returns the full local number snapshot. The owner's verified
// real number rides along so the country code can be derived when the stored
// column is empty (older rows predate the column).
func (r *PgRelayNumberRepository) ListNumbers(ctx context.Context) ([]domain.RelayNumber, error) {
	query := `SELECT rn.number, rn.enabled,
	                 rn.texts_forwarded, rn.texts_blocked, rn.calls_forwarded, rn.calls_blocked,
	                 rn.service_sid,
	                 COALESCE(rp.country_code, ''), COALESCE(rp.number, '')
	          FROM relay_numbers rn
	          LEFT JOIN real_phones rp ON rp.user_id = rn.user_id AND rp.verified
	          ORDER BY rn.number`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query relay numbers", "error", err)
		return nil, fmt.Errorf("query relay numbers: %w", err)
	}
	defer rows.Close()

	var numbers []domain.RelayNumber
	for rows.Next() {
		var n domain.RelayNumber
		var realNumber string
		err := rows.Scan(
			&n.Number,
			&n.Enabled,
			&n.TextsForwarded,
			&n.TextsBlocked,
			&n.CallsForwarded,
			&n.CallsBlocked,
			&n.ServiceSID,
			&n.CountryCode,
			&realNumber,
		)
		if err != nil {
			return nil, fmt.Errorf("scan relay number: %w", err)
		}
		if n.CountryCode == "" && realNumber != "" {
			n.CountryCode = domain.CountryCode(realNumber)
		}
		numbers = append(numbers, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relay numbers: %w", err)
	}
	return numbers, nil
}

// ClearServiceLink drops a number's local service link. This is the only
// mutation the auditor is allowed to make.
func (r *PgRelayNumberRepository) ClearServiceLink(ctx context.Context, number string) error {
	query := `UPDATE relay_numbers SET service_sid = NULL WHERE number = $1`

	tag, err := r.db.Exec(ctx, query, number)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to clear service link", "number", number, "error", err)
		return fmt.Errorf("clear service link for %s: %w", number, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	r.logger.InfoContext(ctx, "Cleared service link", "number", number)
	return nil
}
