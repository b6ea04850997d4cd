package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/relayops/syncaudit/internal/audit_service/domain"
)

type PgMessagingServiceRepository struct {
	db     Querier
	logger *slog.Logger
}

func NewPgMessagingServiceRepository(db Querier, logger *slog.Logger) *PgMessagingServiceRepository {
	return &PgMessagingServiceRepository{
		db:     db,
		logger: logger.With("component", "messaging_service_repository_pg"),
	}
}

// ListServices returns every local messaging service record.
func (r *PgMessagingServiceRepository) ListServices(ctx context.Context) ([]domain.MessagingService, error) {
	query := `SELECT sid, friendly_name, channel, use_case, campaign_use_case,
	                 registration_status, capacity_status
	          FROM messaging_services
	          ORDER BY sid`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.ErrorContext(ctx, "Failed to query messaging services", "error", err)
		return nil, fmt.Errorf("query messaging services: %w", err)
	}
	defer rows.Close()

	var services []domain.MessagingService
	for rows.Next() {
		var s domain.MessagingService
		err := rows.Scan(
			&s.SID,
			&s.FriendlyName,
			&s.Channel,
			&s.UseCase,
			&s.CampaignUseCase,
			&s.RegistrationStatus,
			&s.CapacityStatus,
		)
		if err != nil {
			return nil, fmt.Errorf("scan messaging service: %w", err)
		}
		services = append(services, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messaging services: %w", err)
	}
	return services, nil
}
