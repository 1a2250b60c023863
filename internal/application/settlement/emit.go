package settlement

import (
	"context"

	"birthpad-backend/internal/domain"
	"birthpad-backend/internal/metrics"

	"github.com/rs/zerolog/log"
)

// Emit publishes ev without failing the caller. The originating request has
// already committed, so a publish failure is logged and counted only.
func Emit(ctx context.Context, bus Bus, m *metrics.Metrics, ev domain.SettlementEvent) {
	err := bus.Publish(ctx, ev)
	m.RecordSettlementPublished(ev.Type, metrics.Outcome(err))
	if err != nil {
		log.Error().Err(err).
			Str("type", ev.Type).
			Str("launch_id", ev.LaunchID).
			Str("contribution_id", ev.ContributionID).
			Msg("settlement publish failed")
	}
}
