package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/marginly/marginly-backend/internal/analytics/types"
	"github.com/marginly/marginly-backend/internal/analytics/worker"
	"github.com/marginly/marginly-backend/pkg/db/models"
	"github.com/marginly/marginly-backend/pkg/events"
	"github.com/marginly/marginly-backend/pkg/logger"
)

type rollupReader interface {
	Range(ctx context.Context, storeID uuid.UUID, from, to time.Time) ([]models.DailyMetric, error)
}

type rowWriter interface {
	InsertDailyMetrics(ctx context.Context, rows []types.DailyMetricRow) error
}

// Exporter copies the days touched by a sync pass into BigQuery.
type Exporter struct {
	rollups rollupReader
	writer  rowWriter
	logg    *logger.Logger
}

func NewExporter(rollups rollupReader, writer rowWriter, logg *logger.Logger) *Exporter {
	return &Exporter{rollups: rollups, writer: writer, logg: logg}
}

// Handle implements worker.Handler.
func (e *Exporter) Handle(ctx context.Context, env events.Envelope) error {
	if env.EventType != events.TypeSyncCompleted {
		return fmt.Errorf("%s: %w", env.EventType, worker.ErrUnsupportedEvent)
	}
	payload, err := env.DecodeSyncCompleted()
	if err != nil {
		// Redelivery cannot fix a malformed payload.
		e.logg.WarnErr(ctx, "dropping malformed sync event", err)
		return nil
	}

	since := payload.Since
	if since.IsZero() || since.After(payload.SyncedAt) {
		since = payload.SyncedAt
	}
	days, err := e.rollups.Range(ctx, payload.StoreID, since, payload.SyncedAt)
	if err != nil {
		return fmt.Errorf("load rollups: %w", err)
	}
	if len(days) == 0 {
		return nil
	}

	rows := make([]types.DailyMetricRow, 0, len(days))
	for _, day := range days {
		rows = append(rows, types.DailyMetricRowFromModel(day, payload.SyncedAt, env.EventID))
	}
	if err := e.writer.InsertDailyMetrics(ctx, rows); err != nil {
		return err
	}

	ctx = e.logg.WithField(ctx, "rows", len(rows))
	e.logg.Info(ctx, "daily metrics exported")
	return nil
}

var _ worker.Handler = (*Exporter)(nil)
