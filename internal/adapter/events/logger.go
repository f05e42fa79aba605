package events

import (
	"go.uber.org/zap"

	domain "nftloan-backend/internal/domain/loan"
)

// LogEmitter writes one structured line per event.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogEmitter{logger: logger.Named("events")}
}

func (e *LogEmitter) Emit(ev domain.Event) {
	fields := []zap.Field{
		zap.String("event_id", ev.ID),
		zap.String("event", string(ev.Name)),
		zap.Time("occurred_at", ev.OccurredAt),
	}
	if l := ev.Loan; l != nil {
		fields = append(fields,
			zap.Uint64("loan_id", l.ID),
			zap.String("state", string(l.State)),
			zap.String("borrower", l.Borrower.Hex()),
			zap.Uint64("interest_rate_bps", l.InterestRate),
		)
		if l.HasBid() {
			fields = append(fields, zap.String("lender", l.Lender.Hex()))
		}
	}
	e.logger.Info("loan event", fields...)
}
