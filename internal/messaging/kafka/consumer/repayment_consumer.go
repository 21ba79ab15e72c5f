package consumer

import (
	"context"
	"encoding/json"

	"go-advance/internal/advance"
	"go-advance/internal/events"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeRepaymentEvents membuang cache saldo setiap ada mutasi repayment,
// supaya konsumen lain (payroll, dashboard) baca saldo segar.
func ConsumeRepaymentEvents(
	ctx context.Context,
	reader *kafkago.Reader,
	rdb *redis.Client,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.repayment")
	log.Info("repayment consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("repayment consumer stopped")
				return
			}
			log.Error("fetch repayment message failed", zap.Error(err))
			continue
		}

		var event events.AdvanceRepaymentEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode repayment event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if event.EmployeeID != "" && rdb != nil {
			cacheKey := advance.GetBalanceKey(event.EmployeeID)
			if err := rdb.Del(ctx, cacheKey).Err(); err != nil {
				log.Error("invalidate balance cache failed",
					zap.String("employee_id", event.EmployeeID),
					zap.String("key", cacheKey),
					zap.Error(err),
				)
				continue
			}
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit repayment message failed", zap.Error(err))
			continue
		}

		log.Info("balance cache invalidated from repayment event",
			zap.String("event_type", event.EventType),
			zap.String("employee_id", event.EmployeeID),
			zap.String("request_id", event.RequestID),
		)
	}
}
