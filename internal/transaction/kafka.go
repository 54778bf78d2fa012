package transaction

import (
	"context"
	"fmt"
	"scalpbot/internal/model"
	"scalpbot/pkg/kafka"
	"scalpbot/pkg/logger"
	"scalpbot/pkg/utils"
	"time"

	"github.com/goccy/go-json"
)

// KafkaSink 把流水发布到 Kafka，由 Mirror 在下游落库
type KafkaSink struct {
	producer kafka.ProducerService
	retries  int
	delay    time.Duration
}

func NewKafkaSink(producer kafka.ProducerService) *KafkaSink {
	return &KafkaSink{producer: producer, retries: 3, delay: 100 * time.Millisecond}
}

func (k *KafkaSink) Save(ctx context.Context, record model.TransactionRecord) (model.TransactionRecord, error) {
	value, err := json.Marshal(record)
	if err != nil {
		return record, err
	}
	err = utils.Retry(k.retries, k.delay, true, func() error {
		return k.producer.Produce(ctx, []byte(record.OrderID), value)
	})
	return record, err
}

// Mirror 消费 Kafka 中的流水并写入 dst，ctx 结束后返回
func Mirror(ctx context.Context, consumer kafka.ConsumerService, topic, groupID string, dst Sink) error {
	ch, err := consumer.Consume(ctx, topic, groupID)
	if err != nil {
		return fmt.Errorf("consume %s: %w", topic, err)
	}
	for msg := range ch {
		var record model.TransactionRecord
		if err := json.Unmarshal(msg.Value, &record); err != nil {
			logger.Errorf("[Mirror] invalid transaction record on %s: %v", topic, err)
			continue
		}
		// 由下游存储分配主键
		record.ID = 0
		if _, err := dst.Save(ctx, record); err != nil {
			logger.Errorf("[Mirror] save order %s %s failed: %v", record.OrderID, record.Status, err)
		}
	}
	return ctx.Err()
}
