package kafka

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"scalpbot/pkg/logger"
)

// Message 消费到的一条消息
type Message struct {
	Key   []byte
	Value []byte
	Time  time.Time
}

// ConsumerService 定义了消费 Kafka 消息的通用接口
type ConsumerService interface {
	// Consume 启动一个协程消费指定主题，将消息发送到返回的通道，ctx 结束后通道关闭
	Consume(ctx context.Context, topic string, groupID string) (<-chan Message, error)
}

type kafkaConsumer struct {
	brokerURL string
}

func NewKafkaConsumer(brokerURL string) ConsumerService {
	return &kafkaConsumer{
		brokerURL: brokerURL,
	}
}

func (c *kafkaConsumer) Consume(ctx context.Context, topic string, groupID string) (<-chan Message, error) {
	if c.brokerURL == "" || topic == "" || groupID == "" {
		return nil, errors.New("kafka broker, topic and group are required")
	}
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{c.brokerURL},
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1,
		MaxBytes: 10e6, // 10MB
		// 审计流水需要从头消费
		StartOffset: kafka.FirstOffset,
		MaxAttempts: 3,
	})
	outputCh := make(chan Message, 100)

	go func() {
		defer close(outputCh)
		defer r.Close()
		for {
			m, err := r.FetchMessage(ctx)
			if err != nil {
				// Context 被取消（服务关闭），正常退出
				if ctx.Err() != nil {
					logger.Infof("Kafka Consumer for topic %s finished.", topic)
					return
				}
				logger.Errorf("Kafka read error on topic %s: %v", topic, err)
				time.Sleep(time.Second)
				continue
			}

			// 流水不能丢，通道满时阻塞
			select {
			case outputCh <- Message{Key: m.Key, Value: m.Value, Time: m.Time}:
			case <-ctx.Done():
				return
			}

			// 下游收到之后才提交 Offset
			if err := r.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
				logger.Errorf("Failed to commit offset on topic %s: %v", topic, err)
			}
		}
	}()

	return outputCh, nil
}
