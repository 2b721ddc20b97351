package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"

	"github.com/Mihklz/casetrail/internal/logger"
	"github.com/Mihklz/casetrail/internal/model"
)

// CaseHeader заголовок сообщения Kafka, по одному на каждый кейс.
const CaseHeader = "case"

// Producer часть клиента kgo, нужная хранилищу.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaStore публикует записи аудита в топик Kafka.
// Ключ сообщения идентификатор записи, значение JSON записи.
type KafkaStore struct {
	producer Producer
	topic    string
}

// NewKafkaStore создает хранилище поверх готового продюсера.
func NewKafkaStore(producer Producer, topic string) *KafkaStore {
	return &KafkaStore{producer: producer, topic: topic}
}

// NewKafkaClient создает клиента kgo для списка брокеров.
func NewKafkaClient(brokers []string, topic string) (*kgo.Client, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return client, nil
}

// AppendEntry синхронно отправляет одно сообщение на запись.
func (k *KafkaStore) AppendEntry(ctx context.Context, entry Entry, cases model.CaseSet) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal audit entry: %w", err)
	}

	headers := make([]kgo.RecordHeader, 0, len(cases))
	for _, c := range cases {
		headers = append(headers, kgo.RecordHeader{Key: CaseHeader, Value: []byte(c)})
	}

	record := &kgo.Record{
		Topic:   k.topic,
		Key:     []byte(entry.ID.String()),
		Value:   value,
		Headers: headers,
	}

	if err := k.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		logger.Log.Error("Failed to produce audit entry",
			zap.String("topic", k.topic),
			zap.String("entry_id", entry.ID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("produce audit entry: %w", err)
	}
	return nil
}
