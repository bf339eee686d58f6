package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"document-delivery/internal/config"
	"document-delivery/internal/logger"
	"document-delivery/internal/models"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
)

// Producer публикует доменные события заявок в Kafka.
type Producer struct {
	producer sarama.SyncProducer
	log      *logger.Logger
	topics   *config.Topics
}

// NewProducer создает синхронного продюсера.
func NewProducer(cfg *config.KafkaConfig, log *logger.Logger) (*Producer, error) {
	saramaCfg := sarama.NewConfig()
	saramaCfg.Producer.Return.Successes = true
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 3
	saramaCfg.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, saramaCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	log.WithField("brokers", cfg.Brokers).Info("Kafka producer created")

	return &Producer{
		producer: producer,
		log:      log,
		topics:   &cfg.Topics,
	}, nil
}

// Close закрывает продюсера
func (p *Producer) Close() error {
	if p == nil || p.producer == nil {
		return nil
	}
	return p.producer.Close()
}

// PublishOrderCreated публикует событие о создании заявки.
func (p *Producer) PublishOrderCreated(order *models.DocumentOrder) error {
	event := newEvent(models.EventTypeOrderCreated, map[string]interface{}{
		"order_id":      order.ID.String(),
		"document_type": order.DocumentType,
		"city":          order.City,
		"copies":        order.Copies,
		"scenario":      order.Scenario,
		"status":        order.Status,
		"total_amount":  order.Billing.TotalAmount,
	})
	return p.publishKeyed(p.topics.Orders, order.ID.String(), event)
}

// PublishBillingCaptured публикует зафиксированный счёт заявки.
func (p *Producer) PublishBillingCaptured(order *models.DocumentOrder) error {
	event := newEvent(models.EventTypeBillingCaptured, map[string]interface{}{
		"order_id":        order.ID.String(),
		"scenario":        order.Scenario,
		"billing_details": order.Billing,
		"total_amount":    order.Billing.TotalAmount,
	})
	return p.publishKeyed(p.topics.Orders, order.ID.String(), event)
}

func newEvent(t models.EventType, data map[string]interface{}) models.Event {
	return models.Event{
		ID:        uuid.New(),
		Type:      t,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// publishEvent отправляет событие с ключом по id события.
func (p *Producer) publishEvent(topic string, event models.Event) error {
	return p.publishKeyed(topic, event.ID.String(), event)
}

// publishKeyed отправляет событие; события одной заявки идут с одним ключом и попадают в одну партицию.
func (p *Producer) publishKeyed(topic, key string, event models.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(data),
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to send message to topic %s: %w", topic, err)
	}

	p.log.WithFields(map[string]interface{}{
		"topic":      topic,
		"partition":  partition,
		"offset":     offset,
		"event_type": event.Type,
		"event_id":   event.ID,
	}).Debug("Event published")

	return nil
}
