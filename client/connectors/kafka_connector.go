/*
 * @module client/connectors/kafka_connector
 * @description Kafka事件发布器，流水线运行结束后向事件主题发布运行摘要
 * @architecture 适配器模式 - 封装第三方Kafka客户端，提供统一的发布接口
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 连接建立 -> 事件发布 -> 连接断开
 * @rules 发布失败记录告警但不使流水线失败，事件值为JSON
 * @dependencies github.com/segmentio/kafka-go
 * @refs service/warehouse/pipeline
 */
package connectors

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// EtlRunEvent ETL运行结束事件
type EtlRunEvent struct {
	RunID             string    `json:"run_id"`
	Status            string    `json:"status"`
	Trigger           string    `json:"trigger"`
	EmissionRowsNew   int64     `json:"emission_rows_new"`
	ProductionRowsNew int64     `json:"production_rows_new"`
	PriceRowsNew      int64     `json:"price_rows_new"`
	DailyMartRows     int64     `json:"daily_mart_rows"`
	MonthlyMartRows   int64     `json:"monthly_mart_rows"`
	WarningCount      int       `json:"warning_count"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
}

// KafkaEventPublisher Kafka运行事件发布器
type KafkaEventPublisher struct {
	brokers     []string
	topic       string
	writer      *kafka.Writer
	mutex       sync.RWMutex
	logger      *log.Logger
	isConnected bool
}

// NewKafkaEventPublisher 创建Kafka事件发布器
func NewKafkaEventPublisher(brokers []string, topic string, logger *log.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{
		brokers: brokers,
		topic:   topic,
		logger:  logger,
	}
}

// Connect 初始化生产者
func (p *KafkaEventPublisher) Connect() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.isConnected {
		return nil
	}

	p.writer = &kafka.Writer{
		Addr:         kafka.TCP(p.brokers...),
		Topic:        p.topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}

	p.isConnected = true
	p.logger.Printf("Kafka事件发布器已连接到brokers: %v, topic: %s", p.brokers, p.topic)
	return nil
}

// Disconnect 关闭生产者
func (p *KafkaEventPublisher) Disconnect() error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if !p.isConnected {
		return nil
	}

	if err := p.writer.Close(); err != nil {
		p.logger.Printf("关闭Kafka生产者失败: %v", err)
	}
	p.isConnected = false
	p.logger.Println("Kafka事件发布器已断开连接")
	return nil
}

// PublishRunEvent 发布一条运行结束事件，以运行ID为消息键
func (p *KafkaEventPublisher) PublishRunEvent(ctx context.Context, event *EtlRunEvent) error {
	p.mutex.RLock()
	writer, connected := p.writer, p.isConnected
	p.mutex.RUnlock()

	if !connected {
		return fmt.Errorf("事件发布器未连接")
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("序列化运行事件失败: %v", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = writer.WriteMessages(sendCtx, kafka.Message{
		Key:   []byte(event.RunID),
		Value: value,
		Time:  event.FinishedAt,
	})
	if err != nil {
		return fmt.Errorf("发布运行事件失败: %v", err)
	}

	p.logger.Printf("运行事件已发布 run_id=%s status=%s", event.RunID, event.Status)
	return nil
}

// IsConnected 检查连接状态
func (p *KafkaEventPublisher) IsConnected() bool {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.isConnected
}
