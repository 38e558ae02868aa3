/*
 * @module client/connectors/mqtt_connector
 * @description MQTT实时排放订阅器，接收CO2排放实时推送并交给原始层写入回调
 * @architecture 适配器模式 - 封装第三方MQTT客户端，提供统一的订阅接口
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 连接建立 -> 主题订阅 -> 消息解析 -> 回调写入 -> 连接断开
 * @rules 支持自动重连，解析失败的消息记录日志后丢弃
 * @dependencies github.com/eclipse/paho.mqtt.golang, encoding/json
 * @refs service/ingestion/extract_service
 */
package connectors

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// RealtimeEmission 实时排放推送消息
type RealtimeEmission struct {
	Minutes5UTC string `json:"Minutes5UTC"`
	Minutes5DK  string `json:"Minutes5DK"`
	PriceArea   string `json:"PriceArea"`
	CO2Emission string `json:"CO2Emission"`
}

// EmissionHandler 实时排放消息处理函数
type EmissionHandler func(*RealtimeEmission) error

// MqttSubscriberConfig MQTT订阅器配置
type MqttSubscriberConfig struct {
	Broker    string
	ClientID  string
	Username  string
	Password  string
	Topic     string
	QoS       byte
	KeepAlive time.Duration
}

// MqttEmissionSubscriber 实时排放订阅器
type MqttEmissionSubscriber struct {
	config      *MqttSubscriberConfig
	client      mqtt.Client
	handler     EmissionHandler
	logger      *log.Logger
	mutex       sync.RWMutex
	isConnected bool
	received    int64
	dropped     int64
}

// NewMqttEmissionSubscriber 创建实时排放订阅器
func NewMqttEmissionSubscriber(config *MqttSubscriberConfig, handler EmissionHandler, logger *log.Logger) *MqttEmissionSubscriber {
	sub := &MqttEmissionSubscriber{
		config:  config,
		handler: handler,
		logger:  logger,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(config.Broker)
	opts.SetClientID(config.ClientID)
	if config.Username != "" {
		opts.SetUsername(config.Username)
		opts.SetPassword(config.Password)
	}
	if config.KeepAlive > 0 {
		opts.SetKeepAlive(config.KeepAlive)
	}
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(sub.onConnected)
	opts.SetConnectionLostHandler(sub.onConnectionLost)

	sub.client = mqtt.NewClient(opts)
	return sub
}

// Connect 建立MQTT连接并订阅排放主题
func (s *MqttEmissionSubscriber) Connect() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if s.isConnected {
		return nil
	}

	s.logger.Printf("正在连接MQTT broker: %s", s.config.Broker)
	if token := s.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT连接失败: %v", token.Error())
	}

	s.isConnected = true
	return nil
}

// Disconnect 断开MQTT连接
func (s *MqttEmissionSubscriber) Disconnect() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.isConnected {
		return nil
	}

	if token := s.client.Unsubscribe(s.config.Topic); token.Wait() && token.Error() != nil {
		s.logger.Printf("退订主题失败 topic=%s: %v", s.config.Topic, token.Error())
	}
	s.client.Disconnect(250)
	s.isConnected = false
	s.logger.Println("MQTT订阅器已断开连接")
	return nil
}

// onConnected 连接建立后订阅排放主题，重连后自动重新订阅
func (s *MqttEmissionSubscriber) onConnected(client mqtt.Client) {
	token := client.Subscribe(s.config.Topic, s.config.QoS, s.onMessage)
	if token.Wait() && token.Error() != nil {
		s.logger.Printf("订阅主题失败 topic=%s: %v", s.config.Topic, token.Error())
		return
	}
	s.logger.Printf("MQTT已订阅排放主题: %s", s.config.Topic)
}

// onConnectionLost 连接丢失处理
func (s *MqttEmissionSubscriber) onConnectionLost(client mqtt.Client, err error) {
	s.logger.Printf("MQTT连接丢失: %v", err)
}

// onMessage 解析推送消息并交给处理回调
func (s *MqttEmissionSubscriber) onMessage(client mqtt.Client, msg mqtt.Message) {
	var emission RealtimeEmission
	if err := json.Unmarshal(msg.Payload(), &emission); err != nil {
		s.mutex.Lock()
		s.dropped++
		s.mutex.Unlock()
		s.logger.Printf("解析排放消息失败 topic=%s: %v", msg.Topic(), err)
		return
	}

	s.mutex.Lock()
	s.received++
	s.mutex.Unlock()

	if s.handler != nil {
		if err := s.handler(&emission); err != nil {
			s.logger.Printf("处理排放消息失败 area=%s ts=%s: %v",
				emission.PriceArea, emission.Minutes5UTC, err)
		}
	}
}

// IsConnected 检查连接状态
func (s *MqttEmissionSubscriber) IsConnected() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.isConnected && s.client.IsConnected()
}

// Stats 返回订阅器统计信息
func (s *MqttEmissionSubscriber) Stats() map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return map[string]interface{}{
		"connected": s.isConnected,
		"topic":     s.config.Topic,
		"received":  s.received,
		"dropped":   s.dropped,
	}
}
