package mqtt

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// MessageHandler 消息处理函数类型
type MessageHandler func(topic string, payload []byte) error

// Options MQTT连接参数
type Options struct {
	Broker   string
	ClientID string
	Username string
	Password string
}

// Client MQTT客户端封装（自动重连，处理函数错误只记录不中断）
type Client struct {
	client mqtt.Client
	logger *zap.Logger
}

// NewClient 创建并连接MQTT客户端
func NewClient(opts Options, logger *zap.Logger) (*Client, error) {
	mqttOpts := mqtt.NewClientOptions()
	mqttOpts.AddBroker(opts.Broker)
	mqttOpts.SetClientID(opts.ClientID)

	if opts.Username != "" {
		mqttOpts.SetUsername(opts.Username)
	}
	if opts.Password != "" {
		mqttOpts.SetPassword(opts.Password)
	}

	mqttOpts.SetAutoReconnect(true)
	mqttOpts.SetCleanSession(true)
	mqttOpts.SetConnectRetryInterval(5 * time.Second)
	mqttOpts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("MQTT connection lost, reconnecting", zap.Error(err))
	})
	mqttOpts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("MQTT connected", zap.String("broker", opts.Broker))
	})

	client := mqtt.NewClient(mqttOpts)

	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Client{
		client: client,
		logger: logger,
	}, nil
}

// Subscribe 订阅主题
func (c *Client) Subscribe(topic string, qos byte, handler MessageHandler) error {
	if token := c.client.Subscribe(topic, qos, func(client mqtt.Client, msg mqtt.Message) {
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			// 记录错误，但不中断订阅
			c.logger.Error("Failed to handle MQTT message",
				zap.String("topic", msg.Topic()),
				zap.Error(err),
			)
		}
	}); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}

	return nil
}

// Unsubscribe 取消订阅
func (c *Client) Unsubscribe(topics ...string) error {
	token := c.client.Unsubscribe(topics...)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to unsubscribe: %w", token.Error())
	}

	return nil
}

// Disconnect 断开连接
func (c *Client) Disconnect() {
	c.client.Disconnect(250)
}

// IsConnected 检查连接状态
func (c *Client) IsConnected() bool {
	return c.client.IsConnected()
}
