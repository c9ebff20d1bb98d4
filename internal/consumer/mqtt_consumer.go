package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"lifeband-data/internal/config"
	"lifeband-data/internal/pipeline"
	"lifeband-data/internal/service"
	mqttclient "lifeband-data/pkg/mqtt"
)

// Ingester 遥测入栈接口
type Ingester interface {
	Ingest(ctx context.Context, payload pipeline.RawPayload, device service.DeviceContext) (*service.IngestResult, error)
}

// MQTTConsumer MQTT遥测消费者
// 载荷契约与 HTTP 推送端点一致，设备ID取主题第二段（lifeband/{deviceId}/telemetry）
type MQTTConsumer struct {
	config     *config.Config
	mqttClient *mqttclient.Client
	ingester   Ingester
	logger     *zap.Logger
}

// NewMQTTConsumer 创建MQTT消费者
func NewMQTTConsumer(
	cfg *config.Config,
	mqttClient *mqttclient.Client,
	ingester Ingester,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:     cfg,
		mqttClient: mqttClient,
		ingester:   ingester,
		logger:     logger,
	}
}

// Start 启动消费者
func (c *MQTTConsumer) Start(ctx context.Context) error {
	topic := c.config.MQTT.Topic
	if topic == "" {
		return fmt.Errorf("telemetry MQTT topic not configured")
	}

	if err := c.mqttClient.Subscribe(topic, c.config.MQTT.QoS, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to telemetry topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", topic),
	)

	// 等待上下文取消
	<-ctx.Done()
	return nil
}

// Stop 停止消费者
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	topic := c.config.MQTT.Topic
	if topic != "" {
		if err := c.mqttClient.Unsubscribe(topic); err != nil {
			c.logger.Error("Failed to unsubscribe", zap.Error(err))
		}
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 处理MQTT消息
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	deviceID, err := deviceIDFromTopic(topic)
	if err != nil {
		return err
	}

	var raw pipeline.RawPayload
	if err := json.Unmarshal(payload, &raw); err != nil {
		c.logger.Error("Failed to unmarshal telemetry MQTT message",
			zap.String("topic", topic),
			zap.Error(err),
		)
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	device := service.DeviceContext{DeviceID: deviceID}
	if userID, ok := raw["userId"].(string); ok {
		device.UserID = userID
	}

	result, err := c.ingester.Ingest(context.Background(), raw, device)
	if err != nil {
		return fmt.Errorf("failed to ingest telemetry from device %s: %w", deviceID, err)
	}

	if len(result.ActivitiesTriggered) > 0 {
		c.logger.Info("MQTT telemetry triggered emergency signals",
			zap.String("device_id", deviceID),
			zap.Strings("signals", result.ActivitiesTriggered),
		)
	}

	return nil
}

// deviceIDFromTopic 从主题解析设备ID，主题格式 lifeband/{deviceId}/telemetry
func deviceIDFromTopic(topic string) (string, error) {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 || parts[1] == "" {
		return "", fmt.Errorf("unexpected telemetry topic: %s", topic)
	}
	return parts[1], nil
}
