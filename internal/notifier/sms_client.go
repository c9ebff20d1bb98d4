package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// GatewayToken 短信网关认证凭据
type GatewayToken struct {
	AppID     string `json:"appId"`
	AppSecret string `json:"appSecret"`
}

// gatewayRequest 网关 API 请求
type gatewayRequest struct {
	Token *GatewayToken  `json:"token"`
	Data  map[string]any `json:"data"`
}

// gatewayResponse 网关 API 响应
type gatewayResponse struct {
	Status    int    `json:"status"` // 0 = 成功
	Msg       string `json:"msg"`
	MessageID string `json:"messageId,omitempty"`
	Session   string `json:"session,omitempty"` // "connected" / "pending"
}

// SMSClient 短信网关客户端
type SMSClient struct {
	httpClient *resty.Client
	token      *GatewayToken
	logger     *zap.Logger
}

// NewSMSClient 创建短信网关客户端
func NewSMSClient(baseURL, appID, appSecret string, logger *zap.Logger) *SMSClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &SMSClient{
		httpClient: client,
		token: &GatewayToken{
			AppID:     appID,
			AppSecret: appSecret,
		},
		logger: logger,
	}
}

// OpenSession 建立网关会话
// 返回 "connected" 或 "pending"（凭据待确认，如扫码类通道）
func (c *SMSClient) OpenSession(ctx context.Context) (string, error) {
	request := gatewayRequest{
		Token: c.token,
		Data:  map[string]any{},
	}

	var response gatewayResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/session/open")

	if err != nil {
		return "", fmt.Errorf("failed to call SMS gateway: %w", err)
	}
	if response.Status != 0 {
		c.logger.Error("SMS gateway returned error on session open",
			zap.Int("status", response.Status),
			zap.String("msg", response.Msg),
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", fmt.Errorf("SMS gateway error: %s", response.Msg)
	}

	if response.Session == "" {
		return "connected", nil
	}
	return response.Session, nil
}

// Send 发送一条短信，返回网关消息ID
func (c *SMSClient) Send(ctx context.Context, to, message string) (string, error) {
	request := gatewayRequest{
		Token: c.token,
		Data: map[string]any{
			"to":      to,
			"message": message,
		},
	}

	var response gatewayResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/messages/send")

	if err != nil {
		return "", fmt.Errorf("failed to call SMS gateway: %w", err)
	}
	if response.Status != 0 {
		c.logger.Error("SMS gateway returned error on send",
			zap.Int("status", response.Status),
			zap.String("msg", response.Msg),
			zap.Int("status_code", resp.StatusCode()),
		)
		return "", fmt.Errorf("SMS gateway error: %s", response.Msg)
	}

	return response.MessageID, nil
}
