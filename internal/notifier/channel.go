package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// 消息通道连接状态机：disconnected → credential-pending → connected
// 非登出原因断开后自动重连
const (
	StateDisconnected      = "disconnected"
	StateCredentialPending = "credential-pending"
	StateConnected         = "connected"
)

// ErrLoggedOut 网关会话已登出，不触发自动重连
var ErrLoggedOut = errors.New("gateway session logged out")

// ErrChannelNotConnected 通道未就绪
var ErrChannelNotConnected = errors.New("message channel not connected")

// SessionClient 会话型消息网关接口
type SessionClient interface {
	// OpenSession 建立会话，返回 "connected" 或 "pending"
	OpenSession(ctx context.Context) (string, error)
	// Send 发送消息，返回网关消息ID
	Send(ctx context.Context, to, message string) (string, error)
}

// ChannelConnector 消息通道连接器
// 显式构造、按依赖注入传给 Notification Dispatcher，持有自己的连接生命周期
type ChannelConnector struct {
	client        SessionClient
	logger        *zap.Logger
	reconnectWait time.Duration

	mu    sync.RWMutex
	state string
}

// NewChannelConnector 创建消息通道连接器
func NewChannelConnector(client SessionClient, logger *zap.Logger) *ChannelConnector {
	return &ChannelConnector{
		client:        client,
		logger:        logger,
		reconnectWait: 5 * time.Second,
		state:         StateDisconnected,
	}
}

// State 当前连接状态
func (c *ChannelConnector) State() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

func (c *ChannelConnector) setState(state string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
}

// Connect 建立通道连接
// 网关返回 pending 时进入 credential-pending 状态并轮询，直到会话确认或上下文取消
func (c *ChannelConnector) Connect(ctx context.Context) error {
	for {
		session, err := c.client.OpenSession(ctx)
		if err != nil {
			c.setState(StateDisconnected)
			return fmt.Errorf("failed to open channel session: %w", err)
		}

		if session == "pending" {
			c.setState(StateCredentialPending)
			c.logger.Info("Message channel waiting for credential confirmation")

			select {
			case <-ctx.Done():
				c.setState(StateDisconnected)
				return ctx.Err()
			case <-time.After(c.reconnectWait):
				continue
			}
		}

		c.setState(StateConnected)
		c.logger.Info("Message channel connected")
		return nil
	}
}

// Deliver 通过已连接的通道投递一条消息
// 传输失败时标记断开并后台重连（登出除外）；单条失败由调用方按联系人独立记录
func (c *ChannelConnector) Deliver(ctx context.Context, to, message string) (string, error) {
	if c.State() != StateConnected {
		return "", ErrChannelNotConnected
	}

	messageID, err := c.client.Send(ctx, to, message)
	if err != nil {
		c.handleClosed(err)
		return "", err
	}

	return messageID, nil
}

// handleClosed 连接断开处理：非登出原因自动重连
func (c *ChannelConnector) handleClosed(cause error) {
	c.setState(StateDisconnected)

	if errors.Is(cause, ErrLoggedOut) {
		c.logger.Warn("Message channel logged out, not reconnecting")
		return
	}

	c.logger.Warn("Message channel closed, scheduling reconnect", zap.Error(cause))

	go func() {
		time.Sleep(c.reconnectWait)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := c.Connect(ctx); err != nil {
			c.logger.Error("Failed to reconnect message channel", zap.Error(err))
		}
	}()
}
