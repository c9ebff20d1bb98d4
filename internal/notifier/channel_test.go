package notifier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeSessionClient 仅用于单元测试
type fakeSessionClient struct {
	sessions []string // OpenSession 依次返回的状态
	sendErr  error
	sent     []string
}

func (f *fakeSessionClient) OpenSession(ctx context.Context) (string, error) {
	if len(f.sessions) == 0 {
		return "connected", nil
	}
	session := f.sessions[0]
	f.sessions = f.sessions[1:]
	return session, nil
}

func (f *fakeSessionClient) Send(ctx context.Context, to, message string) (string, error) {
	if f.sendErr != nil {
		return "", f.sendErr
	}
	f.sent = append(f.sent, to)
	return "msg-1", nil
}

func TestChannelConnector_ConnectImmediately(t *testing.T) {
	client := &fakeSessionClient{}
	connector := NewChannelConnector(client, zap.NewNop())

	assert.Equal(t, StateDisconnected, connector.State())

	err := connector.Connect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateConnected, connector.State())
}

func TestChannelConnector_CredentialPendingThenConnected(t *testing.T) {
	client := &fakeSessionClient{sessions: []string{"pending", "connected"}}
	connector := NewChannelConnector(client, zap.NewNop())
	connector.reconnectWait = 0 // 测试不等待轮询间隔

	err := connector.Connect(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StateConnected, connector.State())
}

func TestChannelConnector_DeliverRequiresConnection(t *testing.T) {
	client := &fakeSessionClient{}
	connector := NewChannelConnector(client, zap.NewNop())

	_, err := connector.Deliver(context.Background(), "+15550001", "hello")

	assert.ErrorIs(t, err, ErrChannelNotConnected)
}

func TestChannelConnector_Deliver(t *testing.T) {
	client := &fakeSessionClient{}
	connector := NewChannelConnector(client, zap.NewNop())
	require.NoError(t, connector.Connect(context.Background()))

	messageID, err := connector.Deliver(context.Background(), "+15550001", "hello")

	require.NoError(t, err)
	assert.Equal(t, "msg-1", messageID)
	assert.Equal(t, []string{"+15550001"}, client.sent)
}

func TestChannelConnector_LoggedOutDoesNotReconnect(t *testing.T) {
	client := &fakeSessionClient{sendErr: ErrLoggedOut}
	connector := NewChannelConnector(client, zap.NewNop())
	require.NoError(t, connector.Connect(context.Background()))

	_, err := connector.Deliver(context.Background(), "+15550001", "hello")

	assert.Error(t, err)
	assert.Equal(t, StateDisconnected, connector.State())
}

func TestChannelConnector_TransportErrorMarksDisconnected(t *testing.T) {
	client := &fakeSessionClient{sendErr: errors.New("connection reset")}
	connector := NewChannelConnector(client, zap.NewNop())
	require.NoError(t, connector.Connect(context.Background()))

	_, err := connector.Deliver(context.Background(), "+15550001", "hello")

	assert.Error(t, err)
	assert.Equal(t, StateDisconnected, connector.State())
}
