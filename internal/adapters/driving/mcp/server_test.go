package mcp

import (
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{}
		server, err := NewServer(ports)
		require.Error(t, err)
		assert.Nil(t, server)
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("valid ports creates server", func(t *testing.T) {
		ports := &Ports{
			Chat: &mockChatService{},
		}
		server, err := NewServer(ports)
		require.NoError(t, err)
		assert.NotNil(t, server)
	})
}

func TestPorts_Validate(t *testing.T) {
	t.Run("nil chat service returns error", func(t *testing.T) {
		ports := &Ports{Retrieval: &mockRetrievalService{}}
		err := ports.Validate()
		assert.ErrorIs(t, err, ErrMissingChatService)
	})

	t.Run("chat only is valid", func(t *testing.T) {
		ports := &Ports{
			Chat: &mockChatService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})

	t.Run("all ports is valid", func(t *testing.T) {
		ports := &Ports{
			Chat:      &mockChatService{},
			Retrieval: &mockRetrievalService{},
			Document:  &mockDocumentService{},
		}
		err := ports.Validate()
		assert.NoError(t, err)
	})
}

func TestFindAvailablePort(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	taken := busy.Addr().(*net.TCPAddr).Port

	port, err := FindAvailablePort(taken, taken+portSearchSpan)
	if err != nil {
		t.Skipf("no free port near %d: %v", taken, err)
	}
	assert.NotEqual(t, taken, port)
	assert.Greater(t, port, taken)
}

func TestFindAvailablePort_NoneFree(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer busy.Close()
	taken := busy.Addr().(*net.TCPAddr).Port

	_, err = FindAvailablePort(taken, taken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("%d-%d", taken, taken))
}
