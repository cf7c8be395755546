package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/bitwire/pkg/wire"
)

func TestServerConfig_Addr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9333", ServerConfig{Bind: "127.0.0.1", Port: 9333}.Addr())
	assert.Equal(t, "[::1]:80", ServerConfig{Bind: "::1", Port: 80}.Addr())
	assert.Equal(t, ":8080", ServerConfig{Port: 8080}.Addr())
}

func TestServer_ServeListener(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewServer(wire.NewRegistry(wire.RegistryOptions{}), nil, nil, ServerConfig{}, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- server.ServeListener(ctx, listener)
	}()

	url := fmt.Sprintf("http://%s/api/v1/health", listener.Addr())
	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get(url)
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body APIResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestDefaultServerStarter_ListenError(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	port := listener.Addr().(*net.TCPAddr).Port
	starter := NewServerFactory().CreateServerStarter()

	err = starter.StartServer(context.Background(), Dependencies{
		Registry: wire.NewRegistry(wire.RegistryOptions{}),
		Logger:   zerolog.Nop(),
	}, ServerConfig{Bind: "127.0.0.1", Port: port})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to listen")
}
