package http

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/ClauseLens/internal/config"
	"github.com/turtacn/ClauseLens/internal/interfaces/http/handlers"
)

func TestNewServer_Defaults(t *testing.T) {
	s := NewServer(config.ServerConfig{}, http.NotFoundHandler(), nil)

	assert.Equal(t, ":0", s.Addr())
	assert.Equal(t, 15*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 30*time.Second, s.srv.WriteTimeout)
	assert.Equal(t, 30*time.Second, s.shutdownTimeout)
}

func TestNewServer_ConfigApplied(t *testing.T) {
	cfg := config.ServerConfig{
		Port:            8080,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 2 * time.Second,
	}
	s := NewServer(cfg, http.NotFoundHandler(), nil)

	assert.Equal(t, ":8080", s.Addr())
	assert.Equal(t, 5*time.Second, s.srv.ReadTimeout)
	assert.Equal(t, 10*time.Second, s.srv.WriteTimeout)
	assert.Equal(t, 2*time.Second, s.shutdownTimeout)
}

func TestServer_ServesAndStops(t *testing.T) {
	router := NewRouter(RouterConfig{Health: handlers.NewHealthHandler("test")})
	s := NewServer(config.ServerConfig{ShutdownTimeout: 5 * time.Second}, router, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- s.srv.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, s.Stop(context.Background()))

	select {
	case err := <-done:
		assert.ErrorIs(t, err, http.ErrServerClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StopWithoutStart(t *testing.T) {
	s := NewServer(config.ServerConfig{}, http.NotFoundHandler(), nil)
	assert.NoError(t, s.Stop(context.Background()))
}
