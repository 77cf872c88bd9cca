package main

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drawing-board/internal/config"
)

func TestRunReturnsListenError(t *testing.T) {
	taken, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer taken.Close()
	port := strconv.Itoa(taken.Addr().(*net.TCPAddr).Port)

	cfg := &config.Config{
		Port:           port,
		Env:            "test",
		PublicURL:      "http://localhost:" + port,
		SessionBackend: "file",
		SessionDir:     t.TempDir(),
		StoreTimeout:   time.Second,
		AllowedOrigins: []string{"*"},
		SendBuffer:     8,
		RoomMailbox:    8,
	}

	done := make(chan error, 1)
	go func() { done <- run(cfg, zerolog.Nop()) }()

	select {
	case err := <-done:
		assert.ErrorContains(t, err, "listen on :"+port)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not return")
	}
}

func TestRunReportsStoreFailure(t *testing.T) {
	cfg := &config.Config{Port: "0", SessionBackend: "tape"}
	assert.ErrorContains(t, run(cfg, zerolog.Nop()), "open tape session store")
}

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, zerolog.WarnLevel, newLogger(&config.Config{Env: "production", LogLevel: "warn"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger(&config.Config{Env: "development", LogLevel: "shouting"}).GetLevel())
	assert.Equal(t, zerolog.InfoLevel, newLogger(&config.Config{Env: "production"}).GetLevel())
}
