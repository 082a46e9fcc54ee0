package server

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.SecretKey = "app-secret"
	c.BcryptCost = bcrypt.MinCost
	c.EndpointAddrGRPC = "127.0.0.1:0"
	c.MetricsAddr = ""
	c.LogLevel = "error"
	return c
}

func TestNewApp_RejectsMissingSecret(t *testing.T) {
	c := testConfig()
	c.SecretKey = ""
	_, err := NewApp(context.Background(), c)
	assert.Error(t, err)
}

func TestNewApp_InMemory(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	list, err := app.repos.Roles().List(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 2, "default roles are seeded")
	assert.Nil(t, app.metricsHTTP)
}

func TestRun_StopsOnCancel(t *testing.T) {
	app, err := NewApp(context.Background(), testConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("app did not stop")
	}
}
