package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storeorders/internal/auth"
	"github.com/vladislavdragonenkov/storeorders/internal/health"
	"github.com/vladislavdragonenkov/storeorders/internal/version"
)

func findFreePort(t *testing.T) int {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	return listener.Addr().(*net.TCPAddr).Port
}

func waitForHTTP(t *testing.T, url string) *http.Response {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		if time.Now().After(deadline) {
			t.Fatalf("server at %s did not start: %v", url, err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func TestStartMetricsServer_Endpoints(t *testing.T) {
	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	healthHandler := health.NewHandler(version.GetVersion())
	srv := startMetricsServer(ctx, addr, log.WithField("test", "http"), healthHandler)
	require.NotNil(t, srv)

	resp := waitForHTTP(t, fmt.Sprintf("http://%s/metrics", addr))
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, body)

	for path, want := range map[string]string{"/livez": "ok", "/readyz": "ready"} {
		resp, err := http.Get(fmt.Sprintf("http://%s%s", addr, path))
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		require.Equal(t, want, string(body), path)
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", addr))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestStartMetricsServer_Shutdown(t *testing.T) {
	port := findFreePort(t)
	addr := fmt.Sprintf("127.0.0.1:%d", port)

	ctx, cancel := context.WithCancel(context.Background())
	startMetricsServer(ctx, addr, log.WithField("test", "http-shutdown"), health.NewHandler(version.GetVersion()))

	url := fmt.Sprintf("http://%s/livez", addr)
	waitForHTTP(t, url).Body.Close()

	cancel()

	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
		}
		return err != nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestShutdownHTTP_Nil(t *testing.T) {
	shutdownHTTP(nil, time.Second, log.WithField("test", "nil"))
}

func testRunConfig(t *testing.T) Config {
	cfg := DefaultConfig()
	cfg.HTTP.Addr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.Metrics.Addr = fmt.Sprintf("127.0.0.1:%d", findFreePort(t))
	cfg.Storage.Seed = true
	cfg.HTTP.ShutdownTimeout = time.Second
	return cfg
}

func TestRun_ServesAPIAndStopsOnCancel(t *testing.T) {
	cfg := testRunConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Run(ctx, cfg) }()

	url := fmt.Sprintf("http://%s/orders/mine", cfg.HTTP.Addr)
	waitForHTTP(t, url).Body.Close()

	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	req.Header.Set(auth.HeaderUserID, "user-demo")
	req.Header.Set(auth.HeaderRole, string(auth.RoleCustomer))
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.True(t, errors.Is(err, context.Canceled), "unexpected error: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not stop after cancellation")
	}
}

func TestRun_FailsOnBadStorage(t *testing.T) {
	cfg := testRunConfig(t)
	cfg.Storage.Seed = false
	cfg.Storage.Driver = StorageDriverPostgres

	err := Run(context.Background(), cfg)
	require.Error(t, err)
}
