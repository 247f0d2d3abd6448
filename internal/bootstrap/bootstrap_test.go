package bootstrap

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/RentalsLedger_Go/internal/config"
	"github.com/osse101/RentalsLedger_Go/internal/payment/provider"
)

func TestCleanupLogs_KeepsNewest(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 12; i++ {
		name := fmt.Sprintf(LogFileNamePattern, fmt.Sprintf("2026-01-%02d_00-00-00", i+1))
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0o644))

	cleanupLogs(dir, 9)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Len(t, names, 10)
	assert.Contains(t, names, "notes.txt")
	assert.Contains(t, names, "session_2026-01-12_00-00-00.log")
	assert.NotContains(t, names, "session_2026-01-03_00-00-00.log")
}

func TestSetupLogger_CreatesSessionFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	f, err := SetupLogger(&config.Config{LogDir: dir, LogLevel: "debug", LogFormat: "json", Environment: "test"})
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	assert.FileExists(t, f.Name())
	assert.Equal(t, dir, filepath.Dir(f.Name()))
}

func TestNewPaymentInitiator(t *testing.T) {
	fake := NewPaymentInitiator(&config.Config{PaymentProvider: config.PaymentProviderFake})
	assert.IsType(t, &provider.Fake{}, fake)

	gateway := NewPaymentInitiator(&config.Config{
		PaymentProvider:    config.PaymentProviderMpesa,
		PaymentProviderURL: "http://gateway.local/stk",
	})
	assert.IsType(t, &provider.HTTPInitiator{}, gateway)
	assert.Equal(t, config.PaymentProviderMpesa, gateway.Name())
}

func TestGracefulShutdown_NilComponents(t *testing.T) {
	assert.NotPanics(t, func() {
		GracefulShutdown(context.Background(), ShutdownComponents{})
	})
}
