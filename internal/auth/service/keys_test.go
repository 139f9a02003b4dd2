package service_test

import (
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/jwtauth/internal/auth/service"
	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestKeysSelection(t *testing.T) {
	t.Parallel()

	k := &service.Keys{Secret: []byte("s"), PrivateKey: []byte("priv")}

	m, ok := k.ForSigning(jwtx.HS256)
	require.True(t, ok)
	require.Equal(t, []byte("s"), m.Key)

	m, ok = k.ForSigning(jwtx.ES256)
	require.True(t, ok)
	require.Equal(t, []byte("priv"), m.Key)

	// No public key configured, so verification falls back to the private key.
	m, ok = k.ForVerification(jwtx.RS256)
	require.True(t, ok)
	require.Equal(t, []byte("priv"), m.Key)

	_, ok = (&service.Keys{Secret: []byte("s")}).ForSigning(jwtx.PS256)
	require.False(t, ok)

	var nilKeys *service.Keys
	require.True(t, nilKeys.Empty())
	require.True(t, (&service.Keys{}).Empty())
	require.False(t, k.Empty())
}

func TestKeyReloaderReloadKeepsPreviousOnError(t *testing.T) {
	t.Parallel()

	var (
		calls atomic.Int32
		fail  atomic.Bool
	)
	load := func() (*service.Keys, error) {
		n := calls.Add(1)
		if fail.Load() {
			return nil, errors.New("file vanished")
		}
		return &service.Keys{Secret: []byte{byte('a' + n)}}, nil
	}

	r, err := service.NewKeyReloader(load, discardLogger(), 0)
	require.NoError(t, err)
	require.Equal(t, []byte("b"), r.Current().Secret)

	r.Reload()
	require.Equal(t, []byte("c"), r.Current().Secret)

	fail.Store(true)
	r.Reload()
	require.Equal(t, []byte("c"), r.Current().Secret)
}

func TestKeyReloaderInitialLoadError(t *testing.T) {
	t.Parallel()

	_, err := service.NewKeyReloader(func() (*service.Keys, error) {
		return nil, errors.New("no such file")
	}, discardLogger(), time.Minute)
	require.Error(t, err)
}

func TestKeyReloaderBackgroundWorker(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r, err := service.NewKeyReloader(func() (*service.Keys, error) {
		calls.Add(1)
		return &service.Keys{Secret: []byte("s")}, nil
	}, discardLogger(), 10*time.Millisecond)
	require.NoError(t, err)

	r.Start()
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	r.Stop()
	r.Stop()
}

func TestKeyReloaderDisabled(t *testing.T) {
	t.Parallel()

	r, err := service.NewKeyReloader(func() (*service.Keys, error) {
		return &service.Keys{Secret: []byte("s")}, nil
	}, discardLogger(), 0)
	require.NoError(t, err)

	r.Start()
	r.Stop()
}

func TestKeyReloaderStopWithoutStart(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	r, err := service.NewKeyReloader(func() (*service.Keys, error) {
		calls.Add(1)
		return &service.Keys{Secret: []byte("s")}, nil
	}, discardLogger(), 10*time.Millisecond)
	require.NoError(t, err)

	stopped := make(chan struct{})
	go func() {
		r.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked on a reloader that was never started")
	}

	// A stopped reloader stays stopped.
	r.Start()
	time.Sleep(50 * time.Millisecond)
	require.EqualValues(t, 1, calls.Load())
}
