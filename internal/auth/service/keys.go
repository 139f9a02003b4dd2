package service

import (
	"bytes"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aussiebroadwan/jwtauth/pkg/jwtx"
)

// Keys is the supplied key material. Which field is used depends on the
// algorithm family: Secret for HS*, PrivateKey for signing with RS*, ES* and
// PS*, PublicKey (or PrivateKey when absent) for verifying them.
type Keys struct {
	Secret     []byte
	PrivateKey []byte
	PublicKey  []byte
}

// Empty reports whether no material at all is configured.
func (k *Keys) Empty() bool {
	return k == nil || (len(k.Secret) == 0 && len(k.PrivateKey) == 0 && len(k.PublicKey) == 0)
}

// ForSigning returns the material that signs with alg.
func (k *Keys) ForSigning(alg jwtx.Algorithm) (jwtx.SigningMaterial, bool) {
	if k == nil {
		return jwtx.SigningMaterial{}, false
	}
	key := k.PrivateKey
	if alg.Symmetric() {
		key = k.Secret
	}
	return jwtx.SigningMaterial{Algorithm: alg, Key: key}, len(key) > 0
}

// ForVerification returns the material that verifies alg.
func (k *Keys) ForVerification(alg jwtx.Algorithm) (jwtx.SigningMaterial, bool) {
	if k == nil {
		return jwtx.SigningMaterial{}, false
	}
	if alg.Symmetric() {
		return jwtx.SigningMaterial{Algorithm: alg, Key: k.Secret}, len(k.Secret) > 0
	}
	key := k.PublicKey
	if len(key) == 0 {
		key = k.PrivateKey
	}
	return jwtx.SigningMaterial{Algorithm: alg, Key: key}, len(key) > 0
}

func (k *Keys) equal(o *Keys) bool {
	if k == nil || o == nil {
		return k == o
	}
	return bytes.Equal(k.Secret, o.Secret) &&
		bytes.Equal(k.PrivateKey, o.PrivateKey) &&
		bytes.Equal(k.PublicKey, o.PublicKey)
}

// Current lets a fixed *Keys act as a KeySource.
func (k *Keys) Current() *Keys { return k }

// KeySource hands out the key material in effect right now.
type KeySource interface {
	Current() *Keys
}

// KeyReloader periodically re-reads key material so operators can replace
// key files without a restart. It never generates keys. Readers go through
// an atomic pointer and never block on a reload.
type KeyReloader struct {
	Load     func() (*Keys, error)
	Logger   *slog.Logger
	Interval time.Duration

	current atomic.Pointer[Keys]

	startOnce sync.Once
	stopOnce  sync.Once
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// NewKeyReloader loads the material once and returns a reloader serving it.
// If interval is 0 or negative the material is never reloaded.
func NewKeyReloader(load func() (*Keys, error), logger *slog.Logger, interval time.Duration) (*KeyReloader, error) {
	keys, err := load()
	if err != nil {
		return nil, err
	}

	r := &KeyReloader{
		Load:     load,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	r.current.Store(keys)
	return r, nil
}

func (r *KeyReloader) Current() *Keys { return r.current.Load() }

// Start begins the background worker. It is non-blocking; call Stop to end
// it. Only the first call has any effect.
func (r *KeyReloader) Start() {
	r.startOnce.Do(func() {
		if r.Interval <= 0 {
			close(r.doneCh)
			r.Logger.Info("key reload disabled")
			return
		}
		go r.run()
		r.Logger.Info("key reloader started", "interval", r.Interval)
	})
}

// Stop shuts down the worker and waits for an in-progress reload to finish.
// A reloader that was never started stops immediately and cannot be started
// afterwards.
func (r *KeyReloader) Stop() {
	r.startOnce.Do(func() { close(r.doneCh) })

	first := false
	r.stopOnce.Do(func() {
		close(r.stopCh)
		first = true
	})
	if !first {
		return
	}
	<-r.doneCh
	r.Logger.Info("key reloader stopped")
}

func (r *KeyReloader) run() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Reload()
		case <-r.stopCh:
			return
		}
	}
}

// Reload re-reads the material now. A failed read keeps the previous keys.
func (r *KeyReloader) Reload() {
	keys, err := r.Load()
	if err != nil {
		r.Logger.Error("failed to reload key material, keeping previous keys", "error", err)
		return
	}

	if prev := r.current.Swap(keys); !prev.equal(keys) {
		r.Logger.Info("key material reloaded")
	}
}
