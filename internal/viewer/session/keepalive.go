package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/mapfront/mapfront-viewer/internal/domain"
)

// SessionTimeoutAPI exposes the server session timeout probe.
type SessionTimeoutAPI interface {
	GetServerSessionTimeout(ctx context.Context, session string) (int, error)
}

// KeepAlive pings the server often enough that the session outlives idle
// periods. The server timeout is probed once at start; the ping interval is
// a fifth of it, so a few lost pings do not cost the session.
type KeepAlive struct {
	log       *zap.SugaredLogger
	api       SessionTimeoutAPI
	session   string
	onExpired func()
	interval  time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

// NewKeepAlive builds a keep-alive for the session. onExpired, which may be
// nil, is called when a ping reports the session expired.
func NewKeepAlive(log *zap.SugaredLogger, api SessionTimeoutAPI, session string, onExpired func()) *KeepAlive {
	return &KeepAlive{
		log:       log,
		api:       api,
		session:   session,
		onExpired: onExpired,
	}
}

// Start probes the session timeout and schedules the ping loop.
func (k *KeepAlive) Start(ctx context.Context) error {
	timeout, err := k.api.GetServerSessionTimeout(ctx, k.session)
	if err != nil {
		return err
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stopped {
		return nil
	}
	k.interval = time.Duration(timeout) * time.Second / 5
	k.timer = time.AfterFunc(k.interval, k.tick)
	return nil
}

// Interval returns the computed ping interval, zero before Start.
func (k *KeepAlive) Interval() time.Duration {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.interval
}

func (k *KeepAlive) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := k.api.GetServerSessionTimeout(ctx, k.session); err != nil {
		if domain.IsSessionExpiredError(err) {
			// The session is gone, nothing left to keep alive.
			k.Stop()
			if k.onExpired != nil {
				k.onExpired()
			}
			return
		}
		k.log.Warnw("session keep-alive ping failed", "session", k.session, "error", err)
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.stopped {
		return
	}
	k.timer = time.AfterFunc(k.interval, k.tick)
}

// LastTry probes the session once more, for callers that suspect the
// session died, for example after a map image load failure.
func (k *KeepAlive) LastTry(ctx context.Context) error {
	_, err := k.api.GetServerSessionTimeout(ctx, k.session)
	return err
}

// Stop cancels the ping loop. Safe to call more than once.
func (k *KeepAlive) Stop() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopped = true
	if k.timer != nil {
		k.timer.Stop()
		k.timer = nil
	}
}
