// Package notify keeps the unread notification count fresh.
package notify

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"famspend/internal/core"
	"famspend/internal/log"
)

// Source reports how many notifications are unread.
type Source interface {
	UnreadCount(ctx context.Context) (int, error)
}

// Poller asks Source on a fixed interval and keeps the last good answer.
// A failed poll leaves the previous count in place.
type Poller struct {
	source   Source
	interval time.Duration
	logger   *log.Logger

	count    atomic.Int64
	onChange func(int)
}

type Option func(*Poller)

// OnChange is called from the polling goroutine whenever the count moves.
func OnChange(fn func(int)) Option {
	return func(p *Poller) { p.onChange = fn }
}

func NewPoller(source Source, interval time.Duration, logger *log.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = log.Discard()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	p := &Poller{
		source:   source,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentNotify),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) Count() int {
	return int(p.count.Load())
}

// Poll fetches the count once.
func (p *Poller) Poll(ctx context.Context) error {
	n, err := p.source.UnreadCount(ctx)
	if err != nil {
		return err
	}
	if old := p.count.Swap(int64(n)); old != int64(n) && p.onChange != nil {
		p.onChange(n)
	}
	return nil
}

// Run polls immediately and then every interval until ctx ends. It stops
// early with core.ErrAuthExpired since no later poll can succeed.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Poll(ctx); err != nil {
			if errors.Is(err, core.ErrAuthExpired) {
				return err
			}
			if ctx.Err() == nil {
				p.logger.WarnContext(ctx, "Unread count poll failed",
					log.FieldOperation, log.OpPoll,
					log.FieldError, err)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
