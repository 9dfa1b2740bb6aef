// Package notify coalesces raw filesystem change signals into broadcasts.
package notify

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/warungdata/katalog/internal/obs"
)

// Broadcaster receives the coalesced change signal.
type Broadcaster interface {
	Broadcast(ctx context.Context)
}

// Notifier sits between the filesystem watcher and the broadcast hub. All raw
// signals arriving within one debounce window collapse into a single
// broadcast fired when the window closes. A zero window disables coalescing
// and every signal broadcasts as it arrives.
type Notifier struct {
	hub    Broadcaster
	window time.Duration

	signals chan struct{}
	done    chan struct{}
	stopped atomic.Bool

	received  atomic.Uint64
	delivered atomic.Uint64
}

// New creates a Notifier with the given debounce window.
func New(hub Broadcaster, window time.Duration) *Notifier {
	return &Notifier{
		hub:     hub,
		window:  window,
		signals: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
}

// Start runs the coalescing loop.
func (n *Notifier) Start() {
	go n.loop()
}

// Stop ends the loop. A window still open at stop time never broadcasts.
func (n *Notifier) Stop() {
	if n.stopped.CompareAndSwap(false, true) {
		close(n.done)
	}
}

// Signal records one raw change. It never blocks: a signal landing while one
// is already pending folds into it.
func (n *Notifier) Signal() {
	if n.stopped.Load() {
		return
	}
	n.received.Add(1)
	select {
	case n.signals <- struct{}{}:
	default:
	}
}

// Metrics returns raw signals received and broadcasts delivered.
func (n *Notifier) Metrics() (received, delivered uint64) {
	return n.received.Load(), n.delivered.Load()
}

func (n *Notifier) loop() {
	for {
		select {
		case <-n.done:
			return
		case <-n.signals:
		}
		if n.window > 0 {
			timer := time.NewTimer(n.window)
		window:
			for {
				select {
				case <-n.done:
					timer.Stop()
					return
				case <-n.signals:
					// Folded into the open window.
				case <-timer.C:
					break window
				}
			}
		}
		n.delivered.Add(1)
		obs.Logger.Debug("change_broadcast", "received", n.received.Load(), "delivered", n.delivered.Load())
		n.hub.Broadcast(context.Background())
	}
}
