// Package broadcast fans the change signal out to connected clients.
package broadcast

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/warungdata/katalog/internal/obs"
)

// changedSignal is the only message this channel ever carries. Clients treat
// it as "catalog or image set may have changed, re-fetch".
const changedSignal = "changed"

// SendFunc pushes one signal to a single client. Implementations must respect
// ctx cancellation; the hub bounds every send with a timeout.
type SendFunc func(ctx context.Context, payload string) error

// Subscriber is one connected client in the broadcast set.
type Subscriber struct {
	ID   string
	Send SendFunc
}

// Hub owns the set of connected clients. Membership changes on connect and
// disconnect only; the hub never initiates a disconnect itself.
type Hub struct {
	sendTimeout time.Duration
	maxWorkers  int

	mu   sync.RWMutex
	subs map[string]Subscriber
}

func NewHub() *Hub {
	return &Hub{
		sendTimeout: 5 * time.Second,
		maxWorkers:  runtime.GOMAXPROCS(0),
		subs:        make(map[string]Subscriber),
	}
}

// Add puts sub into the broadcast set, replacing any member with the same id.
func (h *Hub) Add(sub Subscriber) {
	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	obs.M().ClientAdd(context.Background())
}

// Remove drops the client with the given id, if present.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	_, ok := h.subs[id]
	delete(h.subs, id)
	h.mu.Unlock()
	if ok {
		obs.M().ClientRemove(context.Background())
	}
}

// Len reports the number of currently connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Broadcast delivers the changed signal to a snapshot of the current set.
// Sends run concurrently; a failure or panic in one client's send is logged
// and never prevents delivery to the others or surfaces to the caller.
func (h *Hub) Broadcast(ctx context.Context) {
	h.mu.RLock()
	subs := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.RUnlock()

	obs.M().Broadcast(ctx)
	if len(subs) == 0 {
		return
	}

	limit := h.maxWorkers
	if limit > len(subs) {
		limit = len(subs)
	}
	p := pool.New().WithMaxGoroutines(limit)
	for _, subscriber := range subs {
		sub := subscriber
		p.Go(func() {
			defer func() {
				if r := recover(); r != nil {
					obs.M().SendFailure(ctx)
					obs.Logger.Warn("broadcast_send_panic", "client_id", sub.ID, "panic", fmt.Sprint(r))
				}
			}()
			sendCtx, cancel := context.WithTimeout(ctx, h.sendTimeout)
			defer cancel()
			if err := sub.Send(sendCtx, changedSignal); err != nil {
				obs.M().SendFailure(ctx)
				obs.Logger.Warn("broadcast_send_failed", "client_id", sub.ID, "error", err)
			}
		})
	}
	p.Wait()
}
