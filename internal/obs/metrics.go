package obs

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics bundles the instruments the service records. All methods are safe
// on the zero-configured default, which is backed by a no-op meter.
type Metrics struct {
	cacheHits     metric.Int64Counter
	cacheMisses   metric.Int64Counter
	fetchFailures metric.Int64Counter
	broadcasts    metric.Int64Counter
	sendFailures  metric.Int64Counter
	wsClients     metric.Int64UpDownCounter
}

var defaultMetrics = newMetrics(noop.NewMeterProvider())

// InitMetrics builds the service instruments from the given provider and
// installs them as the global set.
func InitMetrics(mp metric.MeterProvider) {
	defaultMetrics = newMetrics(mp)
}

// M returns the current global instrument set.
func M() *Metrics {
	return defaultMetrics
}

func newMetrics(mp metric.MeterProvider) *Metrics {
	meter := mp.Meter("github.com/warungdata/katalog")
	m := new(Metrics)
	// Instrument creation only fails on invalid names; these are constant.
	m.cacheHits, _ = meter.Int64Counter("katalog.cache.hits",
		metric.WithDescription("Product requests served from the fresh cache window."))
	m.cacheMisses, _ = meter.Int64Counter("katalog.cache.misses",
		metric.WithDescription("Product requests that triggered a refresh attempt."))
	m.fetchFailures, _ = meter.Int64Counter("katalog.fetch.failures",
		metric.WithDescription("Spreadsheet fetches that failed and fell back to stale data."))
	m.broadcasts, _ = meter.Int64Counter("katalog.broadcast.signals",
		metric.WithDescription("Change signals fanned out to connected clients."))
	m.sendFailures, _ = meter.Int64Counter("katalog.broadcast.send_failures",
		metric.WithDescription("Per-connection send failures during fan-out."))
	m.wsClients, _ = meter.Int64UpDownCounter("katalog.ws.clients",
		metric.WithDescription("Currently connected websocket clients."))
	return m
}

// CacheHit records a product request served within the freshness window.
func (m *Metrics) CacheHit(ctx context.Context) { m.cacheHits.Add(ctx, 1) }

// CacheMiss records a product request that went to the spreadsheet.
func (m *Metrics) CacheMiss(ctx context.Context) { m.cacheMisses.Add(ctx, 1) }

// FetchFailure records a refresh attempt that errored.
func (m *Metrics) FetchFailure(ctx context.Context) { m.fetchFailures.Add(ctx, 1) }

// Broadcast records one fan-out of the change signal.
func (m *Metrics) Broadcast(ctx context.Context) { m.broadcasts.Add(ctx, 1) }

// SendFailure records a single client send that failed during fan-out.
func (m *Metrics) SendFailure(ctx context.Context) { m.sendFailures.Add(ctx, 1) }

// ClientAdd records a websocket client joining the broadcast set.
func (m *Metrics) ClientAdd(ctx context.Context) { m.wsClients.Add(ctx, 1) }

// ClientRemove records a websocket client leaving the broadcast set.
func (m *Metrics) ClientRemove(ctx context.Context) { m.wsClients.Add(ctx, -1) }
