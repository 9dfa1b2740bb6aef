package httpapi

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/warungdata/katalog/internal/broadcast"
	"github.com/warungdata/katalog/internal/config"
	httpopenapi "github.com/warungdata/katalog/internal/http/openapi"
	"github.com/warungdata/katalog/internal/images"
	"github.com/warungdata/katalog/internal/imgproxy"
	"github.com/warungdata/katalog/internal/model"
	"github.com/warungdata/katalog/internal/notify"
	"github.com/warungdata/katalog/internal/sheets"
)

// ProductSource serves the product list. It never errors; failures degrade to
// stale or empty data inside the cache.
type ProductSource interface {
	Products(ctx context.Context) []model.ProductRecord
	FetchedAt() time.Time
}

// DebugSource reports raw spreadsheet diagnostics.
type DebugSource interface {
	Snapshot(ctx context.Context) (*sheets.Snapshot, error)
}

// ImageFetcher proxies upstream images by id.
type ImageFetcher interface {
	Fetch(ctx context.Context, id string) (*imgproxy.Image, error)
}

type App struct {
	Cfg      config.Config
	Cache    ProductSource
	Source   DebugSource
	Proxy    ImageFetcher
	Hub      *broadcast.Hub
	Notifier *notify.Notifier
	started  time.Time
}

func NewApp(cfg config.Config, cache ProductSource, source DebugSource, proxy ImageFetcher, hub *broadcast.Hub, notifier *notify.Notifier) *App {
	return &App{
		Cfg:      cfg,
		Cache:    cache,
		Source:   source,
		Proxy:    proxy,
		Hub:      hub,
		Notifier: notifier,
		started:  time.Now(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) imagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, images.List(a.Cfg.ImagesDir))
}

func (a *App) productsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, a.Cache.Products(r.Context()))
}

func (a *App) productsDebugHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	snap, err := a.Source.Snapshot(r.Context())
	if err != nil {
		WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (a *App) imgHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteJSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", "")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/img/")
	img, err := a.Proxy.Fetch(r.Context(), id)
	if err != nil {
		WriteError(w, err)
		return
	}
	defer img.Body.Close()
	w.Header().Set("Content-Type", img.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.Copy(w, img.Body)
}

func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *App) metricsHandler(w http.ResponseWriter, r *http.Request) {
	received, delivered := a.Notifier.Metrics()
	m := map[string]any{
		"ws_clients":           a.Hub.Len(),
		"signals_received":     received,
		"broadcasts_delivered": delivered,
		"cache_fetched_at":     a.Cache.FetchedAt().UTC().Format(time.RFC3339),
		"uptime_sec":           time.Since(a.started).Seconds(),
	}
	writeJSON(w, http.StatusOK, m)
}

func (a *App) openapiHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	_, _ = w.Write(httpopenapi.YAML)
}

func (a *App) docsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	html := `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>API Docs</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui'
      });
    </script>
  </body>
</html>`
	_, _ = w.Write([]byte(html))
}

// staticHandler serves the public directory. The catalog page must never be
// cached by the browser: it re-fetches products and images on every load and
// on every change signal.
func (a *App) staticHandler() http.Handler {
	fs := http.FileServer(http.Dir(a.Cfg.PublicDir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		fs.ServeHTTP(w, r)
	})
}
