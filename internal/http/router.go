package httpapi

import (
	"expvar"
	"net/http"
)

// NewRouter registers HTTP routes and returns the handler with middleware.
// The exact patterns /images and /products take precedence over the static
// catch-all, so files under public/images stay reachable as /images/<name>.
func NewRouter(app *App) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/images", app.imagesHandler)
	mux.HandleFunc("/products", app.productsHandler)
	mux.HandleFunc("/products/debug", app.productsDebugHandler)
	mux.HandleFunc("/img/", app.imgHandler)
	mux.HandleFunc("/ws", app.wsHandler)
	mux.HandleFunc("/healthz", app.healthHandler)
	mux.HandleFunc("/debug/metrics", app.metricsHandler)
	mux.Handle("/debug/vars", expvar.Handler())
	mux.HandleFunc("/openapi.yaml", app.openapiHandler)
	mux.HandleFunc("/docs", app.docsHandler)
	mux.Handle("/", app.staticHandler())
	return WithRequestID(WithLogging(mux))
}
