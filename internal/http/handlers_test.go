package httpapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"

	"github.com/warungdata/katalog/internal/broadcast"
	"github.com/warungdata/katalog/internal/config"
	"github.com/warungdata/katalog/internal/errs"
	"github.com/warungdata/katalog/internal/imgproxy"
	"github.com/warungdata/katalog/internal/model"
	"github.com/warungdata/katalog/internal/notify"
	"github.com/warungdata/katalog/internal/obs"
	"github.com/warungdata/katalog/internal/sheets"
)

type productStub struct {
	records   []model.ProductRecord
	fetchedAt time.Time
}

func (p *productStub) Products(ctx context.Context) []model.ProductRecord { return p.records }
func (p *productStub) FetchedAt() time.Time                               { return p.fetchedAt }

type debugStub struct {
	snap *sheets.Snapshot
	err  error
}

func (d *debugStub) Snapshot(ctx context.Context) (*sheets.Snapshot, error) { return d.snap, d.err }

func setupApp(t *testing.T) (*App, http.Handler) {
	t.Helper()
	obs.InitLogger()
	cfg := config.Load()
	cfg.PublicDir = t.TempDir()
	cfg.ImagesDir = t.TempDir()
	hub := broadcast.NewHub()
	notifier := notify.New(hub, 0)
	app := NewApp(cfg,
		&productStub{records: []model.ProductRecord{}},
		&debugStub{err: errs.New(errs.CodeUnavailable, "sheet id not configured")},
		imgproxy.New("http://127.0.0.1:1/"),
		hub,
		notifier,
	)
	return app, NewRouter(app)
}

func TestImagesEndpoint(t *testing.T) {
	app, mux := setupApp(t)
	for _, name := range []string{"a.png", "b.txt", "C.JPG"} {
		if err := os.WriteFile(filepath.Join(app.Cfg.ImagesDir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("cache-control = %q", cc)
	}
	var names []string
	if err := json.Unmarshal(rr.Body.Bytes(), &names); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 images, got %v", names)
	}
}

func TestProductsEndpoint(t *testing.T) {
	app, mux := setupApp(t)
	app.Cache = &productStub{records: []model.ProductRecord{
		{Image: "kopi.png", Name: "Kopi", Price: 2.5, Description: "hot"},
	}}
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("cache-control = %q", cc)
	}
	var got []model.ProductRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Kopi" || got[0].Price != 2.5 {
		t.Fatalf("unexpected products: %+v", got)
	}
}

func TestProductsMethodNotAllowed(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodPost, "/products", bytes.NewBufferString("{}"))
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestProductsDebugSuccess(t *testing.T) {
	app, mux := setupApp(t)
	app.Source = &debugStub{snap: &sheets.Snapshot{
		SheetID:  "sheet-1",
		Range:    "Produk!A2:D",
		Tabs:     []string{"Produk"},
		RowCount: 2,
		FirstRows: [][]interface{}{
			{"a.png", "Kopi", 2.5, "hot"},
			{"b.png", "Teh", 1.5, "sweet"},
		},
	}}
	req := httptest.NewRequest(http.MethodGet, "/products/debug", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var snap sheets.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.RowCount != 2 || len(snap.Tabs) != 1 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestProductsDebugFailure(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/products/debug", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
	var e struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Code != "source_unavailable" || e.Error == "" {
		t.Fatalf("unexpected error payload: %+v", e)
	}
}

func TestImgProxyBadID(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/img/bad%20id!", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	var e struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if e.Code != "bad_request" {
		t.Fatalf("unexpected code: %q", e.Code)
	}
}

func TestImgProxyPassthrough(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Write([]byte("png-bytes"))
	}))
	defer upstream.Close()

	app, mux := setupApp(t)
	app.Proxy = imgproxy.New(upstream.URL + "/")

	req := httptest.NewRequest(http.MethodGet, "/img/abcdefghij1234", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("content type = %q", ct)
	}
	if cc := rr.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age=86400") {
		t.Fatalf("cache-control = %q", cc)
	}
	if body, _ := io.ReadAll(rr.Body); string(body) != "png-bytes" {
		t.Fatalf("body = %q", body)
	}
}

func TestImgProxyUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer upstream.Close()

	app, mux := setupApp(t)
	app.Proxy = imgproxy.New(upstream.URL + "/")

	req := httptest.NewRequest(http.MethodGet, "/img/abcdefghij1234", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestStaticPageNoStore(t *testing.T) {
	app, mux := setupApp(t)
	page := []byte("<!doctype html><title>katalog</title>")
	if err := os.WriteFile(filepath.Join(app.Cfg.PublicDir, "index.html"), page, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "no-store" {
		t.Fatalf("cache-control = %q", cc)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("katalog")) {
		t.Fatalf("unexpected body: %s", rr.Body.String())
	}
}

func TestHealthzOK(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}

func TestMetricsHandler(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/debug/metrics", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("metrics json decode: %v", err)
	}
	if _, ok := m["ws_clients"]; !ok {
		t.Fatalf("missing ws_clients")
	}
	if _, ok := m["broadcasts_delivered"]; !ok {
		t.Fatalf("missing broadcasts_delivered")
	}
}

func TestOpenAPIServed(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct == "" {
		t.Fatalf("expected content-type set")
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("openapi:")) {
		t.Fatalf("expected openapi content")
	}
}

func TestDocsServed(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs body")
	}
}

func TestRequestIDEchoed(t *testing.T) {
	_, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-Id", "test-req-1")
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-Id"); got != "test-req-1" {
		t.Fatalf("request id = %q", got)
	}
}
