package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/estoque-sync/internal/config"
	"github.com/JonMunkholm/estoque-sync/internal/core"
	"github.com/JonMunkholm/estoque-sync/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, env map[string]string) *config.Config {
	t.Helper()
	base := map[string]string{"STORE_DRIVER": "memory", "RATE_LIMIT_ENABLED": "false"}
	for k, v := range env {
		base[k] = v
	}
	cfg, err := config.LoadFrom(func(k string) string { return base[k] })
	require.NoError(t, err)
	return cfg
}

func newTestServer(t *testing.T, env map[string]string) (*Server, *memory.Store) {
	t.Helper()
	cfg := testConfig(t, env)
	store := memory.New()
	svc := core.NewService(core.Deps{Products: store, Runs: store}, core.Options{
		PageSize:      cfg.Sync.PageSize,
		MaxConcurrent: cfg.Sync.MaxConcurrent,
		MaxWait:       cfg.Sync.MaxWaitTime,
		RunTimeout:    cfg.Sync.Timeout,
		HistorySize:   cfg.Sync.HistorySize,
	})
	return NewServer(svc, cfg), store
}

func do(t *testing.T, s *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, s *Server, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return do(t, s, req)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

const produtoBody = `{
	"codigo": "42", "descricao": "Caneta azul", "preco": 2.5, "loja": "A",
	"estado": "SP", "cod_barra": null, "sloja": 1, "sestoque": 10, "sminimo": 0, "smaximo": 20
}`

func TestHandleRoot(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, welcomeMessage, decode[map[string]string](t, rec)["message"])
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestHandleSyncProduct_InsertThenUpdate(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := postJSON(t, s, "/produtos/sincronizar", produtoBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	first := decode[OutcomeResponse](t, rec)
	assert.Equal(t, statusSuccess, first.Status)
	assert.Equal(t, "produto_inserido", first.Operacao)
	require.Len(t, first.Dados, 1)
	assert.Equal(t, "000042", first.Dados[0].Code)

	updated := strings.Replace(produtoBody, `"preco": 2.5`, `"preco": 3.75`, 1)
	rec = postJSON(t, s, "/produtos/sincronizar", updated)
	second := decode[OutcomeResponse](t, rec)
	assert.Equal(t, "produto_atualizado", second.Operacao)
	require.Len(t, second.Dados, 1)
	assert.Equal(t, first.Dados[0].ID, second.Dados[0].ID)
	assert.Equal(t, "3.75", second.Dados[0].Price.String())
	assert.Equal(t, 1, store.Len())
}

func TestHandleCreateProduct_DuplicateIsBusinessFailure(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := postJSON(t, s, "/produtos", produtoBody)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "produto_inserido", decode[OutcomeResponse](t, rec).Operacao)

	rec = postJSON(t, s, "/produtos", produtoBody)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[OutcomeResponse](t, rec)
	assert.Equal(t, statusFailure, got.Status)
	assert.Equal(t, "inserir", got.Operacao)
	assert.Contains(t, got.Erro, "duplicate key")
}

func TestHandleSyncProduct_InvalidBody(t *testing.T) {
	s, store := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed json", `{"codigo":`, "malformed JSON"},
		{"missing fields", `{"codigo": "1"}`, "missing properties"},
		{"wrong type", strings.Replace(produtoBody, `"sloja": 1`, `"sloja": "um"`, 1), "sloja"},
		{"negative stock", strings.Replace(produtoBody, `"sestoque": 10`, `"sestoque": -1`, 1), "sestoque"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := postJSON(t, s, "/produtos/sincronizar", tt.body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

			got := decode[ErrorResponse](t, rec)
			assert.Equal(t, statusFailure, got.Status)
			assert.Equal(t, "VAL004", got.Code)
			assert.Contains(t, got.Error, tt.want)
		})
	}
	assert.Equal(t, 0, store.Len())
}

func TestHandleSyncProduct_BlankStoreIsValidationError(t *testing.T) {
	s, _ := newTestServer(t, nil)

	body := strings.Replace(produtoBody, `"loja": "A"`, `"loja": "  "`, 1)
	rec := postJSON(t, s, "/produtos/sincronizar", body)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "VAL003", decode[ErrorResponse](t, rec).Code)
}

func TestHandleListProducts(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"SYNC_PAGE_SIZE": "2"})

	for _, code := range []string{"1", "2", "3"} {
		body := strings.Replace(produtoBody, `"codigo": "42"`, `"codigo": "`+code+`"`, 1)
		require.Equal(t, http.StatusOK, postJSON(t, s, "/produtos", body).Code)
	}

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/produtos", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]core.StoredProduct](t, rec)["produtos"], 2)

	rec = do(t, s, httptest.NewRequest(http.MethodGet, "/produtos?limite=1", nil))
	assert.Len(t, decode[map[string][]core.StoredProduct](t, rec)["produtos"], 1)
}

func TestHandleListProducts_EmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/produtos", nil))
	assert.JSONEq(t, `{"produtos":[]}`, rec.Body.String())
}

func multipartUpload(t *testing.T, field, name string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/produtos/importar", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

const estoqueCSV = "estado;código;cód.barra;descrição;sloja;sestoque;preço;sminimo;smaximo;loja\n" +
	"SP;7;789;Lapis;1;2;1,50;0;5;A\n" +
	"SP;8;;Borracha;1;x;0,90;0;5;A\n" +
	"SP;9;;Caderno;0;3;12,00;0;9;B\n"

func TestHandleImport_CSV(t *testing.T) {
	s, store := newTestServer(t, nil)

	rec := do(t, s, multipartUpload(t, "arquivo", "estoque.csv", []byte(estoqueCSV)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[RunResponse](t, rec)
	assert.Equal(t, statusSuccess, got.Status)
	require.NotNil(t, got.Execucao)
	assert.Equal(t, uploadSource, got.Execucao.Source)
	assert.Equal(t, "estoque.csv", got.Execucao.FileName)
	assert.Equal(t, 3, got.Execucao.Processed)
	assert.Equal(t, 2, got.Execucao.Inserted)
	require.Len(t, got.Execucao.Skipped, 1)
	assert.Equal(t, 3, got.Execucao.Skipped[0].Position)
	assert.Equal(t, 2, store.Len())

	runs := do(t, s, httptest.NewRequest(http.MethodGet, "/produtos/sincronizacoes", nil))
	require.Equal(t, http.StatusOK, runs.Code)
	assert.Len(t, decode[map[string][]core.RunSummary](t, runs)["execucoes"], 1)
}

func TestHandleImport_Rejections(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, multipartUpload(t, "file", "estoque.csv", []byte(estoqueCSV)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, multipartUpload(t, "arquivo", "foto.png", []byte{0x89, 'P', 'N', 'G', 0, 1, 2, 3}))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	assert.Equal(t, "SRC002", decode[ErrorResponse](t, rec).Code)
}

func TestHandleDriveSync_NotConfigured(t *testing.T) {
	s, _ := newTestServer(t, nil)

	rec := do(t, s, httptest.NewRequest(http.MethodPost, "/produtos/sincronizacoes/drive", nil))
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
	assert.Equal(t, "SRC005", decode[ErrorResponse](t, rec).Code)
}

func TestMutatingRoutesRequireAPIKey(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"REQUIRE_API_KEY": "true", "API_KEYS": "segredo"})

	rec := postJSON(t, s, "/produtos", produtoBody)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/produtos", strings.NewReader(produtoBody))
	req.Header.Set("X-API-Key", "segredo")
	assert.Equal(t, http.StatusOK, do(t, s, req).Code)

	// Reads stay open.
	assert.Equal(t, http.StatusOK, do(t, s, httptest.NewRequest(http.MethodGet, "/produtos", nil)).Code)
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
	assert.Equal(t, false, body["drive_sync"])
}

type unreachableStore struct{ *memory.Store }

func (unreachableStore) Ping(context.Context) error {
	return errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
}

func TestHealth_StoreUnreachable(t *testing.T) {
	cfg := testConfig(t, nil)
	store := unreachableStore{memory.New()}
	s := NewServer(core.NewService(core.Deps{Products: store, Runs: store}, core.Options{}), cfg)

	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "unreachable", body["database"])
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter(2, time.Minute)
	defer rl.stop()

	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"))
}

func TestRateLimiter_Refills(t *testing.T) {
	rl := newRateLimiter(60, time.Minute)
	defer rl.stop()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 60; i++ {
		require.True(t, rl.allow("1.1.1.1"))
	}
	assert.False(t, rl.allow("1.1.1.1"))

	now = now.Add(2 * time.Second)
	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
}

func TestRateLimitMiddleware(t *testing.T) {
	s, _ := newTestServer(t, map[string]string{"RATE_LIMIT_ENABLED": "true", "RATE_LIMIT_REQUESTS_PER_MINUTE": "1"})
	defer s.limiter.stop()

	assert.Equal(t, http.StatusOK, do(t, s, httptest.NewRequest(http.MethodGet, "/", nil)).Code)
	rec := do(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}
