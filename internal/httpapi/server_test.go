package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/backoffice/internal/admin"
	"github.com/mesh-intelligence/backoffice/pkg/types"
)

func newApp(t *testing.T) (*fiber.App, *admin.Session) {
	t.Helper()
	reg := prometheus.NewRegistry()
	session, err := admin.Open(context.Background(), types.Config{Backend: types.BackendMemory}, admin.WithRegistry(reg))
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return New(session, WithGatherer(reg)), session
}

func do(t *testing.T, app *fiber.App, method, target, body string) (int, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func TestHealthAndMetrics(t *testing.T) {
	app, _ := newApp(t)

	code, _ := do(t, app, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, code)

	code, body := do(t, app, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(body), "backoffice_records")
}

func TestListEntities(t *testing.T) {
	app, _ := newApp(t)

	code, body := do(t, app, http.MethodGet, "/api/entities", "")
	require.Equal(t, http.StatusOK, code)
	got := decode[[]entitySummary](t, body)
	require.Len(t, got, len(types.StandardSchemas))
	assert.Equal(t, types.EntityItems, got[0].Entity)
	assert.Equal(t, "/items", got[0].Path)
}

func TestListRecordsWithFilters(t *testing.T) {
	app, _ := newApp(t)

	tests := []struct {
		name   string
		target string
		want   []string
	}{
		{"search", "/api/faqs?q=shipping", []string{"1"}},
		{"facets are ANDed", "/api/items?category=Electronics&subcategory=Audio", []string{"1", "6"}},
		{"all sentinel", "/api/items?category=All%20Categories&subcategory=Audio", []string{"1", "6"}},
		{"unknown params ignored", "/api/faqs?page=2", []string{"1", "2", "3"}},
		{"entity name styles", "/api/promo-codes?status=Inactive", []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, code, string(body))
			resp := decode[listResponse](t, body)
			var ids []string
			for _, r := range resp.Records {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestCreateUpdateDelete(t *testing.T) {
	app, _ := newApp(t)

	code, body := do(t, app, http.MethodPost, "/api/faqs", `{"title":"Gift wrap?","detail":"Yes, at checkout."}`)
	require.Equal(t, http.StatusCreated, code, string(body))
	created := decode[types.Record](t, body)
	assert.Equal(t, "4", created.ID)

	code, body = do(t, app, http.MethodPatch, "/api/faqs/4", `{"detail":"Free of charge."}`)
	require.Equal(t, http.StatusOK, code, string(body))
	updated := decode[types.Record](t, body)
	assert.Equal(t, "Gift wrap?", updated.Fields["title"])
	assert.Equal(t, "Free of charge.", updated.Fields["detail"])

	code, _ = do(t, app, http.MethodDelete, "/api/faqs/4", "")
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, app, http.MethodGet, "/api/faqs/4", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, body = do(t, app, http.MethodGet, "/api/notifications", "")
	require.Equal(t, http.StatusOK, code)
	notes := decode[[]map[string]any](t, body)
	require.Len(t, notes, 3)
	assert.Equal(t, "created", notes[0]["kind"])
	assert.Equal(t, "deleted", notes[2]["kind"])
}

func TestErrorMapping(t *testing.T) {
	app, _ := newApp(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"validation", http.MethodPost, "/api/faqs", `{"title":"","detail":"non-empty"}`, http.StatusUnprocessableEntity},
		{"wrong type", http.MethodPost, "/api/items", `{"title":"x","category":"y","price":"free"}`, http.StatusUnprocessableEntity},
		{"unknown entity", http.MethodGet, "/api/widgets", "", http.StatusNotFound},
		{"unknown id", http.MethodPatch, "/api/faqs/99", `{"detail":"x"}`, http.StatusNotFound},
		{"bad body", http.MethodPost, "/api/faqs", `[1,2]`, http.StatusBadRequest},
		{"bad position", http.MethodPost, "/api/faqs?position=middle", `{"title":"t","detail":"d"}`, http.StatusBadRequest},
		{"move out of range", http.MethodPost, "/api/categories/1/move", `{"index":10}`, http.StatusBadRequest},
		{"move without index", http.MethodPost, "/api/categories/1/move", `{}`, http.StatusBadRequest},
		{"empty selection delete", http.MethodPost, "/api/faqs/selection/delete", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := do(t, app, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, code, string(body))
			assert.NotEmpty(t, decode[errorBody](t, body).Error)
		})
	}

	_, body := do(t, app, http.MethodPost, "/api/faqs", `{"title":" ","detail":"x"}`)
	assert.Equal(t, []string{"title"}, decode[errorBody](t, body).Fields)
}

func TestMoveAndReset(t *testing.T) {
	app, _ := newApp(t)

	code, body := do(t, app, http.MethodPost, "/api/categories/3/move", `{"index":0}`)
	require.Equal(t, http.StatusOK, code, string(body))
	moved := decode[moveResponse](t, body)
	assert.True(t, moved.Moved)
	assert.Equal(t, []string{"3", "1", "2", "4"}, moved.IDs)

	code, body = do(t, app, http.MethodPost, "/api/categories/3/move", `{"index":0}`)
	require.Equal(t, http.StatusOK, code)
	assert.False(t, decode[moveResponse](t, body).Moved)

	code, body = do(t, app, http.MethodPost, "/api/categories/reset-order", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, []string{"1", "2", "3", "4"}, decode[moveResponse](t, body).IDs)
}

func TestSelectionFlow(t *testing.T) {
	app, session := newApp(t)

	_, body := do(t, app, http.MethodPost, "/api/reviews/selection/2", "")
	assert.Equal(t, []string{"2"}, decode[selectionResponse](t, body).Selected)

	_, body = do(t, app, http.MethodPost, "/api/reviews/selection/all?status=Published", "")
	assert.Equal(t, []string{"1", "3"}, decode[selectionResponse](t, body).Selected)

	_, body = do(t, app, http.MethodPost, "/api/reviews/selection/all?status=Published", "")
	assert.Empty(t, decode[selectionResponse](t, body).Selected)

	do(t, app, http.MethodPost, "/api/reviews/selection/1", "")
	do(t, app, http.MethodPost, "/api/reviews/selection/4", "")
	code, body := do(t, app, http.MethodPost, "/api/reviews/selection/delete", "")
	require.Equal(t, http.StatusOK, code, string(body))
	assert.Empty(t, decode[selectionResponse](t, body).Selected)

	page, err := session.Page(types.EntityReviews)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "3"}, page.Store.IDs())

	code, _ = do(t, app, http.MethodPost, "/api/reviews/selection/99", "")
	assert.Equal(t, http.StatusNotFound, code)

	do(t, app, http.MethodPost, "/api/reviews/selection/2", "")
	code, body = do(t, app, http.MethodDelete, "/api/reviews/selection", "")
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, decode[selectionResponse](t, body).Selected)
}
