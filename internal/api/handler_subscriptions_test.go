package api

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionLifecycle(t *testing.T) {
	r, _ := newTestRouter(t)

	endpoint := "https://push.example.com/ep-1"
	query := "/api/subscriptions?endpoint=" + url.QueryEscape(endpoint)
	body := `{"endpoint":"` + endpoint + `","p256dh":"key","auth":"secret"}`

	t.Run("malformed body", func(t *testing.T) {
		w := do(r, http.MethodPut, "/api/subscriptions", "1", `{"endpoint":""}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("create then read back", func(t *testing.T) {
		w := do(r, http.MethodPut, "/api/subscriptions", "1", body)
		require.Equal(t, http.StatusCreated, w.Code)

		w = do(r, http.MethodGet, query, "1", "")
		assert.Equal(t, http.StatusOK, w.Code)

		// Upsert of the same endpoint is not an error.
		w = do(r, http.MethodPut, "/api/subscriptions", "1", body)
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("scoped to the calling user", func(t *testing.T) {
		w := do(r, http.MethodGet, query, "2", "")
		assert.Equal(t, http.StatusNotFound, w.Code)

		// Deleting under the wrong user leaves it in place.
		w = do(r, http.MethodDelete, "/api/subscriptions", "2", `{"endpoint":"`+endpoint+`"}`)
		require.Equal(t, http.StatusNoContent, w.Code)
		w = do(r, http.MethodGet, query, "1", "")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("delete removes it", func(t *testing.T) {
		w := do(r, http.MethodDelete, "/api/subscriptions", "1", `{"endpoint":"`+endpoint+`"}`)
		require.Equal(t, http.StatusNoContent, w.Code)
		w = do(r, http.MethodGet, query, "1", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestGetVAPIDPublicKey_Unconfigured(t *testing.T) {
	r, _ := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/vapid_public_key", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
