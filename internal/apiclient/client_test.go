package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/jobtrack/internal/model"
	"github.com/sakif/jobtrack/internal/view"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestClient_ListSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/applications", r.URL.Path)
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, []model.Application{{ID: 1, Company: "Stripe", Status: model.StatusApplied}})
	}))
	defer srv.Close()

	c := New(srv.URL+"/api", WithTokens(model.TokenPair{Access: "access-1"}))
	apps, err := c.ListApplications(context.Background())

	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "Stripe", apps[0].Company)
}

func TestClient_QueryEncodesFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "strip", q.Get("search"))
		assert.Equal(t, "company", q.Get("sort"))
		assert.Equal(t, "asc", q.Get("dir"))
		writeJSON(w, http.StatusOK, []model.Application{})
	}))
	defer srv.Close()

	f := view.FilterState{Search: "strip", Status: view.AllStatuses, SortKey: view.SortByCompany, SortDir: view.Asc}
	_, err := New(srv.URL).QueryApplications(context.Background(), f)
	require.NoError(t, err)
}

func TestClient_UpdateUsesPatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/applications/7", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{"status": "offer"}, body, "only the changed field is sent")

		writeJSON(w, http.StatusOK, model.Application{ID: 7, Status: model.StatusOffer})
	}))
	defer srv.Close()

	got, err := New(srv.URL).UpdateApplication(context.Background(), 7, model.StatusPatch(model.StatusOffer))
	require.NoError(t, err)
	assert.Equal(t, model.StatusOffer, got.Status)
}

func TestClient_DecodesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":   "validation_error",
			"message": "Company is required",
			"fields":  map[string]string{"company": "Company is required"},
		})
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateApplication(context.Background(), model.ApplicationInput{})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "validation_error", apiErr.Code)
	assert.Equal(t, "Company is required", apiErr.Fields["company"])
}

func TestClient_RefreshesOnceOn401(t *testing.T) {
	var listCalls, refreshCalls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token/refresh":
			refreshCalls.Add(1)
			writeJSON(w, http.StatusOK, model.TokenPair{Access: "fresh"})
		case "/applications":
			listCalls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
				return
			}
			writeJSON(w, http.StatusOK, []model.Application{})
		}
	}))
	defer srv.Close()

	var saved model.TokenPair
	c := New(srv.URL,
		WithTokens(model.TokenPair{Access: "stale", Refresh: "r-1"}),
		OnTokenRefresh(func(t model.TokenPair) { saved = t }),
	)

	_, err := c.ListApplications(context.Background())

	require.NoError(t, err)
	assert.EqualValues(t, 2, listCalls.Load())
	assert.EqualValues(t, 1, refreshCalls.Load())
	assert.Equal(t, model.TokenPair{Access: "fresh", Refresh: "r-1"}, saved)
}

func TestClient_FailedRefreshClearsSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized", "message": "token expired"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokens(model.TokenPair{Access: "stale", Refresh: "revoked"}))
	_, err := c.ListApplications(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, model.TokenPair{}, c.Tokens())
}

func TestClient_LoginStoresTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, model.TokenPair{Access: "a", Refresh: "r"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "me@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, model.TokenPair{Access: "a", Refresh: "r"}, c.Tokens())
}

func TestClient_LogoutClearsEvenOnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	}))
	defer srv.Close()

	c := New(srv.URL, WithTokens(model.TokenPair{Access: "a", Refresh: "r"}))
	err := c.Logout(context.Background())

	assert.Error(t, err)
	assert.Equal(t, model.TokenPair{}, c.Tokens())
}

func TestClient_DeleteNoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).DeleteApplication(context.Background(), 3))
}
