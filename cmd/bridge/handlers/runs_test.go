package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/hairizuan-noorazman/browser-bridge/history"
	"github.com/hairizuan-noorazman/browser-bridge/logger"
	"github.com/hairizuan-noorazman/browser-bridge/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupRunsHandler(t *testing.T) (*RunsHandler, *history.GormStore, *gorm.DB) {
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &history.Run{})

	log := logger.NewTestLogger()
	store := history.NewGormStore(db, log)
	return NewRunsHandler(store, log), store, db
}

func TestRunsHandler_Disabled(t *testing.T) {
	h := NewRunsHandler(nil, logger.NewTestLogger())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	req := mux.SetURLVars(httptest.NewRequest(http.MethodGet, "/api/v1/runs/x", nil), map[string]string{"id": uuid.NewString()})
	h.GetByID(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRunsHandler_List(t *testing.T) {
	h, _, db := setupRunsHandler(t)
	now := time.Now()

	testutil.CreateFixtures(t, db,
		&history.Run{TestID: "login", Status: history.StatusPass, FinishedAt: now},
		&history.Run{TestID: "login", Status: history.StatusPass, FinishedAt: now.Add(time.Second)},
		&history.Run{TestID: "login", Status: history.StatusPass, FinishedAt: now.Add(2 * time.Second)},
		&history.Run{TestID: "search", Status: history.StatusFail, FinishedAt: now},
	)

	tests := []struct {
		name       string
		query      string
		wantItems  int
		wantTotal  int
		wantLimit  int
		wantOffset int
	}{
		{name: "all runs", query: "", wantItems: 4, wantTotal: 4, wantLimit: history.DefaultLimit},
		{name: "filtered by test id", query: "?test_id=login", wantItems: 3, wantTotal: 3, wantLimit: history.DefaultLimit},
		{name: "paginated", query: "?test_id=login&limit=2&offset=2", wantItems: 1, wantTotal: 3, wantLimit: 2, wantOffset: 2},
		{name: "out of range limit uses default", query: "?limit=500", wantItems: 4, wantTotal: 4, wantLimit: history.DefaultLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/runs"+tt.query, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var resp struct {
				Items  []history.Run `json:"items"`
				Total  int           `json:"total"`
				Limit  int           `json:"limit"`
				Offset int           `json:"offset"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Len(t, resp.Items, tt.wantItems)
			assert.Equal(t, tt.wantTotal, resp.Total)
			assert.Equal(t, tt.wantLimit, resp.Limit)
			assert.Equal(t, tt.wantOffset, resp.Offset)
		})
	}
}

func TestRunsHandler_GetByID(t *testing.T) {
	h, store, _ := setupRunsHandler(t)
	run := &history.Run{TestID: "login", Status: history.StatusError, ErrorMessage: "navigation failed", FinishedAt: time.Now()}
	require.NoError(t, store.Create(context.Background(), run))

	tests := []struct {
		name       string
		id         string
		wantStatus int
	}{
		{name: "existing run", id: run.ID.String(), wantStatus: http.StatusOK},
		{name: "unknown run", id: uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "invalid id", id: "not-a-uuid", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/runs/%s", tt.id), nil)
			req = mux.SetURLVars(req, map[string]string{"id": tt.id})
			rec := httptest.NewRecorder()

			h.GetByID(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				var got history.Run
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
				assert.Equal(t, run.ID, got.ID)
				assert.Equal(t, "navigation failed", got.ErrorMessage)
			}
		})
	}
}
