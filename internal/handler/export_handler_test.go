package handler

import (
	"context"
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/foi-request-api/internal/repository"
	"github.com/noah-isme/foi-request-api/internal/service"
	"github.com/noah-isme/foi-request-api/pkg/jobs"
	"github.com/noah-isme/foi-request-api/pkg/storage"
)

type exportFixture struct {
	router *gin.Engine
	jobs   *service.ExportJobService
	queued []jobs.Job
}

type captureQueue struct {
	fixture *exportFixture
}

func (q captureQueue) Enqueue(job jobs.Job) error {
	q.fixture.queued = append(q.fixture.queued, job)
	return nil
}

func newExportFixture(t *testing.T) *exportFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	store := repository.NewMemoryFOIRequestRepository()
	for _, record := range service.SampleFOIRequests() {
		record := record
		require.NoError(t, store.Insert(context.Background(), &record))
	}
	files, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	exporter := service.NewExportService(service.ExportServiceParams{
		Store:   store,
		Storage: files,
		Signer:  storage.NewSignedURLSigner("secret", time.Hour),
		Clock:   func() time.Time { return handlerNow },
	})

	f := &exportFixture{}
	f.jobs = service.NewExportJobService(repository.NewMemoryExportJobRepository(), captureQueue{fixture: f}, exporter, nil, nil, service.ExportJobServiceConfig{})

	h := NewExportHandler(exporter, f.jobs)
	r := gin.New()
	r.GET("/exports/requests.csv", h.CSV)
	r.POST("/exports", h.Create)
	r.GET("/exports/jobs/:id", h.Status)
	r.GET("/exports/download/:token", h.Download)
	f.router = r
	return f
}

func TestExportHandlerCSVDownload(t *testing.T) {
	f := newExportFixture(t)

	w, _ := do(f.router, http.MethodGet, "/exports/requests.csv?legislation=PHIPA", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="foi_requests_20241127.csv"`, w.Header().Get("Content-Disposition"))

	rows, err := csv.NewReader(strings.NewReader(w.Body.String())).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, service.ExportColumns, rows[0])
}

func TestExportHandlerAsyncFlow(t *testing.T) {
	f := newExportFixture(t)

	w, env := do(f.router, http.MethodPost, "/exports", `{"format":"csv","search":"smith"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.Len(t, f.queued, 1)
	assert.Contains(t, string(env.Data), `"status":"QUEUED"`)

	require.NoError(t, f.jobs.Handle(context.Background(), f.queued[0]))

	status, err := f.jobs.GetStatus(context.Background(), f.queued[0].ID)
	require.NoError(t, err)
	require.NotNil(t, status.ResultURL)

	w, _ = do(f.router, http.MethodGet, "/exports/jobs/"+f.queued[0].ID, "")
	assert.Equal(t, http.StatusOK, w.Code)

	token := (*status.ResultURL)[strings.LastIndex(*status.ResultURL, "/")+1:]
	w, _ = do(f.router, http.MethodGet, "/exports/download/"+token, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "FOI-2024-001")
	assert.NotContains(t, w.Body.String(), "FOI-2024-002")
}

func TestExportHandlerRejectsBadInput(t *testing.T) {
	f := newExportFixture(t)

	w, _ := do(f.router, http.MethodPost, "/exports", `{"format":"xlsx"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(f.router, http.MethodGet, "/exports/download/not-a-token", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(f.router, http.MethodGet, "/exports/jobs/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
