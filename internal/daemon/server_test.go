package daemon_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"filekeeper/internal/daemon"
	"filekeeper/internal/model"
	"filekeeper/internal/repository"
	"filekeeper/internal/restorer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverFixture struct {
	srv    *daemon.Server
	reg    *daemon.Registry
	store  *memoryStore
	target model.WatchTarget
}

func newServerFixture(t *testing.T) *serverFixture {
	t.Helper()

	dir := t.TempDir()
	src := filepath.Join(dir, "persist", "app.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0700))
	require.NoError(t, os.WriteFile(src, []byte(`{"key":"v1"}`), 0600))

	target, err := model.NewWatchTarget("app", src, filepath.Join(dir, "etc", "app.json"), 0600, -1, -1)
	require.NoError(t, err)

	store := &memoryStore{}
	reg := daemon.NewRegistry([]model.WatchTarget{target}, store)

	return &serverFixture{
		srv:    daemon.NewServer(reg, restorer.New(), store, 0),
		reg:    reg,
		store:  store,
		target: target,
	}
}

func (f *serverFixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	f.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestServer_Status(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodGet, "/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Targets []model.TargetSnapshot `json:"targets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Targets, 1)
	assert.Equal(t, "app", body.Targets[0].Name)
	assert.Equal(t, f.target.TargetPath, body.Targets[0].Target)
	assert.Equal(t, string(daemon.StateIdle), body.Targets[0].State)
}

func TestServer_Restore(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/targets/app/restore")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp daemon.RestoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "app", resp.Target)
	assert.Equal(t, string(model.TriggerManual), resp.Trigger)
	assert.Equal(t, "restored", resp.Result)
	assert.EqualValues(t, len(`{"key":"v1"}`), resp.BytesCopied)

	data, err := os.ReadFile(f.target.TargetPath)
	require.NoError(t, err)
	assert.Equal(t, `{"key":"v1"}`, string(data))

	assert.Equal(t, 1, f.reg.Snapshots()[0].Restored)
	assert.Len(t, f.store.saved, 1)

	rec = f.do(t, http.MethodPost, "/targets/app/restore")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "unchanged", resp.Result)
}

func TestServer_RestoreFailure(t *testing.T) {
	f := newServerFixture(t)
	require.NoError(t, os.MkdirAll(f.target.TargetPath, 0700))

	rec := f.do(t, http.MethodPost, "/targets/app/restore")
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var resp daemon.RestoreResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Result)
	assert.Equal(t, string(model.KindTargetWriteFailed), resp.Kind)
	assert.NotEmpty(t, resp.Error)
}

func TestServer_RestoreUnknownTarget(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/targets/nope/restore")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, f.store.saved)
}

func TestServer_History(t *testing.T) {
	f := newServerFixture(t)
	f.reg.Report(outcome("app", model.TriggerInitial, nil))
	f.reg.Report(outcome("other", model.TriggerInitial, nil))
	f.reg.Report(outcome("app", model.TriggerModified, nil))

	rec := f.do(t, http.MethodGet, "/history?n=2")
	require.Equal(t, http.StatusOK, rec.Code)

	var histories []model.History
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &histories))
	require.Len(t, histories, 2)
	assert.Equal(t, string(model.TriggerModified), histories[0].Trigger)
	assert.Equal(t, "other", histories[1].Target)

	rec = f.do(t, http.MethodGet, "/history?target=app")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &histories))
	require.Len(t, histories, 2)
	for _, h := range histories {
		assert.Equal(t, "app", h.Target)
	}
}

func TestServer_HistoryFailedAndStats(t *testing.T) {
	f := newServerFixture(t)
	f.reg.Report(outcome("app", model.TriggerInitial, nil))
	f.reg.Report(outcome("app", model.TriggerModified, func(o *model.RestoreOutcome) {
		o.Success = false
		o.Err = errors.New("no space left on device")
	}))

	rec := f.do(t, http.MethodGet, "/history?failed=true")
	require.Equal(t, http.StatusOK, rec.Code)

	var histories []model.History
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &histories))
	require.Len(t, histories, 1)
	assert.Equal(t, model.StatusFailed, histories[0].Status)

	rec = f.do(t, http.MethodGet, "/history?failed=true&target=app")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &histories))
	require.Len(t, histories, 1)
	assert.Equal(t, "app", histories[0].Target)

	rec = f.do(t, http.MethodGet, "/history?failed=true&target=other")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &histories))
	assert.Empty(t, histories)

	rec = f.do(t, http.MethodGet, "/history/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats repository.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, repository.Stats{Total: 2, Success: 1, Failed: 1}, stats)
}

func TestServer_HistoryDisabled(t *testing.T) {
	reg := daemon.NewRegistry(nil, nil)
	srv := daemon.NewServer(reg, restorer.New(), nil, 0)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/history", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestServer_Stop(t *testing.T) {
	f := newServerFixture(t)

	rec := f.do(t, http.MethodPost, "/stop")
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-f.srv.StopCh():
	case <-time.After(time.Second):
		t.Fatal("stop was not signalled")
	}

	// A second stop while one is pending must not block.
	f.do(t, http.MethodPost, "/stop")
	f.do(t, http.MethodPost, "/stop")
}

func TestServer_Metrics(t *testing.T) {
	f := newServerFixture(t)
	f.do(t, http.MethodPost, "/targets/app/restore")

	rec := f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "filekeeper_restore_attempts_total")
	assert.Contains(t, rec.Body.String(), `target="app"`)
}
