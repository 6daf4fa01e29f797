package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"dialer-insights-go/internal/actionable"
	"dialer-insights-go/internal/pipeline"
	"dialer-insights-go/internal/processor"
	"dialer-insights-go/internal/store"
	"dialer-insights-go/internal/types"
)

const exportCSV = "Inicio;Estado;Sub-Estado;ANI/Teléfono;Base;Duración\n" +
	"13/02/2026 10:00:00;Answer;Agent;1145678901;north;120\n" +
	"13/02/2026 11:00:00;NoAnswer;;3511234567;north;\n" +
	"13/02/2026 16:00:00;Unallocated;;2231234567;south;\n" +
	"13/02/2026 16:05:00;Unallocated;;2231234567;south;\n" +
	"13/02/2026 16:10:00;Unallocated;;2231234567;south;\n"

func newServer(opts Options) (*Server, store.Store) {
	s := store.NewMemory()
	opts.Store = s
	opts.Pipeline = pipeline.New(s, processor.Options{
		NewID: func() string { return "an-1" },
		Now:   func() time.Time { return time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC) },
	})
	return New(opts), s
}

func newTestServer(t *testing.T, opts Options) (*httptest.Server, store.Store) {
	t.Helper()
	srv, s := newServer(opts)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, s
}

func multipartBody(t *testing.T, field string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, ts *httptest.Server, files map[string]string) *http.Response {
	t.Helper()
	body, ct := multipartBody(t, "files", files)
	resp, err := http.Post(ts.URL+"/api/upload", ct, body)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func postJSON(t *testing.T, url string, v any) *http.Response {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	for _, path := range []string{"/health", "/api/health"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, map[string]string{"status": "ok"}, decode[map[string]string](t, resp))
		resp.Body.Close()
	}
}

func TestUploadAndReadBack(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp := upload(t, ts, map[string]string{"monday.csv": exportCSV})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[map[string]any](t, resp)
	assert.Equal(t, "an-1", sum["id"])
	assert.Equal(t, "monday.csv", sum["file_name"])
	assert.EqualValues(t, 5, sum["total_records"])
	assert.NotContains(t, sum, "records")

	resp, err := http.Get(ts.URL + "/api/analysis/an-1")
	require.NoError(t, err)
	defer resp.Body.Close()
	got := decode[types.AnalysisSummary](t, resp)
	assert.Equal(t, 3, got.TotalANIs)
	assert.Equal(t, 1, got.TagDistribution[types.TagInvalid])

	resp, err = http.Get(ts.URL + "/api/analyses")
	require.NoError(t, err)
	defer resp.Body.Close()
	list := decode[[]map[string]any](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "an-1", list[0]["id"])
}

func TestUpload_FilesAndFileFields(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, part := range []struct{ field, name string }{{"file", "b.csv"}, {"files", "a.csv"}} {
		fw, err := mw.CreateFormFile(part.field, part.name)
		require.NoError(t, err)
		_, err = fw.Write([]byte(exportCSV))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := http.Post(ts.URL+"/api/upload", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[map[string]any](t, resp)
	assert.Equal(t, "a.csv, b.csv", sum["file_name"])
	assert.EqualValues(t, 10, sum["total_records"])
}

func TestUpload_Errors(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	resp := upload(t, ts, map[string]string{"notes.pdf": "x"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload(t, ts, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	r, err := http.Post(ts.URL+"/api/upload", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	r.Body.Close()
	assert.Equal(t, http.StatusBadRequest, r.StatusCode)
}

func TestUpload_TooLarge(t *testing.T) {
	srv, _ := newServer(Options{})
	srv.maxUpload = 1 << 10
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp := upload(t, ts, map[string]string{"big.csv": "Estado\n" + strings.Repeat("Answer\n", 600)})
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestUpload_RateLimited(t *testing.T) {
	ts, _ := newTestServer(t, Options{UploadRate: 0.001, UploadBurst: 1})

	assert.Equal(t, http.StatusOK, upload(t, ts, map[string]string{"a.csv": exportCSV}).StatusCode)
	assert.Equal(t, http.StatusTooManyRequests, upload(t, ts, map[string]string{"a.csv": exportCSV}).StatusCode)
}

func TestUpload_XLSX(t *testing.T) {
	ts, _ := newTestServer(t, Options{})

	f := excelize.NewFile()
	rows := [][]any{{"Inicio", "Estado", "ANI"}, {46066.625, "Answer", "1145678901"}}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	resp := upload(t, ts, map[string]string{"export.xlsx": buf.String()})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sum := decode[types.AnalysisSummary](t, resp)
	assert.Equal(t, 1, sum.TotalRecords)
	assert.Equal(t, 1, sum.ShiftDistribution["Afternoon"].Total)
}

func TestAnalysisNotFound(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	for _, path := range []string{"/api/analysis/nope", "/api/analysis/nope/meta", "/api/analysis/nope/actions", "/api/analysis/nope/thresholds"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestMetaAndRecordsQuery(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	upload(t, ts, map[string]string{"a.csv": exportCSV})

	resp, err := http.Get(ts.URL + "/api/analysis/an-1/meta")
	require.NoError(t, err)
	defer resp.Body.Close()
	meta := decode[types.AnalysisMeta](t, resp)
	assert.Equal(t, []string{"ANSWER", "NOANSWER", "UNALLOCATED"}, meta.DistinctStates)
	assert.Equal(t, 120.0, meta.MaxDuration)

	resp = postJSON(t, ts.URL+"/api/analysis/an-1/records/query", map[string]any{
		"bases": []string{"south"},
		"limit": 2,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[processor.RecordsPage](t, resp)
	assert.Equal(t, 3, page.Total)
	assert.Len(t, page.Records, 2)

	resp = postJSON(t, ts.URL+"/api/analysis/an-1/records/query", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestActionsCutAndThresholds(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	upload(t, ts, map[string]string{"a.csv": exportCSV})

	resp, err := http.Get(ts.URL + "/api/analysis/an-1/actions")
	require.NoError(t, err)
	defer resp.Body.Close()
	var actions struct {
		Actions     []actionable.ActionCard `json:"actions"`
		KeepANIs    int                     `json:"keep_anis"`
		DiscardANIs int                     `json:"discard_anis"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&actions))
	assert.NotEmpty(t, actions.Actions)
	assert.Equal(t, 1, actions.KeepANIs)
	assert.Equal(t, 2, actions.DiscardANIs)

	resp = postJSON(t, ts.URL+"/api/analysis/an-1/simulate-cut", map[string]any{"max_attempts": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	sim := decode[actionable.CutSimulation](t, resp)
	assert.Equal(t, 3, sim.ScopeANIs)
	assert.Equal(t, 1, sim.CutANIs)

	resp = postJSON(t, ts.URL+"/api/analysis/an-1/simulate-cut", map[string]any{"base": "north"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/analysis/an-1/thresholds")
	require.NoError(t, err)
	defer resp.Body.Close()
	var th struct {
		Categories []actionable.CategoryThresholds `json:"categories"`
		Contact    []actionable.ThresholdRow       `json:"contact"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&th))
	assert.Len(t, th.Categories, len(actionable.ThresholdCategories))
	assert.Equal(t, 100.0, th.Contact[0].Pct)
}

func TestExports(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	upload(t, ts, map[string]string{"a.csv": exportCSV})

	resp := postJSON(t, ts.URL+"/api/export/records", map[string]any{
		"analysis_id": "an-1",
		"format":      "csv",
		"filter":      map[string]any{"states": []string{"answer"}},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/csv; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), `filename="records.csv"`)
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	lines := strings.Split(strings.TrimSpace(body.String()), "\n")
	assert.Len(t, lines, 2)

	resp = postJSON(t, ts.URL+"/api/export/summary", map[string]any{"analysis_id": "an-1", "format": "xlsx"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	f, err := excelize.OpenReader(resp.Body)
	require.NoError(t, err)
	rows, err := f.GetRows("ANISummary")
	require.NoError(t, err)
	assert.Len(t, rows, 4)

	resp = postJSON(t, ts.URL+"/api/export/filtered", map[string]any{
		"analysis_id": "an-1",
		"format":      "txt",
		"tags":        []string{"INVALID"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	body.Reset()
	_, _ = body.ReadFrom(resp.Body)
	assert.Len(t, strings.Split(strings.TrimSpace(body.String()), "\n"), 4)
}

func TestExport_BadRequests(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	upload(t, ts, map[string]string{"a.csv": exportCSV})

	cases := []struct {
		path string
		body map[string]any
		want int
	}{
		{"/api/export/records", map[string]any{"analysis_id": "an-1", "format": "pdf"}, http.StatusBadRequest},
		{"/api/export/records", map[string]any{"format": "csv"}, http.StatusBadRequest},
		{"/api/export/records", map[string]any{"analysis_id": "missing"}, http.StatusNotFound},
		{"/api/export/filtered", map[string]any{"analysis_id": "an-1"}, http.StatusBadRequest},
		{"/api/export/filtered", map[string]any{"analysis_id": "an-1", "tags": []string{"GOLD"}}, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp := postJSON(t, ts.URL+tc.path, tc.body)
		assert.Equal(t, tc.want, resp.StatusCode, "%s %v", tc.path, tc.body)
	}
}

func TestDeleteAnalysis(t *testing.T) {
	ts, s := newTestServer(t, Options{})
	upload(t, ts, map[string]string{"a.csv": exportCSV})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/analysis/an-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	list, err := s.List(req.Context())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPrefixes(t *testing.T) {
	ts, _ := newTestServer(t, Options{})
	resp, err := http.Get(ts.URL + "/api/prefixes")
	require.NoError(t, err)
	defer resp.Body.Close()
	entries := decode[[]map[string]string](t, resp)
	require.NotEmpty(t, entries)
	assert.Equal(t, "11", entries[0]["prefix"])
}

func TestCORS(t *testing.T) {
	ts, _ := newTestServer(t, Options{CORSOrigins: []string{"https://dash.example.com"}})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/upload", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "https://dash.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}
