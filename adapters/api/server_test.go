package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"covary/adapters/stats/engine"
	"covary/app"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(app.NewAnalysisService(engine.DefaultOptions()), nil)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestTestCatalogEndpoint(t *testing.T) {
	server := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tests", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var catalog []map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &catalog))
	require.Len(t, catalog, 4)

	kinds := make(map[string]bool)
	for _, entry := range catalog {
		kinds[entry["kind"]] = true
	}
	require.True(t, kinds["chi_square"])
	require.True(t, kinds["spearman"])
	require.True(t, kinds["pearson"])
	require.True(t, kinds["kruskal_wallis"])
}

func uploadRequest(t *testing.T, target, filename, content string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestAnalyzeEndpointJSON(t *testing.T) {
	server := newTestServer(t)
	csvData := "rank,team,weight\n1,red,1.5\n2,blue,2.5\n3,red,3.5\n1,blue,1.2\n2,red,2.2\n3,blue,3.2\n"

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, uploadRequest(t, "/analyze", "data.csv", csvData))

	require.Equal(t, http.StatusOK, rec.Code)

	var summary app.SweepSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	require.Len(t, summary.Results, 3)
	require.Len(t, summary.Profiles, 3)
}

func TestAnalyzeEndpointHTML(t *testing.T) {
	server := newTestServer(t)
	csvData := "a,b\n1,2\n2,3\n3,4\n4,5\n"

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, uploadRequest(t, "/analyze?format=html", "data.csv", csvData))

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	require.Contains(t, rec.Body.String(), "<table>")
}

func TestAnalyzeEndpointRejectsMissingFile(t *testing.T) {
	server := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	require.NoError(t, writer.WriteField("unrelated", "x"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/analyze", &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpointRejectsGarbage(t *testing.T) {
	server := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, uploadRequest(t, "/analyze", "data.csv", "only-a-header\n"))

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Structured input failures carry a machine-readable code.
	var payload map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	require.Equal(t, "INPUT_ERROR", payload["code"])
	require.NotEmpty(t, payload["error"])
}

func TestSweepEndpointsWithoutRepository(t *testing.T) {
	server := newTestServer(t)

	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sweeps", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
