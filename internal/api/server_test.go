package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tana/tana/internal/config"
	"github.com/tana/tana/internal/testutil"
	"github.com/tana/tana/internal/websocket"
)

type testServer struct {
	*Server
	store  *config.Store
	source string
	dest   string
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	tdb := testutil.NewTestDB(t)
	t.Cleanup(tdb.Close)

	base := t.TempDir()
	source := filepath.Join(base, "incoming")
	dest := filepath.Join(base, "BD")
	testutil.MakeDirs(t, base, "incoming", "BD")

	cfg := config.Default()
	cfg.File = filepath.Join(base, "config.yaml")
	cfg.Library.SourceDir = source
	cfg.Library.Destinations = []string{dest}
	cfg.Library.Watch = false

	store := config.NewStore(cfg, tdb.Logger)
	hub := websocket.NewHub(tdb.Logger)

	server, err := NewServer(tdb.Conn, hub, store, nil, tdb.Logger)
	require.NoError(t, err)

	return &testServer{Server: server, store: store, source: source, dest: dest}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealthCheck(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestListFiles(t *testing.T) {
	ts := setupTestServer(t)
	testutil.MakeDirs(t, ts.dest, "Blacksad")
	testutil.WriteFiles(t, ts.source, "Blacksad T01.cbz", "notes.txt", ".trash/old.cbz")

	rec := ts.do(t, http.MethodGet, "/api/v1/files", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Source string `json:"source"`
		Files  []struct {
			Name        string `json:"name"`
			Tome        *int   `json:"tome"`
			SeriesMatch *struct {
				Name string `json:"name"`
			} `json:"seriesMatch"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, ts.source, body.Source)
	require.Len(t, body.Files, 1)
	assert.Equal(t, "Blacksad T01.cbz", body.Files[0].Name)
	require.NotNil(t, body.Files[0].Tome)
	assert.Equal(t, 1, *body.Files[0].Tome)
	require.NotNil(t, body.Files[0].SeriesMatch)
	assert.Equal(t, "Blacksad", body.Files[0].SeriesMatch.Name)
}

func TestDetect(t *testing.T) {
	ts := setupTestServer(t)
	testutil.MakeDirs(t, ts.dest, "Naruto")

	rec := ts.do(t, http.MethodPost, "/api/v1/detect", map[string]string{"filename": "Naruto - Tome 12.cbz"})
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	assert.Equal(t, float64(12), body["tome"])
	assert.Equal(t, "Naruto", body["seriesGuess"])
	assert.Equal(t, float64(1), body["matchScore"])

	rec = ts.do(t, http.MethodPost, "/api/v1/detect", map[string]string{"filename": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDetectTome(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		filename string
		want     any
	}{
		{"One Piece T05.cbz", float64(5)},
		{"Vol.3 - Akira.cbr", float64(3)},
		{"Le Petit Prince.cbz", nil},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			rec := ts.do(t, http.MethodPost, "/api/v1/detect-tome", map[string]string{"filename": tt.filename})
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.want, decode[map[string]any](t, rec)["tome"])
		})
	}
}

func TestSeriesSearch(t *testing.T) {
	ts := setupTestServer(t)
	testutil.MakeDirs(t, ts.dest, "Blacksad", "Blake et Mortimer", "Naruto")

	rec := ts.do(t, http.MethodGet, "/api/v1/series/search?q=bla", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Results []struct {
			Name string `json:"name"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Results, 2)
	assert.Equal(t, "Blacksad", body.Results[0].Name)

	rec = ts.do(t, http.MethodGet, "/api/v1/series", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decode[map[string]any](t, rec)["total"])

	rec = ts.do(t, http.MethodGet, "/api/v1/series/search?q=bla&limit=0", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestOrganize(t *testing.T) {
	ts := setupTestServer(t)
	testutil.WriteFiles(t, ts.source, "Naruto - Tome 12.cbz")

	tome := 12
	rec := ts.do(t, http.MethodPost, "/api/v1/organize", map[string]any{
		"seriesName":  "Naruto",
		"destination": ts.dest,
		"files":       []map[string]any{{"source": "Naruto - Tome 12.cbz", "tome": tome}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.FileExists(t, filepath.Join(ts.dest, "Naruto", "Naruto - T12.cbz"))
	assert.NoFileExists(t, filepath.Join(ts.source, "Naruto - Tome 12.cbz"))

	rec = ts.do(t, http.MethodGet, "/api/v1/history?action=organize", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["totalCount"])
}

func TestOrganize_Errors(t *testing.T) {
	ts := setupTestServer(t)
	testutil.WriteFiles(t, ts.source, "Blacksad T02.cbz")
	testutil.WriteFiles(t, ts.dest, "Blacksad/Blacksad - T01.cbz")

	t.Run("unknown destination", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/organize", map[string]any{
			"seriesName":  "Blacksad",
			"destination": "/somewhere/else",
			"files":       []map[string]any{{"source": "Blacksad T02.cbz"}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing series", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/organize", map[string]any{
			"destination": ts.dest,
			"files":       []map[string]any{{"source": "Blacksad T02.cbz"}},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "series name is required")
	})

	t.Run("existing folder warns", func(t *testing.T) {
		rec := ts.do(t, http.MethodPost, "/api/v1/organize", map[string]any{
			"seriesName":  "Blacksad",
			"destination": ts.dest,
			"files":       []map[string]any{{"source": "Blacksad T02.cbz"}},
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body := decode[map[string]any](t, rec)
		assert.NotEmpty(t, body["warning"])
		assert.Equal(t, []any{"Blacksad - T01.cbz"}, body["existingFiles"])
		assert.FileExists(t, filepath.Join(ts.source, "Blacksad T02.cbz"))
	})
}

func TestConvert(t *testing.T) {
	ts := setupTestServer(t)
	cbr := filepath.Join(ts.source, "Blacksad", "Blacksad T01.cbr")
	testutil.WriteStoredRAR(t, cbr, testutil.ArchivePage{Name: "001.jpg", Data: []byte("page")})

	rec := ts.do(t, http.MethodGet, "/api/v1/convert/scan", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	scan := decode[map[string]any](t, rec)
	assert.Equal(t, float64(1), scan["total"])

	rec = ts.do(t, http.MethodPost, "/api/v1/convert", map[string]any{
		"items":          []map[string]string{{"path": cbr}},
		"deleteOriginal": true,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["converted"])
	assert.FileExists(t, filepath.Join(ts.source, "Blacksad", "Blacksad T01.cbz"))
	assert.NoFileExists(t, cbr)

	rec = ts.do(t, http.MethodGet, "/api/v1/history?action=convert", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["totalCount"])
}

func TestConvert_Errors(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
	}{
		{"scan missing folder", http.MethodGet, "/api/v1/convert/scan?path=" + url.QueryEscape(filepath.Join(ts.source, "nope")), nil},
		{"no items", http.MethodPost, "/api/v1/convert", map[string]any{"items": []any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := ts.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestDeleteUndelete(t *testing.T) {
	ts := setupTestServer(t)
	testutil.WriteFiles(t, ts.source, "sub/Spirou T01.cbz")

	rec := ts.do(t, http.MethodPost, "/api/v1/files/delete", map[string]string{"filename": "sub/Spirou T01.cbz"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.FileExists(t, filepath.Join(ts.source, ".trash", "sub", "Spirou T01.cbz"))

	rec = ts.do(t, http.MethodPost, "/api/v1/files/undelete", map[string]string{"filename": "sub/Spirou T01.cbz"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.FileExists(t, filepath.Join(ts.source, "sub", "Spirou T01.cbz"))

	rec = ts.do(t, http.MethodPost, "/api/v1/files/delete", map[string]string{"filename": "../escape.cbz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPost, "/api/v1/files/undelete", map[string]string{"filename": "missing.cbz"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditAndFixNaming(t *testing.T) {
	ts := setupTestServer(t)
	testutil.WriteFiles(t, ts.dest, "Blacksad/Blacksad - T01.cbz", "Blacksad/blacksad 3.cbz")

	rec := ts.do(t, http.MethodGet, "/api/v1/audit", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report struct {
		Summary struct {
			TotalSeries            int `json:"totalSeries"`
			SeriesWithGaps         int `json:"seriesWithGaps"`
			SeriesWithNamingIssues int `json:"seriesWithNamingIssues"`
		} `json:"summary"`
		Series []struct {
			MissingTomes []int `json:"missingTomes"`
			NamingIssues []struct {
				Current  string `json:"current"`
				Expected string `json:"expected"`
			} `json:"namingIssues"`
		} `json:"series"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, 1, report.Summary.TotalSeries)
	assert.Equal(t, 1, report.Summary.SeriesWithGaps)
	require.Len(t, report.Series, 1)
	assert.Equal(t, []int{2}, report.Series[0].MissingTomes)
	require.Len(t, report.Series[0].NamingIssues, 1)
	assert.Equal(t, "Blacksad - T03.cbz", report.Series[0].NamingIssues[0].Expected)

	rec = ts.do(t, http.MethodPost, "/api/v1/audit/fix-naming", map[string]any{
		"fixes": []map[string]string{{
			"destination": ts.dest,
			"seriesName":  "Blacksad",
			"current":     "blacksad 3.cbz",
			"expected":    "Blacksad - T03.cbz",
		}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, float64(1), decode[map[string]any](t, rec)["fixed"])
	assert.FileExists(t, filepath.Join(ts.dest, "Blacksad", "Blacksad - T03.cbz"))

	rec = ts.do(t, http.MethodPost, "/api/v1/audit/fix-naming", map[string]any{"fixes": []any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuditExport(t *testing.T) {
	ts := setupTestServer(t)
	testutil.WriteFiles(t, ts.dest, "Blacksad/Blacksad - T01.cbz")

	rec := ts.do(t, http.MethodGet, "/api/v1/audit/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	// xlsx files are zip archives
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestTemplatePreview(t *testing.T) {
	ts := setupTestServer(t)

	tests := []struct {
		name  string
		body  string
		want  string
		valid bool
	}{
		{"defaults", `{}`, "One Piece - T05.cbz", true},
		{"null tome", `{"tome": null}`, "One Piece.cbz", true},
		{"custom", `{"template": "{series} {tome:03d} - {title}{ext}", "series": "Astérix", "tome": 7, "ext": ".cbr", "title": "Le Combat"}`, "Astérix 007 - Le Combat.cbr", true},
		{"missing ext", `{"template": "{series} - {tome}"}`, "One Piece - 5", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/template/preview", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			ts.ServeHTTP(rec, req)

			require.Equal(t, http.StatusOK, rec.Code)
			body := decode[map[string]any](t, rec)
			assert.Equal(t, tt.want, body["preview"])
			assert.Equal(t, tt.valid, body["valid"])
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/template/preview", bytes.NewBufferString(`{"tome": "five"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	ts.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfig(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, ts.source, body["sourceDir"])
	assert.Equal(t, "30s", body["cacheTtl"])

	rec = ts.do(t, http.MethodPut, "/api/v1/config", map[string]any{
		"sourceDir":    ts.source,
		"destinations": []string{" "},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = ts.do(t, http.MethodPut, "/api/v1/config", map[string]any{
		"sourceDir":    ts.source,
		"destinations": []string{ts.dest},
		"template":     "{series}",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	manga := filepath.Join(filepath.Dir(ts.dest), "Manga")
	rec = ts.do(t, http.MethodPut, "/api/v1/config", map[string]any{
		"sourceDir":    ts.source,
		"destinations": []string{ts.dest, manga},
		"templateRules": []map[string]string{
			{"filter": "Manga", "template": "{series} v{tome:03d}{ext}"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{ts.dest, manga}, ts.store.Destinations())

	_, err := os.Stat(ts.store.Config().File)
	assert.NoError(t, err)
}

func TestSystemRoutes(t *testing.T) {
	ts := setupTestServer(t)

	rec := ts.do(t, http.MethodGet, "/api/v1/system/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, config.Version, body["version"])
	assert.Equal(t, float64(1), body["destinations"])

	rec = ts.do(t, http.MethodGet, "/api/v1/system/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tasks := decode[[]map[string]any](t, rec)
	require.Len(t, tasks, 2)
	assert.Equal(t, "catalog-refresh", tasks[0]["id"])
	assert.Equal(t, "library-audit", tasks[1]["id"])

	rec = ts.do(t, http.MethodPost, "/api/v1/system/tasks/nope/run", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(t, http.MethodGet, "/api/v1/system/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = ts.do(t, http.MethodGet, "/api/v1/system/logs/download", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
