package preview

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitebuild/internal/metrics"
	"git.home.luguber.info/inful/sitebuild/internal/testutil"
)

func get(t *testing.T, srv *httptest.Server, path string) (int, string) {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestServer_ServesOutputTree(t *testing.T) {
	out := t.TempDir()
	testutil.WriteTree(t, out, map[string]string{
		"index.html":       "<html>home</html>",
		"about/index.html": "<html>about</html>",
		"style.css":        "body{}",
	})

	srv := httptest.NewServer(NewServer(out, nil, nil, nil))
	defer srv.Close()

	code, body := get(t, srv, "/")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "<html>home</html>", body)

	code, body = get(t, srv, "/about/")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "<html>about</html>", body)

	code, _ = get(t, srv, "/missing.html")
	require.Equal(t, http.StatusNotFound, code)
}

func TestServer_Health(t *testing.T) {
	status := &BuildStatus{}
	srv := httptest.NewServer(NewServer(t.TempDir(), status, nil, nil))
	defer srv.Close()

	status.record(nil)
	code, body := get(t, srv, "/health")
	require.Equal(t, http.StatusOK, code)
	var snap StatusSnapshot
	require.NoError(t, json.Unmarshal([]byte(body), &snap))
	require.Equal(t, 1, snap.Builds)
	require.True(t, snap.HasGoodBuild)

	status.record(errors.New("page processing failed"))
	code, body = get(t, srv, "/health")
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Contains(t, body, "page processing failed")
}

func TestServer_Metrics(t *testing.T) {
	reg := prom.NewRegistry()
	metrics.NewPrometheusRecorder(reg).AddPagesProcessed(7)

	srv := httptest.NewServer(NewServer(t.TempDir(), nil, reg, nil))
	defer srv.Close()

	code, body := get(t, srv, "/metrics")
	require.Equal(t, http.StatusOK, code)
	require.Contains(t, body, "sitebuild_pages_processed_total 7")
}
