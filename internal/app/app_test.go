package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/law-makers/marches/internal/config"
	"github.com/law-makers/marches/internal/proxy"
	"github.com/law-makers/marches/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultPage = `<html><body>
<div class="entreprise__card">
	<a class="font-bold table__links">Référence : 15/2024/BC</a>
	<div data-bs-toggle="tooltip">Objet : Fournitures de bureau</div>
	<div><span>Date de publication du résultat :</span> 07/03/2024 09:15</div>
</div>
</body></html>`

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()

	cfg := config.Defaults()
	cfg.BaseURL = baseURL
	cfg.MinDelay, cfg.MaxDelay = 0, 0
	cfg.MinBackoff, cfg.MaxBackoff = 0, 0
	cfg.MaxPage = 2
	cfg.Workers = 2
	cfg.Quiet = true
	cfg.LogLevel = "error"
	cfg.DatasetPath = filepath.Join(dir, "donnees_marches.json")
	cfg.FailedPagesPath = filepath.Join(dir, "pages_non_traitees.json")
	return cfg
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(context.Background(), nil)
	assert.Error(t, err)
}

func TestApplication_DailyPipeline(t *testing.T) {
	var userAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			userAgent.Store(r.Header.Get("User-Agent"))
			w.Write([]byte(resultPage))
			return
		}
		w.Write([]byte("<html><body></body></html>"))
	}))
	defer server.Close()

	a, err := New(context.Background(), testConfig(t, server.URL))
	require.NoError(t, err)
	defer a.Close(context.Background())

	a.Now = func() time.Time { return time.Date(2024, time.March, 7, 18, 0, 0, 0, time.Local) }
	assert.Equal(t, "07/03/2024", a.Today())

	pages := a.Pages(models.ModeDaily)
	assert.Equal(t, []int{1, 2}, pages)

	summary, err := a.Pipeline(models.ModeDaily, len(pages)).Run(context.Background(), pages)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Accepted)
	assert.Equal(t, config.DefaultUserAgent, userAgent.Load())

	content, err := os.ReadFile(a.Store.DatasetPath())
	require.NoError(t, err)

	var dataset []models.Record
	require.NoError(t, json.Unmarshal(content, &dataset))
	require.Len(t, dataset, 1)
	assert.Equal(t, "15/2024/BC", *dataset[0].Reference)
	assert.Equal(t, "07/03/2024 09:15", *dataset[0].PublicationDate)
}

func TestSetupLogging(t *testing.T) {
	var buf bytes.Buffer

	cfg := config.Defaults()
	cfg.JSONLog = true
	cfg.LogLevel = "warn"

	logger := SetupLogging(cfg, &buf)
	logger.Info().Msg("hidden")
	logger.Warn().Str("page", "3").Msg("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"message":"shown"`)
	assert.Contains(t, out, `"page":"3"`)
}

func TestNew_InvalidProxy(t *testing.T) {
	cfg := testConfig(t, "https://example.org/resultat")
	cfg.Proxies = []string{"ftp://nowhere:21"}

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_ProxyTransport(t *testing.T) {
	cfg := testConfig(t, "https://example.org/resultat")
	cfg.Proxies = []string{"http://127.0.0.1:3128"}

	a, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.IsType(t, &proxy.Transport{}, a.HTTPClient.Transport)
}
