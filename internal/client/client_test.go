package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpattn/trackgrid/internal/domain"
)

func TestFetchReportPostsReportDate(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data": [{"project_name": "Mine A", "months": [{"label": "OCT", "phase": "Early"}]}]}`))
	}))
	defer server.Close()

	c, err := New(server.URL + "/api/v1")
	require.NoError(t, err)

	def := domain.ScreenDefinition{Name: "resource-forecast", Source: domain.SourceSpec{Kind: domain.SourceReport, ReportType: "resource_forecast"}}
	result, err := c.Fetch(context.Background(), def, domain.FetchParams{ReportDate: "2026-10-14"})
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/api/v1/reports/resource_forecast", gotPath)
	assert.Equal(t, "2026-10-14", gotBody["report_date"])
	assert.Equal(t, http.StatusOK, result.StatusCode)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "Early", result.Records[0].Lookup(domain.ParseFieldPath("months.0.phase")).TextOrEmpty())
}

func TestFetchListReadsArrayWithQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/insights/works", r.URL.Path)
		assert.Equal(t, "false", r.URL.Query().Get("is_active"))
		_, _ = w.Write([]byte(`[{"title": "Work 1", "project": {"name": "P"}}, {"title": "Work 2", "project": null}]`))
	}))
	defer server.Close()

	c, err := New(server.URL + "/api/v1/")
	require.NoError(t, err)

	def := domain.ScreenDefinition{Name: "work-listing", Source: domain.SourceSpec{Kind: domain.SourceList, Path: "/insights/works"}}
	result, err := c.Fetch(context.Background(), def, domain.FetchParams{Query: map[string]string{"is_active": "false"}})
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.True(t, result.Records[1].Lookup(domain.ParseFieldPath("project.name")).IsAbsent())
}

func TestFetchReturnsNonOKStatusWithoutError(t *testing.T) {
	for _, code := range []int{http.StatusNoContent, http.StatusBadGateway} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))
		c, err := New(server.URL)
		require.NoError(t, err)

		result, err := c.FetchList(context.Background(), "works", nil)
		require.NoError(t, err)
		assert.Equal(t, code, result.StatusCode)
		assert.Empty(t, result.Records)
		server.Close()
	}
}

func TestFetchTransportAndDecodeErrors(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()
	c, err := New(slow.URL, WithTimeout(20*time.Millisecond))
	require.NoError(t, err)
	_, err = c.FetchList(context.Background(), "works", nil)
	assert.Error(t, err)

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": "nope"}`))
	}))
	defer garbage.Close()
	c, err = New(garbage.URL)
	require.NoError(t, err)
	_, err = c.FetchList(context.Background(), "works", nil)
	assert.Error(t, err)
}

func TestNewValidatesBaseURL(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
	_, err = New("ftp://example.com")
	assert.Error(t, err)

	c, err := New("http://example.com/api")
	require.NoError(t, err)
	_, err = c.Fetch(context.Background(), domain.ScreenDefinition{Source: domain.SourceSpec{Kind: domain.SourceFile}}, domain.FetchParams{})
	assert.Error(t, err)
}

func TestTimeoutOptionLeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}

	for name, opts := range map[string][]Option{
		"timeout first": {WithTimeout(5 * time.Second), WithHTTPClient(shared)},
		"client first":  {WithHTTPClient(shared), WithTimeout(5 * time.Second)},
	} {
		c, err := New("http://example.com/api", opts...)
		require.NoError(t, err, name)
		assert.Equal(t, 5*time.Second, c.httpClient.Timeout, name)
		assert.NotSame(t, shared, c.httpClient, name)
	}
	assert.Equal(t, time.Minute, shared.Timeout)

	c, err := New("http://example.com/api", WithHTTPClient(shared))
	require.NoError(t, err)
	assert.Same(t, shared, c.httpClient, "without a timeout the client is used as given")
}
