package logs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	blobs    map[string]string
	listed   []string
	listErr  error
	openErrs map[string]error
}

func (f *fakeSource) names(_ context.Context, prefix string) ([]string, error) {
	f.listed = append(f.listed, prefix)
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []string
	for name := range f.blobs {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out, nil
}

func (f *fakeSource) open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := f.openErrs[name]; err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(f.blobs[name])), nil
}

func TestDatePrefixes(t *testing.T) {
	since := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, []string{"2024/01/15/"}, datePrefixes(since, since.Add(4*time.Hour)))
	assert.Equal(t, []string{"2024/01/15/", "2024/01/16/", "2024/01/17/"}, datePrefixes(since, since.Add(52*time.Hour)))
}

func TestRecentFiltersWindowAndLevel(t *testing.T) {
	now := time.Date(2024, 1, 16, 2, 0, 0, 0, time.UTC)
	src := &fakeSource{
		blobs: map[string]string{
			"2024/01/15/web-1.jsonl": `{"ts":"2024-01-15T10:00:00Z","level":"INFO","msg":"too old"}
{"ts":"2024-01-15T23:30:00Z","level":"ERROR","msg":"checkout failed","user_id":"u1"}
not json
`,
			"2024/01/16/web-1.jsonl": `{"ts":"2024-01-16T01:00:00Z","level":"INFO","msg":"request"}
{"ts":"2024-01-16T01:30:00Z","level":"WARN","msg":"slow"}
`,
			"2024/01/16/web-2.jsonl": "",
		},
		openErrs: map[string]error{"2024/01/16/web-2.jsonl": errors.New("gone")},
	}
	r := newReader(src)
	r.now = func() time.Time { return now }

	got, err := r.Recent(context.Background(), 6*time.Hour, slog.LevelWarn)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "checkout failed", got[0].Msg)
	assert.Equal(t, map[string]any{"user_id": "u1"}, got[0].Fields)
	assert.Equal(t, "slow", got[1].Msg)
	assert.Equal(t, []string{"2024/01/15/", "2024/01/16/"}, src.listed)
}

func TestRecentListError(t *testing.T) {
	r := newReader(&fakeSource{listErr: errors.New("denied")})
	_, err := r.Recent(context.Background(), time.Hour, slog.LevelInfo)
	assert.ErrorContains(t, err, "denied")
}

func TestHandler(t *testing.T) {
	mux := http.NewServeMux()
	NewHandler(nil).Register(mux)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/logs", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	now := time.Now().UTC()
	line := `{"ts":"` + now.Add(-time.Minute).Format(time.RFC3339Nano) + `","level":"INFO","msg":"hello"}`
	r := newReader(&fakeSource{blobs: map[string]string{now.Format("2006/01/02") + "/web.jsonl": line}})

	mux = http.NewServeMux()
	NewHandler(r).Register(mux)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/logs?hours=1", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var got []map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0]["msg"])

	for _, q := range []string{"hours=0", "hours=500", "level=LOUD"} {
		rr = httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/admin/logs?"+q, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}
