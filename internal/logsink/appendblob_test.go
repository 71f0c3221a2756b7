package logsink

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAppender struct {
	mu     sync.Mutex
	blocks [][]byte
}

func (f *fakeAppender) AppendBlock(_ context.Context, body io.ReadSeekCloser, _ *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return appendblob.AppendBlockResponse{}, err
	}
	f.mu.Lock()
	f.blocks = append(f.blocks, b)
	f.mu.Unlock()
	return appendblob.AppendBlockResponse{}, nil
}

func (f *fakeAppender) lines(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, b := range f.blocks {
		sc := bufio.NewScanner(bytes.NewReader(b))
		for sc.Scan() {
			var m map[string]any
			require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
			out = append(out, m)
		}
	}
	return out
}

func TestHandlerFlushesOnClose(t *testing.T) {
	fa := &fakeAppender{}
	h := newHandler(fa, slog.LevelInfo, time.Hour)
	logger := slog.New(h).With("service", "suvai")

	logger.Debug("hidden")
	logger.Info("order created", "order_id", "order-1", "error", errors.New("boom"))
	logger.WithGroup("cart").Warn("committed", "items", 2, slog.Group("totals", "final", "102.00"))
	require.NoError(t, h.Close())

	lines := fa.lines(t)
	require.Len(t, lines, 2)
	assert.Equal(t, "order created", lines[0]["msg"])
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "order-1", lines[0]["order_id"])
	assert.Equal(t, "boom", lines[0]["error"])
	assert.Equal(t, "suvai", lines[0]["service"])

	cartGroup, ok := lines[1]["cart"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(2), cartGroup["items"])
	assert.Equal(t, map[string]any{"final": "102.00"}, cartGroup["totals"])
}

func TestHandlerDropsAfterClose(t *testing.T) {
	h := newHandler(&fakeAppender{}, nil, time.Hour)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	slog.New(h).Info("late")
	assert.Equal(t, int64(1), h.Dropped())
}

func TestBlobName(t *testing.T) {
	ts := time.Date(2026, time.March, 7, 23, 0, 0, 0, time.FixedZone("IST", 5*3600+1800))
	assert.Equal(t, "2026/03/07/web-1.jsonl", BlobName(ts, "web-1"))
}
