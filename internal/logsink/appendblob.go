// Package logsink ships JSON log lines to an Azure append blob.
package logsink

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/appendblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"

	"suvai/internal/config"
)

const (
	flushEvery = 2 * time.Second
	queueSize  = 1024
	// an append block holds at most 4 MiB
	maxBlock = 4 << 20
)

type appender interface {
	AppendBlock(ctx context.Context, body io.ReadSeekCloser, o *appendblob.AppendBlockOptions) (appendblob.AppendBlockResponse, error)
}

// sink is shared by a Handler and every handler derived from it.
type sink struct {
	ab      appender
	ch      chan []byte
	done    chan struct{}
	mu      sync.Mutex
	closed  bool
	dropped int64
}

type Handler struct {
	*sink
	level slog.Leveler
	attrs []slog.Attr
	group string
}

// BlobName is the daily blob a host appends to: YYYY/MM/DD/<host>.jsonl.
func BlobName(now time.Time, host string) string {
	now = now.UTC()
	return fmt.Sprintf("%d/%02d/%02d/%s.jsonl", now.Year(), now.Month(), now.Day(), host)
}

// New creates (if needed) today's append blob and starts the flush loop.
func New(ctx context.Context, cfg config.LogSinkConfig, level slog.Leveler) (*Handler, error) {
	if !cfg.Enabled() {
		return nil, errors.New("logsink account name, key and container are required")
	}
	host, _ := os.Hostname()
	if host == "" {
		host = "suvai"
	}

	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	// blob names may contain slashes; only the container is escaped
	blobURL := "https://" + cfg.AccountName + ".blob.core.windows.net/" +
		url.PathEscape(cfg.Container) + "/" + BlobName(time.Now(), host)

	ab, err := appendblob.NewClientWithSharedKeyCredential(blobURL, cred, nil)
	if err != nil {
		return nil, err
	}
	etagAny := azcore.ETagAny
	_, err = ab.Create(ctx, &appendblob.CreateOptions{
		AccessConditions: &blob.AccessConditions{
			ModifiedAccessConditions: &blob.ModifiedAccessConditions{IfNoneMatch: &etagAny},
		},
	})
	if err != nil && !bloberror.HasCode(err, bloberror.BlobAlreadyExists, bloberror.ConditionNotMet) {
		return nil, fmt.Errorf("create log blob: %w", err)
	}
	return newHandler(ab, level, flushEvery), nil
}

func newHandler(ab appender, level slog.Leveler, every time.Duration) *Handler {
	if level == nil {
		level = slog.LevelInfo
	}
	s := &sink{
		ab:   ab,
		ch:   make(chan []byte, queueSize),
		done: make(chan struct{}),
	}
	go s.loop(every)
	return &Handler{sink: s, level: level}
}

// Close flushes whatever is queued. Records handled after Close are dropped.
func (s *sink) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
	<-s.done
	return nil
}

// Dropped reports records lost to a full queue or a closed handler.
func (s *sink) Dropped() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

func (s *sink) enqueue(line []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.dropped++
		return
	}
	select {
	case s.ch <- line:
	default:
		// never block the caller on a slow blob
		s.dropped++
	}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	ts := r.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	ev := map[string]any{
		"ts":    ts.UTC().Format(time.RFC3339Nano),
		"level": r.Level.String(),
		"msg":   r.Message,
	}
	fields := ev
	if h.group != "" {
		fields = map[string]any{}
		ev[h.group] = fields
	}
	for _, a := range h.attrs {
		addAttr(fields, a)
	}
	r.Attrs(func(a slog.Attr) bool {
		addAttr(fields, a)
		return true
	})

	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(ev); err != nil {
		return err
	}
	h.enqueue(b.Bytes())
	return nil
}

func addAttr(m map[string]any, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() != slog.KindGroup {
		if err, ok := a.Value.Any().(error); ok {
			m[a.Key] = err.Error()
			return
		}
		m[a.Key] = a.Value.Any()
		return
	}
	sub := m
	if a.Key != "" {
		sub = map[string]any{}
		m[a.Key] = sub
	}
	for _, ga := range a.Value.Group() {
		addAttr(sub, ga)
	}
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	c := *h
	c.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &c
}

// WithGroup nests later attributes under name. Only one level is kept.
func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.group = name
	return &c
}

func (s *sink) loop(every time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	var buf []byte
	flush := func() {
		if len(buf) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := s.ab.AppendBlock(ctx, readSeekNopCloser{bytes.NewReader(buf)}, nil); err != nil {
			fmt.Fprintf(os.Stderr, "logsink: append failed, %d bytes lost: %v\n", len(buf), err)
		}
		buf = buf[:0]
	}

	for {
		select {
		case line, ok := <-s.ch:
			if !ok {
				flush()
				return
			}
			if len(buf)+len(line) > maxBlock {
				flush()
			}
			buf = append(buf, line...)
		case <-ticker.C:
			flush()
		}
	}
}

type readSeekNopCloser struct{ io.ReadSeeker }

func (r readSeekNopCloser) Close() error { return nil }
