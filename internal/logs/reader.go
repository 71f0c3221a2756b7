// Package logs reads back the JSON lines logsink appends to blob storage.
package logs

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"

	"suvai/internal/config"
)

type Entry struct {
	Time   time.Time      `json:"ts"`
	Level  string         `json:"level"`
	Msg    string         `json:"msg"`
	Fields map[string]any `json:"fields,omitempty"`
}

// UnmarshalJSON keeps every attribute other than ts, level and msg in Fields.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	if ts, ok := all["ts"].(string); ok {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return fmt.Errorf("invalid ts %q: %w", ts, err)
		}
		e.Time = t
	}
	e.Level, _ = all["level"].(string)
	e.Msg, _ = all["msg"].(string)
	delete(all, "ts")
	delete(all, "level")
	delete(all, "msg")
	if len(all) > 0 {
		e.Fields = all
	}
	return nil
}

type blobSource interface {
	names(ctx context.Context, prefix string) ([]string, error)
	open(ctx context.Context, name string) (io.ReadCloser, error)
}

type Reader struct {
	src blobSource
	now func() time.Time
}

func NewReader(cfg config.LogSinkConfig) (*Reader, error) {
	if !cfg.Enabled() {
		return nil, errors.New("logsink account name, key and container are required")
	}
	cred, err := azblob.NewSharedKeyCredential(cfg.AccountName, cfg.AccountKey)
	if err != nil {
		return nil, err
	}
	serviceURL := fmt.Sprintf("https://%s.blob.core.windows.net/", cfg.AccountName)
	client, err := azblob.NewClientWithSharedKeyCredential(serviceURL, cred, nil)
	if err != nil {
		return nil, err
	}
	return newReader(azureSource{client.ServiceClient().NewContainerClient(cfg.Container)}), nil
}

func newReader(src blobSource) *Reader {
	return &Reader{src: src, now: time.Now}
}

// Recent returns entries from the last window at or above minLevel, oldest first.
func (r *Reader) Recent(ctx context.Context, window time.Duration, minLevel slog.Level) ([]Entry, error) {
	now := r.now()
	since := now.Add(-window)
	var out []Entry
	for _, prefix := range datePrefixes(since, now) {
		names, err := r.src.names(ctx, prefix)
		if err != nil {
			return nil, fmt.Errorf("failed to list logs under %s: %w", prefix, err)
		}
		for _, name := range names {
			entries, err := r.read(ctx, name, since, minLevel)
			if err != nil {
				slog.WarnContext(ctx, "skipping unreadable log blob", "blob", name, "error", err)
				continue
			}
			out = append(out, entries...)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (r *Reader) read(ctx context.Context, name string, since time.Time, minLevel slog.Level) ([]Entry, error) {
	body, err := r.src.open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = body.Close() }()
	return parse(body, since, minLevel)
}

func parse(rd io.Reader, since time.Time, minLevel slog.Level) ([]Entry, error) {
	var out []Entry
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			continue
		}
		if !e.Time.IsZero() && e.Time.Before(since) {
			continue
		}
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(e.Level)); err == nil && lvl < minLevel {
			continue
		}
		out = append(out, e)
	}
	return out, scanner.Err()
}

// datePrefixes lists the YYYY/MM/DD/ folders covering [since, until].
func datePrefixes(since, until time.Time) []string {
	var prefixes []string
	day := since.UTC().Truncate(24 * time.Hour)
	end := until.UTC().Truncate(24 * time.Hour)
	for !day.After(end) {
		prefixes = append(prefixes, day.Format("2006/01/02")+"/")
		day = day.Add(24 * time.Hour)
	}
	return prefixes
}

type azureSource struct {
	c *container.Client
}

func (a azureSource) names(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	pager := a.c.NewListBlobsFlatPager(&container.ListBlobsFlatOptions{Prefix: &prefix})
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Segment.BlobItems {
			if item.Name != nil && strings.HasSuffix(*item.Name, ".jsonl") {
				names = append(names, *item.Name)
			}
		}
	}
	return names, nil
}

func (a azureSource) open(ctx context.Context, name string) (io.ReadCloser, error) {
	resp, err := a.c.NewBlobClient(name).DownloadStream(ctx, nil)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
