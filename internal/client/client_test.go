package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/bionicotaku/lingo-services-journal/internal/models/vo"
)

func writeTempMedia(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "recording.wav")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp media: %v", err)
	}
	return path
}

func TestClientUploadMultipart(t *testing.T) {
	var gotMediaType, gotDuration string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/journal/entries" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotMediaType = r.FormValue("media_type")
		gotDuration = r.FormValue("duration_seconds")
		file, _, err := r.FormFile("media")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		buf := make([]byte, 64)
		n, _ := file.Read(buf)
		gotBody = buf[:n]

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(entryEnvelope{Entry: &vo.JournalEntry{
			EntryID:         "6a0f8e9e-6f5a-4c59-9d3a-6f1f2b3c4d5e",
			MediaType:       "audio",
			DurationSeconds: 42,
			EntryDate:       "2026-08-26",
		}})
	}))
	defer srv.Close()

	c, err := New(srv.URL)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	entry, err := c.Upload(context.Background(), UploadInput{
		Path:            writeTempMedia(t, "RIFFmedia"),
		MediaType:       "audio",
		ContentType:     "audio/wav",
		DurationSeconds: 42,
	})
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if entry.EntryID == "" || entry.DurationSeconds != 42 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if gotMediaType != "audio" || gotDuration != "42" {
		t.Fatalf("form fields: media_type=%q duration=%q", gotMediaType, gotDuration)
	}
	if string(gotBody) != "RIFFmedia" {
		t.Fatalf("media content mismatch: %q", gotBody)
	}
}

func TestClientUploadRejectsEmptyFile(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, err := c.Upload(context.Background(), UploadInput{
		Path:      writeTempMedia(t, ""),
		MediaType: "audio",
	})
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
	if requests != 0 {
		t.Fatalf("empty file must be rejected locally, server saw %d requests", requests)
	}
}

func TestClientUploadServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(apiError{Code: 500, Reason: "UPLOAD_FAILED", Message: "bucket unavailable"})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	_, err := c.Upload(context.Background(), UploadInput{
		Path:      writeTempMedia(t, "data"),
		MediaType: "audio",
	})
	if !errors.Is(err, ErrUploadFailed) {
		t.Fatalf("expected ErrUploadFailed, got %v", err)
	}
}

func TestClientDelete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("unexpected method: %s", r.Method)
		}
		switch r.URL.Path {
		case "/v1/journal/entries/known":
			w.WriteHeader(http.StatusNoContent)
		case "/v1/journal/entries/missing":
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(apiError{Code: 404, Reason: "ENTRY_NOT_FOUND"})
		default:
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(apiError{Code: 500, Reason: "DELETE_FAILED"})
		}
	}))
	defer srv.Close()

	c, _ := New(srv.URL)
	if err := c.Delete(context.Background(), "known"); err != nil {
		t.Fatalf("delete known: %v", err)
	}
	if err := c.Delete(context.Background(), "missing"); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("delete missing: %v", err)
	}
	if err := c.Delete(context.Background(), "broken"); !errors.Is(err, ErrDeleteFailed) {
		t.Fatalf("delete broken: %v", err)
	}
}

// fixtureServer 伪造 45 条按时间降序的条目，支持 limit/offset 分页与删除。
func fixtureServer(t *testing.T, total int) (*httptest.Server, *int) {
	t.Helper()
	entries := make([]*vo.JournalEntry, 0, total)
	for i := 0; i < total; i++ {
		entries = append(entries, &vo.JournalEntry{
			EntryID:   fmt.Sprintf("entry-%03d", i),
			MediaType: "audio",
			EntryDate: fmt.Sprintf("2026-%02d-%02d", 1+i/28, 1+i%28),
		})
	}
	listCalls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listCalls++
			limit, offset := 20, 0
			fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)
			fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
			end := offset + limit
			if offset > len(entries) {
				offset = len(entries)
			}
			if end > len(entries) {
				end = len(entries)
			}
			json.NewEncoder(w).Encode(listEnvelope{
				Entries: entries[offset:end],
				HasMore: end < len(entries),
			})
		case http.MethodDelete:
			id := filepath.Base(r.URL.Path)
			for i, e := range entries {
				if e.EntryID == id {
					entries = append(entries[:i], entries[i+1:]...)
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv, &listCalls
}

func TestClientListInfersHasMoreFromFullPage(t *testing.T) {
	// 服务端响应里没有 has_more 字段时按页大小推断：整页 → 继续翻页，
	// 不足一页 → 末页。
	entries := make([]*vo.JournalEntry, 45)
	for i := range entries {
		entries[i] = &vo.JournalEntry{EntryID: fmt.Sprintf("entry-%03d", i), MediaType: "audio"}
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, offset := 20, 0
		fmt.Sscanf(r.URL.Query().Get("limit"), "%d", &limit)
		fmt.Sscanf(r.URL.Query().Get("offset"), "%d", &offset)
		end := offset + limit
		if offset > len(entries) {
			offset = len(entries)
		}
		if end > len(entries) {
			end = len(entries)
		}
		json.NewEncoder(w).Encode(map[string]any{"entries": entries[offset:end]})
	}))
	defer srv.Close()

	c, _ := New(srv.URL)

	page, hasMore, err := c.List(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("List page 1: %v", err)
	}
	if len(page) != 20 || !hasMore {
		t.Fatalf("full page must imply more: len=%d hasMore=%v", len(page), hasMore)
	}

	page, hasMore, err = c.List(context.Background(), 20, 40)
	if err != nil {
		t.Fatalf("List page 3: %v", err)
	}
	if len(page) != 5 || hasMore {
		t.Fatalf("short page must end the feed: len=%d hasMore=%v", len(page), hasMore)
	}

	page, hasMore, err = c.List(context.Background(), 20, 45)
	if err != nil {
		t.Fatalf("List past end: %v", err)
	}
	if len(page) != 0 || hasMore {
		t.Fatalf("empty page must end the feed: len=%d hasMore=%v", len(page), hasMore)
	}
}

func TestEntryFeedPagination(t *testing.T) {
	srv, listCalls := fixtureServer(t, 45)
	defer srv.Close()

	c, _ := New(srv.URL)
	feed := NewEntryFeed(c)

	// 45 条 → 20 / 20 / 5 三页。
	if err := feed.LoadMore(context.Background()); err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if got := len(feed.Entries()); got != 20 {
		t.Fatalf("after page 1: %d entries", got)
	}
	if !feed.HasMore() {
		t.Fatal("expected more pages after page 1")
	}

	if err := feed.LoadMore(context.Background()); err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if got := len(feed.Entries()); got != 40 {
		t.Fatalf("after page 2: %d entries", got)
	}

	if err := feed.LoadMore(context.Background()); err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if got := len(feed.Entries()); got != 45 {
		t.Fatalf("after page 3: %d entries", got)
	}
	if feed.HasMore() {
		t.Fatal("no more pages expected after 45 entries")
	}

	// 没有更多页时 LoadMore 是空操作，不发请求。
	before := *listCalls
	if err := feed.LoadMore(context.Background()); err != nil {
		t.Fatalf("no-op LoadMore: %v", err)
	}
	if *listCalls != before {
		t.Fatalf("LoadMore hit server despite hasMore=false")
	}

	// 去重：三页无重复条目。
	seen := make(map[string]bool)
	for _, e := range feed.Entries() {
		if seen[e.EntryID] {
			t.Fatalf("duplicate entry across pages: %s", e.EntryID)
		}
		seen[e.EntryID] = true
	}
}

func TestEntryFeedLoadMoreWhileLoading(t *testing.T) {
	srv, listCalls := fixtureServer(t, 5)
	defer srv.Close()

	c, _ := New(srv.URL)
	feed := NewEntryFeed(c)
	feed.loading = true
	if err := feed.LoadMore(context.Background()); err != nil {
		t.Fatalf("LoadMore: %v", err)
	}
	if *listCalls != 0 {
		t.Fatal("LoadMore must be a no-op while a load is in flight")
	}
}

func TestEntryFeedDeleteConfirmedRemoval(t *testing.T) {
	srv, _ := fixtureServer(t, 3)
	defer srv.Close()

	c, _ := New(srv.URL)
	feed := NewEntryFeed(c)
	if err := feed.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	target := feed.Entries()[1].EntryID
	if err := feed.Delete(context.Background(), target); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	for _, e := range feed.Entries() {
		if e.EntryID == target {
			t.Fatal("entry still present after confirmed delete")
		}
	}
	if got := len(feed.Entries()); got != 2 {
		t.Fatalf("feed size after delete: %d", got)
	}

	// 删除失败（条目已不存在）时列表保持不变。
	before := len(feed.Entries())
	if err := feed.Delete(context.Background(), target); !errors.Is(err, ErrEntryNotFound) {
		t.Fatalf("second delete: %v", err)
	}
	if len(feed.Entries()) != before {
		t.Fatal("failed delete mutated the feed")
	}
}

func TestEntryFeedDeleteClosesDetail(t *testing.T) {
	srv, _ := fixtureServer(t, 3)
	defer srv.Close()

	c, _ := New(srv.URL)
	feed := NewEntryFeed(c)
	if err := feed.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	target := feed.Entries()[0].EntryID
	other := feed.Entries()[1].EntryID

	// 删除别的条目不影响已打开的详情页。
	feed.OpenDetail(target)
	if err := feed.Delete(context.Background(), other); err != nil {
		t.Fatalf("Delete other: %v", err)
	}
	if id, ok := feed.DetailID(); !ok || id != target {
		t.Fatalf("detail view lost on unrelated delete: id=%q ok=%v", id, ok)
	}

	// 删除详情页正在展示的条目则详情页关闭。
	if err := feed.Delete(context.Background(), target); err != nil {
		t.Fatalf("Delete target: %v", err)
	}
	if id, ok := feed.DetailID(); ok {
		t.Fatalf("detail view still open for deleted entry %q", id)
	}
}

func TestEntryFeedRefreshResets(t *testing.T) {
	srv, _ := fixtureServer(t, 25)
	defer srv.Close()

	c, _ := New(srv.URL)
	feed := NewEntryFeed(c)
	if err := feed.LoadMore(context.Background()); err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if err := feed.LoadMore(context.Background()); err != nil {
		t.Fatalf("page 2: %v", err)
	}
	if got := len(feed.Entries()); got != 25 {
		t.Fatalf("before refresh: %d entries", got)
	}

	if err := feed.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := len(feed.Entries()); got != 20 {
		t.Fatalf("after refresh: %d entries, want first page only", got)
	}
	if !feed.HasMore() {
		t.Fatal("refresh lost hasMore")
	}
}
