// Package client 实现 journal 服务的移动端 API 客户端：
// 录音上传、分页列表与删除，以及供 capture 会话使用的 Uploader 适配。
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"github.com/bionicotaku/lingo-services-journal/internal/capture"
	"github.com/bionicotaku/lingo-services-journal/internal/models/vo"
)

// 客户端侧错误。上传 / 删除失败不自动重试，由 UI 决定是否重试。
var (
	ErrUploadFailed  = errors.New("client: upload failed")
	ErrDeleteFailed  = errors.New("client: delete failed")
	ErrEntryNotFound = errors.New("client: entry not found")
)

// DefaultPageSize 是列表分页的默认页大小。
const DefaultPageSize = 20

// Client 是 journal HTTP API 的薄封装。所有方法单次请求、显式返回错误。
type Client struct {
	baseURL *url.URL
	httpc   *http.Client
	log     *log.Helper
}

// ClientOption 定制客户端行为。
type ClientOption func(*Client)

// WithHTTPClient 替换底层 http.Client（超时、代理、测试桩）。
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		if hc != nil {
			c.httpc = hc
		}
	}
}

// WithClientLogger 注入结构化日志。
func WithClientLogger(logger log.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.log = log.NewHelper(logger)
		}
	}
}

// New 构造客户端。baseURL 形如 https://journal.example.com。
func New(baseURL string, opts ...ClientOption) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	c := &Client{
		baseURL: u,
		httpc:   &http.Client{Timeout: 60 * time.Second},
		log:     log.NewHelper(log.GetLogger()),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// UploadInput 描述一次媒体上传。
type UploadInput struct {
	Path            string
	MediaType       string // audio | video
	ContentType     string
	DurationSeconds int
}

type entryEnvelope struct {
	Entry *vo.JournalEntry `json:"entry"`
}

type listEnvelope struct {
	Entries []*vo.JournalEntry `json:"entries"`
	HasMore bool               `json:"has_more"`
}

// apiError 对应服务端的 kratos 错误编码。
type apiError struct {
	Code    int    `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// Upload 以 multipart 形式上传录制文件并创建条目。
// 空文件在本地直接拒绝，不发起请求。失败时包装 ErrUploadFailed，
// 本地文件由调用方（capture.Session）保留以便重试。
func (c *Client) Upload(ctx context.Context, in UploadInput) (*vo.JournalEntry, error) {
	info, err := os.Stat(in.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: stat media file: %v", ErrUploadFailed, err)
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("%w: media file is empty", ErrUploadFailed)
	}

	f, err := os.Open(in.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: open media file: %v", ErrUploadFailed, err)
	}
	defer f.Close()

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		err := writeUploadForm(mw, in, f)
		mw.Close()
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/v1/journal/entries"), pr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("%w: %s", ErrUploadFailed, readAPIError(resp))
	}
	var env entryEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUploadFailed, err)
	}
	if env.Entry == nil {
		return nil, fmt.Errorf("%w: empty response", ErrUploadFailed)
	}
	c.log.WithContext(ctx).Infof("entry uploaded: id=%s media_type=%s", env.Entry.EntryID, env.Entry.MediaType)
	return env.Entry, nil
}

func writeUploadForm(mw *multipart.Writer, in UploadInput, f *os.File) error {
	if err := mw.WriteField("media_type", in.MediaType); err != nil {
		return err
	}
	if err := mw.WriteField("duration_seconds", strconv.Itoa(in.DurationSeconds)); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("media", filepath.Base(f.Name()))
	if err != nil {
		return err
	}
	_, err = io.Copy(part, f)
	return err
}

// List 拉取一页条目，按 entry_date 降序。返回 hasMore 指示是否还有更早的页：
// 不足一页即为末页；整页时继续翻页，服务端的 has_more 字段可直接确认。
func (c *Client) List(ctx context.Context, limit, offset int) ([]*vo.JournalEntry, bool, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	u := c.endpoint("/v1/journal/entries") +
		"?limit=" + strconv.Itoa(limit) + "&offset=" + strconv.Itoa(offset)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("list entries: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("list entries: %s", readAPIError(resp))
	}
	var env listEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, false, fmt.Errorf("list entries: decode response: %w", err)
	}
	hasMore := env.HasMore || len(env.Entries) == limit
	return env.Entries, hasMore, nil
}

// Get 拉取单个条目，用于详情页在分析完成后刷新 enrichment 字段。
// 条目不存在返回 ErrEntryNotFound。
func (c *Client) Get(ctx context.Context, entryID string) (*vo.JournalEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint("/v1/journal/entries/"+url.PathEscape(entryID)), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get entry: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrEntryNotFound
	default:
		return nil, fmt.Errorf("get entry: %s", readAPIError(resp))
	}
	var env entryEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("get entry: decode response: %w", err)
	}
	return env.Entry, nil
}

// Delete 删除指定条目。条目不存在返回 ErrEntryNotFound，
// 其余失败包装 ErrDeleteFailed，服务端条目保持不变。
func (c *Client) Delete(ctx context.Context, entryID string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.endpoint("/v1/journal/entries/"+url.PathEscape(entryID)), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		c.log.WithContext(ctx).Infof("entry deleted: id=%s", entryID)
		return nil
	case http.StatusNotFound:
		return ErrEntryNotFound
	default:
		return fmt.Errorf("%w: %s", ErrDeleteFailed, readAPIError(resp))
	}
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path, _ = url.JoinPath(u.Path, path)
	return u.String()
}

func readAPIError(resp *http.Response) string {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil && ae.Reason != "" {
		return fmt.Sprintf("%s (%d): %s", ae.Reason, resp.StatusCode, ae.Message)
	}
	return fmt.Sprintf("http %d", resp.StatusCode)
}

// SessionUploader 将 Client 适配为 capture.Uploader。
// 上传成功后保留服务端返回的条目，供 UI 跳转到详情页。
type SessionUploader struct {
	client *Client
	entry  *vo.JournalEntry
}

// NewSessionUploader 构造会话上传适配器。
func NewSessionUploader(c *Client) *SessionUploader {
	return &SessionUploader{client: c}
}

// Upload 实现 capture.Uploader。
func (u *SessionUploader) Upload(ctx context.Context, req capture.UploadRequest) error {
	entry, err := u.client.Upload(ctx, UploadInput{
		Path:            req.Path,
		MediaType:       string(req.Mode),
		ContentType:     req.ContentType,
		DurationSeconds: req.DurationSeconds,
	})
	if err != nil {
		return err
	}
	u.entry = entry
	return nil
}

// Entry 返回最近一次成功上传产生的条目。
func (u *SessionUploader) Entry() *vo.JournalEntry { return u.entry }

var _ capture.Uploader = (*SessionUploader)(nil)
