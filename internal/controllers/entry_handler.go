// Package controllers 负责处理 HTTP 请求：参数解析、超时控制与响应组装。
// 业务规则全部下沉到 Service 层，本层只做协议适配。
package controllers

import (
	"context"
	"strconv"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	khttp "github.com/go-kratos/kratos/v2/transport/http"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
	"github.com/bionicotaku/lingo-services-journal/internal/views"
)

const (
	// uploadTimeout 覆盖媒体上传 + 落库的完整写路径。
	uploadTimeout = 60 * time.Second
	// queryTimeout 定义查询操作的默认超时时间。
	queryTimeout = 5 * time.Second
	// maxUploadBytes 限制单次 multipart 请求的内存缓冲。
	maxUploadBytes = 64 << 20
)

// EntryHandler 负责日志条目的 HTTP 路由。
type EntryHandler struct {
	commands *services.EntryCommandService
	queries  *services.EntryQueryService
	log      *log.Helper
}

// NewEntryHandler 构造条目 Handler。
func NewEntryHandler(commands *services.EntryCommandService, queries *services.EntryQueryService, logger log.Logger) *EntryHandler {
	return &EntryHandler{
		commands: commands,
		queries:  queries,
		log:      log.NewHelper(logger),
	}
}

// Register 挂载条目路由。
func (h *EntryHandler) Register(srv *khttp.Server) {
	r := srv.Route("/v1")
	r.POST("/journal/entries", h.createEntry)
	r.GET("/journal/entries", h.listEntries)
	r.GET("/journal/entries/{id}", h.getEntry)
	r.DELETE("/journal/entries/{id}", h.deleteEntry)
}

// createEntry 处理 multipart 上传：字段 media_type、duration_seconds，
// 文件部分 media。成功返回 201 与新建条目。
func (h *EntryHandler) createEntry(ctx khttp.Context) error {
	req := ctx.Request()
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return errors.BadRequest("INVALID_ARGUMENT", "request is not valid multipart form data")
	}

	duration, err := strconv.Atoi(req.FormValue("duration_seconds"))
	if err != nil {
		return errors.BadRequest("INVALID_ARGUMENT", "duration_seconds must be an integer")
	}
	file, header, err := req.FormFile("media")
	if err != nil {
		return errors.BadRequest("INVALID_ARGUMENT", "media file part is required")
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	tctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	entry, err := h.commands.CreateEntry(tctx, services.CreateEntryInput{
		MediaType:       po.MediaType(req.FormValue("media_type")),
		ContentType:     contentType,
		DurationSeconds: int32(duration),
		Media:           file,
		SizeBytes:       header.Size,
	})
	if err != nil {
		return err
	}
	return ctx.Result(201, views.NewEntryResponse(entry))
}

// listEntries 处理分页列表查询：?limit= & ?offset=。
func (h *EntryHandler) listEntries(ctx khttp.Context) error {
	limit, _ := strconv.Atoi(ctx.Query().Get("limit"))
	offset, _ := strconv.Atoi(ctx.Query().Get("offset"))

	tctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entries, hasMore, err := h.queries.ListEntries(tctx, limit, offset)
	if err != nil {
		return err
	}
	return ctx.Result(200, views.NewListEntriesResponse(entries, hasMore))
}

// getEntry 处理单条查询。
func (h *EntryHandler) getEntry(ctx khttp.Context) error {
	entryID, err := parseEntryID(ctx)
	if err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	entry, err := h.queries.GetEntry(tctx, entryID)
	if err != nil {
		return err
	}
	return ctx.Result(200, views.NewEntryResponse(entry))
}

// deleteEntry 处理条目删除。成功返回 204，无响应体。
func (h *EntryHandler) deleteEntry(ctx khttp.Context) error {
	entryID, err := parseEntryID(ctx)
	if err != nil {
		return err
	}

	tctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if err := h.commands.DeleteEntry(tctx, entryID); err != nil {
		return err
	}
	ctx.Response().WriteHeader(204)
	return nil
}

func parseEntryID(ctx khttp.Context) (uuid.UUID, error) {
	raw := ctx.Vars().Get("id")
	entryID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.BadRequest("INVALID_ARGUMENT", "entry id must be a UUID")
	}
	return entryID, nil
}
