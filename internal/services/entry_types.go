// Package services 承载应用用例编排：条目创建、查询、删除与分析结果落库。
package services

import (
	"context"
	"io"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
)

// 服务层哨兵错误。Reason 直接进入 HTTP 错误编码，客户端据此分流。
var (
	ErrEntryNotFound   = errors.NotFound("ENTRY_NOT_FOUND", "journal entry not found")
	ErrInvalidArgument = errors.BadRequest("INVALID_ARGUMENT", "invalid request argument")
	ErrAnalysisInvalid = errors.BadRequest("ANALYSIS_INVALID", "analysis result is incomplete")
	ErrUploadFailed    = errors.InternalServer("UPLOAD_FAILED", "failed to store media")
	ErrDeleteFailed    = errors.InternalServer("DELETE_FAILED", "failed to delete entry")
)

// EntryRepo 定义日志条目的持久化行为接口。
type EntryRepo interface {
	Create(ctx context.Context, entry *po.JournalEntry) (*po.JournalEntry, error)
	// List 按 entry_date 降序返回一页条目，hasMore 指示 offset+limit 之后仍有数据。
	List(ctx context.Context, limit, offset int) (entries []*po.JournalEntry, hasMore bool, err error)
	FindByID(ctx context.Context, entryID uuid.UUID) (*po.JournalEntry, error)
	Delete(ctx context.Context, entryID uuid.UUID) (*po.JournalEntry, error)
	// ApplyAnalysis 原子补写 enrichment 字段，仅对 pending 条目生效。
	// 条目已 analyzed 时返回 applied=false 且不产生任何写入。
	ApplyAnalysis(ctx context.Context, patch AnalysisPatch) (applied bool, err error)
}

// MediaStore 抽象媒体 blob 存储（GCS）。
type MediaStore interface {
	// Put 写入对象并返回可持久引用的 URL。
	Put(ctx context.Context, objectName, contentType string, r io.Reader) (url string, err error)
	Delete(ctx context.Context, objectName string) error
}

// CreateEntryInput 表示创建条目的输入参数。
type CreateEntryInput struct {
	MediaType       po.MediaType
	ContentType     string
	DurationSeconds int32
	Media           io.Reader
	SizeBytes       int64
}

// AnalysisPatch 表示分析管线产出的 enrichment 补写。
// 四个核心字段（title、summary、mood、mood_score）必须同时存在。
type AnalysisPatch struct {
	EntryID    uuid.UUID
	Transcript *string
	Title      string
	Summary    string
	Mood       po.Mood
	MoodScore  int32
	Tags       []string
}
