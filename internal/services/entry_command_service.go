package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/capture"
	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
	"github.com/bionicotaku/lingo-services-journal/internal/models/vo"
)

// EntryCommandService 处理条目的写路径：媒体落盘 + 记录插入，以及删除。
type EntryCommandService struct {
	repo  EntryRepo
	store MediaStore
	log   *log.Helper
	now   func() time.Time
}

// NewEntryCommandService 构造条目写服务。
func NewEntryCommandService(repo EntryRepo, store MediaStore, logger log.Logger) *EntryCommandService {
	return &EntryCommandService{
		repo:  repo,
		store: store,
		log:   log.NewHelper(logger),
		now:   time.Now,
	}
}

// CreateEntry 创建一条日志条目：先写媒体 blob，再插入记录。
// enrichment 字段保持 NULL，由分析管线异步补写。
// 插入失败时尽力清理已写入的 blob，避免孤儿对象。
func (s *EntryCommandService) CreateEntry(ctx context.Context, in CreateEntryInput) (*vo.JournalEntry, error) {
	if !po.ValidMediaType(in.MediaType) {
		return nil, errors.BadRequest("INVALID_ARGUMENT", fmt.Sprintf("unknown media type %q", in.MediaType))
	}
	// 秒内即停的录制 elapsed 为 0，同样是合法条目。
	if in.DurationSeconds < 0 || in.DurationSeconds > capture.MaxDurationSeconds {
		return nil, errors.BadRequest("INVALID_ARGUMENT",
			fmt.Sprintf("duration must be within [0, %d] seconds", capture.MaxDurationSeconds))
	}
	if in.Media == nil || in.SizeBytes == 0 {
		return nil, errors.BadRequest("INVALID_ARGUMENT", "media payload is empty")
	}

	entryID := uuid.New()
	objectName := mediaObjectName(entryID, in.MediaType)

	mediaURL, err := s.store.Put(ctx, objectName, in.ContentType, in.Media)
	if err != nil {
		s.log.WithContext(ctx).Errorf("store media blob failed: entry_id=%s: %v", entryID, err)
		return nil, ErrUploadFailed.WithCause(err)
	}

	now := s.now().UTC()
	entry := &po.JournalEntry{
		EntryID:         entryID,
		MediaType:       in.MediaType,
		MediaURL:        mediaURL,
		DurationSeconds: in.DurationSeconds,
		EntryDate:       now,
	}
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		// 插入失败：回收刚写入的 blob，失败只记日志。
		if delErr := s.store.Delete(ctx, objectName); delErr != nil {
			s.log.WithContext(ctx).Warnf("orphan media blob %s not cleaned: %v", objectName, delErr)
		}
		s.log.WithContext(ctx).Errorf("create entry failed: entry_id=%s: %v", entryID, err)
		return nil, ErrUploadFailed.WithCause(err)
	}

	s.log.WithContext(ctx).Infof("entry created: entry_id=%s media_type=%s duration=%ds",
		created.EntryID, created.MediaType, created.DurationSeconds)
	return vo.NewJournalEntry(created), nil
}

// DeleteEntry 删除条目记录与其媒体 blob。记录删除成功后 blob 清理尽力而为：
// 记录是事实来源，blob 残留可被后台回收。
func (s *EntryCommandService) DeleteEntry(ctx context.Context, entryID uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, entryID)
	if err != nil {
		return err
	}
	if obj := mediaObjectName(deleted.EntryID, deleted.MediaType); obj != "" {
		if delErr := s.store.Delete(ctx, obj); delErr != nil {
			s.log.WithContext(ctx).Warnf("media blob %s not cleaned after delete: %v", obj, delErr)
		}
	}
	s.log.WithContext(ctx).Infof("entry deleted: entry_id=%s", entryID)
	return nil
}

// mediaObjectName 生成媒体对象的存储路径，按条目 ID 寻址。
func mediaObjectName(entryID uuid.UUID, mediaType po.MediaType) string {
	ext := "wav"
	if mediaType == po.MediaTypeVideo {
		ext = "mp4"
	}
	return fmt.Sprintf("journal/%s.%s", entryID, ext)
}
