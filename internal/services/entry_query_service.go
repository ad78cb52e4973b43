package services

import (
	"context"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/models/vo"
)

// 分页参数边界。
const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// EntryQueryService 处理条目的读路径：分页列表与单条查询。
type EntryQueryService struct {
	repo EntryRepo
	log  *log.Helper
}

// NewEntryQueryService 构造条目读服务。
func NewEntryQueryService(repo EntryRepo, logger log.Logger) *EntryQueryService {
	return &EntryQueryService{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// ListEntries 分页返回条目，按 entry_date 降序（最新在前）。
// limit 钳制到 [1, 100]，缺省 20；offset 负值按 0 处理。
func (s *EntryQueryService) ListEntries(ctx context.Context, limit, offset int) ([]*vo.JournalEntry, bool, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	entries, hasMore, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, false, err
	}
	return vo.NewJournalEntries(entries), hasMore, nil
}

// GetEntry 返回单条条目；不存在时返回 ErrEntryNotFound。
func (s *EntryQueryService) GetEntry(ctx context.Context, entryID uuid.UUID) (*vo.JournalEntry, error) {
	entry, err := s.repo.FindByID(ctx, entryID)
	if err != nil {
		return nil, err
	}
	return vo.NewJournalEntry(entry), nil
}
