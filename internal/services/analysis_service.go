package services

import (
	"context"
	"fmt"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
)

// AnalysisService 将分析管线的产出落到条目上。
// 条目要么 pending（enrichment 全空）要么 analyzed（四个核心字段同时存在），
// 不存在部分补写的中间态；不完整的结果在边界处整体拒绝。
type AnalysisService struct {
	repo EntryRepo
	log  *log.Helper
}

// NewAnalysisService 构造分析落库服务。
func NewAnalysisService(repo EntryRepo, logger log.Logger) *AnalysisService {
	return &AnalysisService{
		repo: repo,
		log:  log.NewHelper(logger),
	}
}

// Apply 校验并原子补写分析结果。
//   - 四个核心字段缺任何一个 → ErrAnalysisInvalid，不落库；
//   - 条目不存在 → ErrEntryNotFound；
//   - 条目已 analyzed → 静默跳过（先写者胜），重复投递安全。
func (s *AnalysisService) Apply(ctx context.Context, patch AnalysisPatch) error {
	if err := validatePatch(patch); err != nil {
		return err
	}

	applied, err := s.repo.ApplyAnalysis(ctx, patch)
	if err != nil {
		return err
	}
	if !applied {
		s.log.WithContext(ctx).Infof("analysis already applied, skipping: entry_id=%s", patch.EntryID)
		return nil
	}
	s.log.WithContext(ctx).Infof("analysis applied: entry_id=%s mood=%s score=%d",
		patch.EntryID, patch.Mood, patch.MoodScore)
	return nil
}

func validatePatch(patch AnalysisPatch) error {
	if patch.EntryID == uuid.Nil {
		return errors.BadRequest("ANALYSIS_INVALID", "entry_id is required")
	}
	if patch.Title == "" || patch.Summary == "" {
		return errors.BadRequest("ANALYSIS_INVALID", "title and summary are required")
	}
	if !po.ValidMood(patch.Mood) {
		return errors.BadRequest("ANALYSIS_INVALID", fmt.Sprintf("unknown mood %q", patch.Mood))
	}
	if patch.MoodScore < 0 || patch.MoodScore > 10 {
		return errors.BadRequest("ANALYSIS_INVALID", "mood_score must be within [0, 10]")
	}
	return nil
}
