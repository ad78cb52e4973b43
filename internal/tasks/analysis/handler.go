package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
)

// EventHandler 将分析结果事件落到条目上。
type EventHandler struct {
	svc     *services.AnalysisService
	log     *log.Helper
	metrics *metrics
}

// NewEventHandler 构造分析结果处理器。
func NewEventHandler(svc *services.AnalysisService, logger log.Logger, metrics *metrics) *EventHandler {
	return &EventHandler{
		svc:     svc,
		log:     log.NewHelper(logger),
		metrics: metrics,
	}
}

// Handle 处理一条分析结果。返回 nil 表示消息可确认（含主动丢弃），
// 返回 error 表示需要重投。
//   - 结果不完整 / entry_id 非法 → 丢弃：重投不会让坏载荷变好；
//   - 条目已删除 → 丢弃：enrichment 已无处可落；
//   - 存储故障等瞬时错误 → 返回错误，等待重投。
func (h *EventHandler) Handle(ctx context.Context, evt *Event) error {
	if evt == nil {
		return fmt.Errorf("analysis: nil event")
	}

	entryID, err := uuid.Parse(strings.TrimSpace(evt.EntryID))
	if err != nil {
		h.metrics.recordDropped(ctx, "bad_entry_id")
		h.log.WithContext(ctx).Warnf("analysis: invalid entry_id %q, dropping", evt.EntryID)
		return nil
	}

	patch := services.AnalysisPatch{
		EntryID:    entryID,
		Transcript: evt.Transcript,
		Title:      evt.Title,
		Summary:    evt.Summary,
		Mood:       po.Mood(evt.Mood),
		MoodScore:  evt.MoodScore,
		Tags:       evt.Tags,
	}

	switch err := h.svc.Apply(ctx, patch); {
	case err == nil:
		h.metrics.recordApplied(ctx)
		return nil
	case errors.IsBadRequest(err):
		h.metrics.recordDropped(ctx, "invalid_result")
		h.log.WithContext(ctx).Warnf("analysis: incomplete result for entry %s, dropping: %v", entryID, err)
		return nil
	case errors.IsNotFound(err):
		h.metrics.recordDropped(ctx, "entry_deleted")
		h.log.WithContext(ctx).Infof("analysis: entry %s no longer exists, dropping", entryID)
		return nil
	default:
		h.metrics.recordFailure(ctx)
		return fmt.Errorf("analysis: apply result for entry %s: %w", entryID, err)
	}
}
