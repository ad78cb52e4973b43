// Package vo 定义视图对象（View Objects），用于向上层传递业务数据。
// VO 对象由 Service 层返回，经 Views 层转换为 API 响应，隔离内部数据结构。
package vo

import (
	"time"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
)

// JournalEntry 封装日志条目视图。创建后 enrichment 字段保持为 nil，
// 直到分析管线补写；客户端据此渲染 pending / analyzed 两种状态。
type JournalEntry struct {
	EntryID         string    `json:"entry_id"`
	MediaType       string    `json:"media_type"`
	MediaURL        string    `json:"media_url"`
	DurationSeconds int32     `json:"duration_seconds"`
	EntryDate       string    `json:"entry_date"` // YYYY-MM-DD
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`

	// enrichment（pending 阶段全部为 null）
	Transcript *string  `json:"transcript"`
	Title      *string  `json:"title"`
	Summary    *string  `json:"summary"`
	Mood       *string  `json:"mood"`
	MoodScore  *int32   `json:"mood_score"`
	Tags       []string `json:"tags"`
}

// Analyzed 与 po.JournalEntry.Analyzed 保持同一判定：四个核心字段同时存在。
func (e *JournalEntry) Analyzed() bool {
	if e == nil {
		return false
	}
	return e.Title != nil && e.Summary != nil && e.Mood != nil && e.MoodScore != nil
}

// NewJournalEntry 从领域实体构造 VO。
func NewJournalEntry(entry *po.JournalEntry) *JournalEntry {
	if entry == nil {
		return nil
	}
	v := &JournalEntry{
		EntryID:         entry.EntryID.String(),
		MediaType:       string(entry.MediaType),
		MediaURL:        entry.MediaURL,
		DurationSeconds: entry.DurationSeconds,
		EntryDate:       entry.EntryDate.Format("2006-01-02"),
		CreatedAt:       entry.CreatedAt,
		UpdatedAt:       entry.UpdatedAt,
		Transcript:      entry.Transcript,
		Title:           entry.Title,
		Summary:         entry.Summary,
		MoodScore:       entry.MoodScore,
		Tags:            append([]string(nil), entry.Tags...),
	}
	if entry.Mood != nil {
		mood := string(*entry.Mood)
		v.Mood = &mood
	}
	return v
}

// NewJournalEntries 批量转换，保持仓储层返回的顺序。
func NewJournalEntries(entries []*po.JournalEntry) []*JournalEntry {
	out := make([]*JournalEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, NewJournalEntry(e))
	}
	return out
}
