// Package po 定义面向持久化的数据对象（Persistent Objects），由 Repository 层使用。
// PO 对象映射数据库表结构，不直接暴露给上层业务逻辑。
package po

import (
	"time"

	"github.com/google/uuid"
)

// MediaType 表示日志条目的媒体类型
type MediaType string

// 媒体类型常量定义
const (
	MediaTypeAudio MediaType = "audio" // 音频日志
	MediaTypeVideo MediaType = "video" // 视频日志
)

// Mood 表示 AI 分析得出的情绪档位
type Mood string

// 情绪档位常量定义（由分析管线写入，客户端只读）
const (
	MoodGreat   Mood = "great"
	MoodGood    Mood = "good"
	MoodNeutral Mood = "neutral"
	MoodLow     Mood = "low"
	MoodBad     Mood = "bad"
)

// ValidMediaType 校验媒体类型取值。
func ValidMediaType(t MediaType) bool {
	return t == MediaTypeAudio || t == MediaTypeVideo
}

// ValidMood 校验情绪档位取值。
func ValidMood(m Mood) bool {
	switch m {
	case MoodGreat, MoodGood, MoodNeutral, MoodLow, MoodBad:
		return true
	}
	return false
}

// JournalEntry 表示 journal.entries 表的数据库实体。
// 条目创建时仅有基础字段；enrichment 字段由分析管线异步补写，
// 且 title/summary/mood/mood_score 四项要么全空（pending）要么全有（analyzed）。
type JournalEntry struct {
	// 创建时固定的基础字段
	EntryID         uuid.UUID `db:"entry_id"`         // 主键（UUID v4，服务端生成）
	MediaType       MediaType `db:"media_type"`       // audio | video
	MediaURL        string    `db:"media_url"`        // 媒体对象引用（GCS 路径）
	DurationSeconds int32     `db:"duration_seconds"` // 录制时长（秒，>= 0）
	EntryDate       time.Time `db:"entry_date"`       // 创建日（由 created_at 推导，不可独立修改）
	CreatedAt       time.Time `db:"created_at"`       // 记录创建时间
	UpdatedAt       time.Time `db:"updated_at"`       // 最近更新时间

	// 分析完成后一次性补写的 enrichment 字段
	Transcript *string  `db:"transcript"` // 语音转写全文（可选）
	Title      *string  `db:"title"`      // AI 生成标题
	Summary    *string  `db:"summary"`    // AI 生成摘要
	Mood       *Mood    `db:"mood"`       // 情绪档位
	MoodScore  *int32   `db:"mood_score"` // 情绪分（0-10）
	Tags       []string `db:"tags"`       // AI 生成标签（PostgreSQL text[]，有序）
}

// Analyzed 判断条目是否已完成分析。
// 模型不允许部分 enrichment：四个核心字段同时出现才算 analyzed。
func (e *JournalEntry) Analyzed() bool {
	if e == nil {
		return false
	}
	return e.Title != nil && e.Summary != nil && e.Mood != nil && e.MoodScore != nil
}
