// Package analysis contains ingestion utilities for journal enrichment results.
package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventVersion 表示分析结果事件协议的版本常量。
const EventVersion = "v1"

// Event 描述分析管线发布的 enrichment 结果事件。
// title/summary/mood/mood_score 必须同时存在，transcript 与 tags 可选。
type Event struct {
	EntryID    string   `json:"entry_id"`
	Transcript *string  `json:"transcript,omitempty"`
	Title      string   `json:"title"`
	Summary    string   `json:"summary"`
	Mood       string   `json:"mood"`
	MoodScore  int32    `json:"mood_score"`
	Tags       []string `json:"tags,omitempty"`
	Version    string   `json:"version"`
}

// eventDecoder 解码 JSON 载荷。
type eventDecoder struct{}

func newEventDecoder() *eventDecoder {
	return &eventDecoder{}
}

// Decode 将原始消息解码为 Event。
func (d *eventDecoder) Decode(data []byte) (*Event, error) {
	var evt Event
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, fmt.Errorf("analysis: decode payload: %w", err)
	}
	normalizeEvent(&evt)
	return &evt, nil
}

// normalizeEvent 去除空白并补足缺省版本号。
func normalizeEvent(evt *Event) {
	evt.EntryID = strings.TrimSpace(evt.EntryID)
	evt.Title = strings.TrimSpace(evt.Title)
	evt.Summary = strings.TrimSpace(evt.Summary)
	evt.Mood = strings.TrimSpace(evt.Mood)
	if strings.TrimSpace(evt.Version) == "" {
		evt.Version = EventVersion
	}
}
