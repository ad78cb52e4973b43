// Package views 负责将内部 VO 对象转换为 API 响应。
// 该层作为传输层的序列化适配器，隔离业务逻辑与协议细节。
package views

import (
	"github.com/bionicotaku/lingo-services-journal/internal/models/vo"
)

// EntryResponse 是单条条目的响应包络。
type EntryResponse struct {
	Entry *vo.JournalEntry `json:"entry"`
}

// ListEntriesResponse 是分页列表的响应包络。
type ListEntriesResponse struct {
	Entries []*vo.JournalEntry `json:"entries"`
	HasMore bool               `json:"has_more"`
}

// NewEntryResponse 包装单条条目。
func NewEntryResponse(entry *vo.JournalEntry) *EntryResponse {
	return &EntryResponse{Entry: entry}
}

// NewListEntriesResponse 包装一页条目。entries 为 nil 时输出空数组而非 null。
func NewListEntriesResponse(entries []*vo.JournalEntry, hasMore bool) *ListEntriesResponse {
	if entries == nil {
		entries = []*vo.JournalEntry{}
	}
	return &ListEntriesResponse{Entries: entries, HasMore: hasMore}
}
