package client

import (
	"context"
	"sync"

	"github.com/bionicotaku/lingo-services-journal/internal/models/vo"
)

// EntryFeed 维护按 entry_date 降序的分页条目流，供列表 UI 驱动。
// 首页之后按需 LoadMore；并发加载被互斥：一次加载在途时再次调用是空操作。
// 删除非乐观：先等服务端确认，再从本地移除。
type EntryFeed struct {
	client   *Client
	pageSize int

	mu       sync.Mutex
	entries  []*vo.JournalEntry
	offset   int
	hasMore  bool
	loading  bool
	loaded   bool
	detailID string
}

// NewEntryFeed 构造条目流，页大小固定为 DefaultPageSize。
func NewEntryFeed(c *Client) *EntryFeed {
	return &EntryFeed{
		client:   c,
		pageSize: DefaultPageSize,
		hasMore:  true,
	}
}

// Entries 返回当前已加载条目的快照。
func (f *EntryFeed) Entries() []*vo.JournalEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*vo.JournalEntry, len(f.entries))
	copy(out, f.entries)
	return out
}

// HasMore 指示是否还有更早的页未加载。
func (f *EntryFeed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

// Loading 指示是否有一次加载在途。
func (f *EntryFeed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Refresh 丢弃已加载内容并重新拉取首页。
func (f *EntryFeed) Refresh(ctx context.Context) error {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	f.mu.Unlock()

	entries, hasMore, err := f.client.List(ctx, f.pageSize, 0)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		return err
	}
	f.entries = entries
	f.offset = len(entries)
	f.hasMore = hasMore
	f.loaded = true
	return nil
}

// LoadMore 追加下一页。没有更多页或已有加载在途时为空操作。
func (f *EntryFeed) LoadMore(ctx context.Context) error {
	f.mu.Lock()
	if f.loading || (f.loaded && !f.hasMore) {
		f.mu.Unlock()
		return nil
	}
	f.loading = true
	offset := f.offset
	f.mu.Unlock()

	entries, hasMore, err := f.client.List(ctx, f.pageSize, offset)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.loading = false
	if err != nil {
		return err
	}
	f.entries = append(f.entries, entries...)
	f.offset += len(entries)
	f.hasMore = hasMore
	f.loaded = true
	return nil
}

// OpenDetail 记录当前打开详情页的条目 id，删除该条目时详情页随之关闭。
func (f *EntryFeed) OpenDetail(entryID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailID = entryID
}

// CloseDetail 关闭详情页。
func (f *EntryFeed) CloseDetail() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.detailID = ""
}

// DetailID 返回当前打开详情页的条目 id，没有打开的详情页时 ok 为 false。
func (f *EntryFeed) DetailID() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailID, f.detailID != ""
}

// Delete 删除条目：服务端确认成功后才从本地列表移除。
// 失败时列表保持不变，错误原样返回给 UI 提示。
// 被删条目正开着详情页时一并关闭。
func (f *EntryFeed) Delete(ctx context.Context, entryID string) error {
	if err := f.client.Delete(ctx, entryID); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.EntryID == entryID {
			f.entries = append(f.entries[:i], f.entries[i+1:]...)
			f.offset--
			break
		}
	}
	if f.detailID == entryID {
		f.detailID = ""
	}
	return nil
}

// Replace 用服务端最新版本替换本地条目（分析完成后的详情刷新）。
func (f *EntryFeed) Replace(entry *vo.JournalEntry) {
	if entry == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, e := range f.entries {
		if e.EntryID == entry.EntryID {
			f.entries[i] = entry
			return
		}
	}
}
