// Package repositories 提供数据访问层实现，负责与持久化存储交互。
// 该层实现 Service 层定义的 Repository 接口，隔离底层存储细节。
package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
)

// entryRepo 是 services.EntryRepo 接口的实现。
// 使用 pgxpool.Pool 进行数据库访问（PostgreSQL）。
type entryRepo struct {
	pool *pgxpool.Pool
	log  *log.Helper
}

// NewEntryRepo 构造 EntryRepo 接口的实现实例。
func NewEntryRepo(pool *pgxpool.Pool, logger log.Logger) services.EntryRepo {
	return &entryRepo{
		pool: pool,
		log:  log.NewHelper(logger),
	}
}

// Create 插入新条目。enrichment 列不出现在 INSERT 中，保持 NULL。
// 使用 INSERT ... RETURNING 获取数据库生成的时间戳。
func (r *entryRepo) Create(ctx context.Context, e *po.JournalEntry) (*po.JournalEntry, error) {
	query := `
		INSERT INTO journal.entries (
			entry_id, media_type, media_url, duration_seconds, entry_date
		)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err := r.pool.QueryRow(ctx, query,
		e.EntryID,
		e.MediaType,
		e.MediaURL,
		e.DurationSeconds,
		e.EntryDate,
	).Scan(&e.CreatedAt, &e.UpdatedAt)

	if err != nil {
		r.log.WithContext(ctx).Errorf("Create entry failed: %v", err)
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	r.log.WithContext(ctx).Infof("Created entry: entry_id=%s", e.EntryID)
	return e, nil
}

// List 按 entry_date 降序返回一页条目（同日按 created_at 降序兜底）。
// 多取一行判断 hasMore，不额外发起 COUNT。
func (r *entryRepo) List(ctx context.Context, limit, offset int) ([]*po.JournalEntry, bool, error) {
	query := `
		SELECT
			entry_id, media_type, media_url, duration_seconds, entry_date,
			created_at, updated_at,
			transcript, title, summary, mood, mood_score, tags
		FROM journal.entries
		ORDER BY entry_date DESC, created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit+1, offset)
	if err != nil {
		r.log.WithContext(ctx).Errorf("List entries failed: %v", err)
		return nil, false, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var entries []*po.JournalEntry
	for rows.Next() {
		var e po.JournalEntry
		err := rows.Scan(
			&e.EntryID, &e.MediaType, &e.MediaURL, &e.DurationSeconds, &e.EntryDate,
			&e.CreatedAt, &e.UpdatedAt,
			&e.Transcript, &e.Title, &e.Summary, &e.Mood, &e.MoodScore, &e.Tags,
		)
		if err != nil {
			r.log.WithContext(ctx).Errorf("Scan entry row failed: %v", err)
			return nil, false, fmt.Errorf("scan entry row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterate entry rows: %w", err)
	}

	hasMore := len(entries) > limit
	if hasMore {
		entries = entries[:limit]
	}
	return entries, hasMore, nil
}

// FindByID 根据 entry_id 查询条目。查询不到时返回 ErrEntryNotFound。
func (r *entryRepo) FindByID(ctx context.Context, entryID uuid.UUID) (*po.JournalEntry, error) {
	query := `
		SELECT
			entry_id, media_type, media_url, duration_seconds, entry_date,
			created_at, updated_at,
			transcript, title, summary, mood, mood_score, tags
		FROM journal.entries
		WHERE entry_id = $1
	`

	var e po.JournalEntry
	err := r.pool.QueryRow(ctx, query, entryID).Scan(
		&e.EntryID, &e.MediaType, &e.MediaURL, &e.DurationSeconds, &e.EntryDate,
		&e.CreatedAt, &e.UpdatedAt,
		&e.Transcript, &e.Title, &e.Summary, &e.Mood, &e.MoodScore, &e.Tags,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrEntryNotFound
		}
		r.log.WithContext(ctx).Errorf("FindByID failed: %v", err)
		return nil, fmt.Errorf("query entry by id: %w", err)
	}

	return &e, nil
}

// Delete 删除条目并返回被删记录（调用方据此回收媒体 blob）。
// 条目不存在时返回 ErrEntryNotFound。
func (r *entryRepo) Delete(ctx context.Context, entryID uuid.UUID) (*po.JournalEntry, error) {
	query := `
		DELETE FROM journal.entries
		WHERE entry_id = $1
		RETURNING entry_id, media_type, media_url, duration_seconds, entry_date,
			created_at, updated_at
	`

	var e po.JournalEntry
	err := r.pool.QueryRow(ctx, query, entryID).Scan(
		&e.EntryID, &e.MediaType, &e.MediaURL, &e.DurationSeconds, &e.EntryDate,
		&e.CreatedAt, &e.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, services.ErrEntryNotFound
		}
		r.log.WithContext(ctx).Errorf("Delete entry failed: %v", err)
		return nil, fmt.Errorf("delete entry: %w", err)
	}

	r.log.WithContext(ctx).Infof("Deleted entry: entry_id=%s", entryID)
	return &e, nil
}

// ApplyAnalysis 单条 UPDATE 原子补写 enrichment：
// WHERE title IS NULL 保证先写者胜，重复投递不产生第二次写入。
func (r *entryRepo) ApplyAnalysis(ctx context.Context, patch services.AnalysisPatch) (bool, error) {
	query := `
		UPDATE journal.entries
		SET
			transcript = $2,
			title = $3,
			summary = $4,
			mood = $5,
			mood_score = $6,
			tags = $7,
			updated_at = now()
		WHERE entry_id = $1 AND title IS NULL
	`

	tag, err := r.pool.Exec(ctx, query,
		patch.EntryID,
		patch.Transcript,
		patch.Title,
		patch.Summary,
		patch.Mood,
		patch.MoodScore,
		patch.Tags,
	)
	if err != nil {
		r.log.WithContext(ctx).Errorf("ApplyAnalysis failed: %v", err)
		return false, fmt.Errorf("apply analysis: %w", err)
	}

	if tag.RowsAffected() == 0 {
		// 两种情况：条目不存在，或已 analyzed。区分后由调用方决策。
		if _, err := r.FindByID(ctx, patch.EntryID); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}
