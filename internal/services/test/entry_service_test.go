package services_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	kerrors "github.com/go-kratos/kratos/v2/errors"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
)

type stubEntryRepo struct {
	created   *po.JournalEntry
	createErr error

	entries []*po.JournalEntry
	hasMore bool
	listErr error

	found   *po.JournalEntry
	deleted *po.JournalEntry

	applied  bool
	applyErr error
	patch    services.AnalysisPatch
}

func (s *stubEntryRepo) Create(_ context.Context, e *po.JournalEntry) (*po.JournalEntry, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = e
	return e, nil
}

func (s *stubEntryRepo) List(_ context.Context, limit, offset int) ([]*po.JournalEntry, bool, error) {
	if s.listErr != nil {
		return nil, false, s.listErr
	}
	return s.entries, s.hasMore, nil
}

func (s *stubEntryRepo) FindByID(_ context.Context, _ uuid.UUID) (*po.JournalEntry, error) {
	if s.found == nil {
		return nil, services.ErrEntryNotFound
	}
	return s.found, nil
}

func (s *stubEntryRepo) Delete(_ context.Context, _ uuid.UUID) (*po.JournalEntry, error) {
	if s.deleted == nil {
		return nil, services.ErrEntryNotFound
	}
	return s.deleted, nil
}

func (s *stubEntryRepo) ApplyAnalysis(_ context.Context, patch services.AnalysisPatch) (bool, error) {
	s.patch = patch
	if s.applyErr != nil {
		return false, s.applyErr
	}
	return s.applied, nil
}

type stubMediaStore struct {
	putURL     string
	putErr     error
	putObjects []string
	deleted    []string
	deleteErr  error
}

func (s *stubMediaStore) Put(_ context.Context, objectName, _ string, r io.Reader) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.putObjects = append(s.putObjects, objectName)
	return s.putURL + objectName, nil
}

func (s *stubMediaStore) Delete(_ context.Context, objectName string) error {
	s.deleted = append(s.deleted, objectName)
	return s.deleteErr
}

func newCommandService(repo *stubEntryRepo, store *stubMediaStore) *services.EntryCommandService {
	return services.NewEntryCommandService(repo, store, log.NewStdLogger(io.Discard))
}

func TestCreateEntry(t *testing.T) {
	repo := &stubEntryRepo{}
	store := &stubMediaStore{putURL: "gs://journal-media/"}
	svc := newCommandService(repo, store)

	entry, err := svc.CreateEntry(context.Background(), services.CreateEntryInput{
		MediaType:       po.MediaTypeAudio,
		ContentType:     "audio/wav",
		DurationSeconds: 42,
		Media:           strings.NewReader("RIFFdata"),
		SizeBytes:       8,
	})
	if err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if entry.MediaType != "audio" || entry.DurationSeconds != 42 {
		t.Fatalf("unexpected entry: %+v", entry)
	}
	if entry.Analyzed() {
		t.Fatal("fresh entry must be pending")
	}
	if entry.Title != nil || entry.Summary != nil || entry.Mood != nil || entry.MoodScore != nil {
		t.Fatal("enrichment fields must be absent at creation")
	}
	if repo.created == nil {
		t.Fatal("entry not persisted")
	}
	if len(store.putObjects) != 1 || !strings.HasPrefix(store.putObjects[0], "journal/") {
		t.Fatalf("unexpected media objects: %v", store.putObjects)
	}
}

func TestCreateEntryValidation(t *testing.T) {
	svc := newCommandService(&stubEntryRepo{}, &stubMediaStore{})
	cases := []struct {
		name string
		in   services.CreateEntryInput
	}{
		{"bad media type", services.CreateEntryInput{
			MediaType: "slideshow", DurationSeconds: 10,
			Media: strings.NewReader("x"), SizeBytes: 1,
		}},
		{"negative duration", services.CreateEntryInput{
			MediaType: po.MediaTypeAudio, DurationSeconds: -1,
			Media: strings.NewReader("x"), SizeBytes: 1,
		}},
		{"over cap", services.CreateEntryInput{
			MediaType: po.MediaTypeAudio, DurationSeconds: 181,
			Media: strings.NewReader("x"), SizeBytes: 1,
		}},
		{"empty payload", services.CreateEntryInput{
			MediaType: po.MediaTypeAudio, DurationSeconds: 10,
			Media: strings.NewReader(""), SizeBytes: 0,
		}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := svc.CreateEntry(context.Background(), c.in)
			if !kerrors.IsBadRequest(err) {
				t.Fatalf("expected BadRequest, got %v", err)
			}
		})
	}
}

func TestCreateEntryAcceptsZeroDuration(t *testing.T) {
	// 启动后立即停止的录制 elapsed 为 0，仍然可以保存。
	repo := &stubEntryRepo{}
	store := &stubMediaStore{putURL: "gs://journal-media/"}
	svc := newCommandService(repo, store)

	entry, err := svc.CreateEntry(context.Background(), services.CreateEntryInput{
		MediaType:       po.MediaTypeAudio,
		ContentType:     "audio/wav",
		DurationSeconds: 0,
		Media:           strings.NewReader("RIFFdata"),
		SizeBytes:       8,
	})
	if err != nil {
		t.Fatalf("CreateEntry with zero duration: %v", err)
	}
	if entry.DurationSeconds != 0 {
		t.Fatalf("duration mangled: %d", entry.DurationSeconds)
	}
	if repo.created == nil {
		t.Fatal("entry not persisted")
	}
}

func TestCreateEntryCleansBlobOnInsertFailure(t *testing.T) {
	repo := &stubEntryRepo{createErr: fmt.Errorf("connection refused")}
	store := &stubMediaStore{putURL: "gs://journal-media/"}
	svc := newCommandService(repo, store)

	_, err := svc.CreateEntry(context.Background(), services.CreateEntryInput{
		MediaType:       po.MediaTypeVideo,
		ContentType:     "video/mp4",
		DurationSeconds: 30,
		Media:           strings.NewReader("ftyp"),
		SizeBytes:       4,
	})
	if !kerrors.IsInternalServer(err) {
		t.Fatalf("expected InternalServer, got %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("orphan blob not cleaned: deleted=%v", store.deleted)
	}
	if store.deleted[0] != store.putObjects[0] {
		t.Fatalf("cleaned wrong object: put=%v deleted=%v", store.putObjects, store.deleted)
	}
}

func TestDeleteEntry(t *testing.T) {
	target := &po.JournalEntry{
		EntryID:   uuid.New(),
		MediaType: po.MediaTypeAudio,
		MediaURL:  "gs://journal-media/journal/x.wav",
	}
	repo := &stubEntryRepo{deleted: target}
	store := &stubMediaStore{}
	svc := newCommandService(repo, store)

	if err := svc.DeleteEntry(context.Background(), target.EntryID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatalf("media blob not deleted: %v", store.deleted)
	}
}

func TestDeleteEntryNotFound(t *testing.T) {
	svc := newCommandService(&stubEntryRepo{}, &stubMediaStore{})
	err := svc.DeleteEntry(context.Background(), uuid.New())
	if !errors.Is(err, services.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func TestDeleteEntrySurvivesBlobFailure(t *testing.T) {
	target := &po.JournalEntry{EntryID: uuid.New(), MediaType: po.MediaTypeAudio}
	repo := &stubEntryRepo{deleted: target}
	store := &stubMediaStore{deleteErr: fmt.Errorf("gcs unavailable")}
	svc := newCommandService(repo, store)

	// 记录已删除即视为成功，blob 清理失败只记日志。
	if err := svc.DeleteEntry(context.Background(), target.EntryID); err != nil {
		t.Fatalf("DeleteEntry: %v", err)
	}
}

func TestListEntriesClampsLimit(t *testing.T) {
	repo := &stubEntryRepo{hasMore: true}
	svc := services.NewEntryQueryService(repo, log.NewStdLogger(io.Discard))

	_, hasMore, err := svc.ListEntries(context.Background(), -5, -3)
	if err != nil {
		t.Fatalf("ListEntries: %v", err)
	}
	if !hasMore {
		t.Fatal("hasMore lost")
	}

	if _, _, err := svc.ListEntries(context.Background(), 500, 0); err != nil {
		t.Fatalf("ListEntries with oversized limit: %v", err)
	}
}

func TestGetEntryNotFound(t *testing.T) {
	svc := services.NewEntryQueryService(&stubEntryRepo{}, log.NewStdLogger(io.Discard))
	_, err := svc.GetEntry(context.Background(), uuid.New())
	if !errors.Is(err, services.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}

func validPatch() services.AnalysisPatch {
	return services.AnalysisPatch{
		EntryID:   uuid.New(),
		Title:     "Morning walk",
		Summary:   "A calm start to the day.",
		Mood:      po.MoodGood,
		MoodScore: 7,
		Tags:      []string{"walk", "morning"},
	}
}

func TestAnalysisApply(t *testing.T) {
	repo := &stubEntryRepo{applied: true}
	svc := services.NewAnalysisService(repo, log.NewStdLogger(io.Discard))

	if err := svc.Apply(context.Background(), validPatch()); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if repo.patch.Title == "" {
		t.Fatal("patch not forwarded to repo")
	}
}

func TestAnalysisApplyRejectsPartialResult(t *testing.T) {
	repo := &stubEntryRepo{applied: true}
	svc := services.NewAnalysisService(repo, log.NewStdLogger(io.Discard))

	cases := []struct {
		name   string
		mutate func(*services.AnalysisPatch)
	}{
		{"missing title", func(p *services.AnalysisPatch) { p.Title = "" }},
		{"missing summary", func(p *services.AnalysisPatch) { p.Summary = "" }},
		{"unknown mood", func(p *services.AnalysisPatch) { p.Mood = "ecstatic" }},
		{"score below range", func(p *services.AnalysisPatch) { p.MoodScore = -1 }},
		{"score above range", func(p *services.AnalysisPatch) { p.MoodScore = 11 }},
		{"nil entry id", func(p *services.AnalysisPatch) { p.EntryID = uuid.Nil }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			patch := validPatch()
			c.mutate(&patch)
			err := svc.Apply(context.Background(), patch)
			if !kerrors.IsBadRequest(err) {
				t.Fatalf("expected BadRequest, got %v", err)
			}
			if repo.patch.EntryID == patch.EntryID && patch.EntryID != uuid.Nil {
				t.Fatal("partial result must not reach the repository")
			}
		})
	}
}

func TestAnalysisApplyIdempotent(t *testing.T) {
	// 条目已 analyzed：仓储返回 applied=false，服务静默成功。
	repo := &stubEntryRepo{applied: false}
	svc := services.NewAnalysisService(repo, log.NewStdLogger(io.Discard))
	if err := svc.Apply(context.Background(), validPatch()); err != nil {
		t.Fatalf("duplicate apply must be silent: %v", err)
	}
}

func TestAnalysisApplyMissingEntry(t *testing.T) {
	repo := &stubEntryRepo{applyErr: services.ErrEntryNotFound}
	svc := services.NewAnalysisService(repo, log.NewStdLogger(io.Discard))
	err := svc.Apply(context.Background(), validPatch())
	if !errors.Is(err, services.ErrEntryNotFound) {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
