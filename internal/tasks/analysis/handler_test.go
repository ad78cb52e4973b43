package analysis

import (
	"context"
	"fmt"
	"io"
	"testing"

	"cloud.google.com/go/pubsub"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/google/uuid"

	"github.com/bionicotaku/lingo-services-journal/internal/models/po"
	"github.com/bionicotaku/lingo-services-journal/internal/services"
)

type stubRepo struct {
	applied  bool
	applyErr error
	patches  []services.AnalysisPatch
}

func (s *stubRepo) Create(_ context.Context, e *po.JournalEntry) (*po.JournalEntry, error) {
	return e, nil
}

func (s *stubRepo) List(_ context.Context, _, _ int) ([]*po.JournalEntry, bool, error) {
	return nil, false, nil
}

func (s *stubRepo) FindByID(_ context.Context, _ uuid.UUID) (*po.JournalEntry, error) {
	return nil, services.ErrEntryNotFound
}

func (s *stubRepo) Delete(_ context.Context, _ uuid.UUID) (*po.JournalEntry, error) {
	return nil, services.ErrEntryNotFound
}

func (s *stubRepo) ApplyAnalysis(_ context.Context, patch services.AnalysisPatch) (bool, error) {
	s.patches = append(s.patches, patch)
	if s.applyErr != nil {
		return false, s.applyErr
	}
	return s.applied, nil
}

func newTestRunner(repo *stubRepo) *Runner {
	logger := log.NewStdLogger(io.Discard)
	handler := NewEventHandler(services.NewAnalysisService(repo, logger), logger, newMetrics())
	r, _ := NewRunner(nopSubscription{}, handler, logger)
	return r
}

type nopSubscription struct{}

func (nopSubscription) Receive(context.Context, func(context.Context, *pubsub.Message)) error {
	return nil
}

func validEvent(entryID string) []byte {
	return []byte(fmt.Sprintf(
		`{"entry_id":%q,"title":"Morning walk","summary":"Calm.","mood":"good","mood_score":7}`, entryID))
}

func TestProcessMessageApplies(t *testing.T) {
	repo := &stubRepo{applied: true}
	r := newTestRunner(repo)

	entryID := uuid.New()
	if err := r.processMessage(context.Background(), validEvent(entryID.String())); err != nil {
		t.Fatalf("processMessage: %v", err)
	}
	if len(repo.patches) != 1 || repo.patches[0].EntryID != entryID {
		t.Fatalf("patch not applied: %+v", repo.patches)
	}
}

func TestProcessMessageDropsMalformed(t *testing.T) {
	repo := &stubRepo{applied: true}
	r := newTestRunner(repo)

	// 坏 JSON 与非法 entry_id 都必须被确认（丢弃），不得无限重投。
	if err := r.processMessage(context.Background(), []byte(`not json`)); err != nil {
		t.Fatalf("malformed payload must be dropped: %v", err)
	}
	if err := r.processMessage(context.Background(), validEvent("not-a-uuid")); err != nil {
		t.Fatalf("bad entry_id must be dropped: %v", err)
	}
	if len(repo.patches) != 0 {
		t.Fatalf("bad payload reached repo: %+v", repo.patches)
	}
}

func TestProcessMessageDropsIncompleteResult(t *testing.T) {
	repo := &stubRepo{applied: true}
	r := newTestRunner(repo)

	payload := []byte(fmt.Sprintf(
		`{"entry_id":%q,"title":"","summary":"Calm.","mood":"good","mood_score":7}`, uuid.New()))
	if err := r.processMessage(context.Background(), payload); err != nil {
		t.Fatalf("incomplete result must be dropped, got %v", err)
	}
	if len(repo.patches) != 0 {
		t.Fatal("incomplete result reached repo")
	}
}

func TestProcessMessageDropsDeletedEntry(t *testing.T) {
	repo := &stubRepo{applyErr: services.ErrEntryNotFound}
	r := newTestRunner(repo)

	if err := r.processMessage(context.Background(), validEvent(uuid.NewString())); err != nil {
		t.Fatalf("deleted entry must be dropped, got %v", err)
	}
}

func TestProcessMessageRetriesTransientFailure(t *testing.T) {
	repo := &stubRepo{applyErr: fmt.Errorf("connection reset")}
	r := newTestRunner(repo)

	if err := r.processMessage(context.Background(), validEvent(uuid.NewString())); err == nil {
		t.Fatal("transient failure must surface for redelivery")
	}
}

func TestProcessMessageDuplicateDelivery(t *testing.T) {
	// 条目已 analyzed：仓储返回 applied=false，消息仍被确认。
	repo := &stubRepo{applied: false}
	r := newTestRunner(repo)

	if err := r.processMessage(context.Background(), validEvent(uuid.NewString())); err != nil {
		t.Fatalf("duplicate delivery must ack: %v", err)
	}
}
