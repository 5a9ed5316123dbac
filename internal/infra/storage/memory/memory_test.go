package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

func TestRetryQueueRepo_EnqueueDedup(t *testing.T) {
	ctx := context.Background()
	repo := NewRetryQueueRepo(NewMemoryStorage())

	entry := domain.CheckEntry{Username: "player1", File: "a[player1].txt"}
	added, err := repo.Enqueue(ctx, entry, "Rate limited by Mojang API")
	if err != nil || !added {
		t.Fatalf("first enqueue: added=%v err=%v", added, err)
	}
	added, _ = repo.Enqueue(ctx, entry, "Rate limited by Hypixel API")
	if added {
		t.Errorf("duplicate key must not be enqueued twice")
	}

	// Same username from another file is a distinct entry.
	other := domain.CheckEntry{Username: "player1", File: "b[player1].txt"}
	if added, _ := repo.Enqueue(ctx, other, ""); !added {
		t.Errorf("different file should be enqueued")
	}

	if n, _ := repo.Len(ctx); n != 2 {
		t.Errorf("expected 2 queued, got %d", n)
	}
}

func TestRetryQueueRepo_DrainAndRequeue(t *testing.T) {
	ctx := context.Background()
	repo := NewRetryQueueRepo(NewMemoryStorage())

	for _, name := range []string{"a", "b", "c"} {
		_, _ = repo.Enqueue(ctx, domain.CheckEntry{Username: name, File: name + ".txt"}, "")
	}

	batch, err := repo.Drain(ctx)
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(batch) != 3 || batch[0].Entry.Username != "a" || batch[2].Entry.Username != "c" {
		t.Fatalf("unexpected batch order: %+v", batch)
	}
	if n, _ := repo.Len(ctx); n != 0 {
		t.Errorf("queue should be empty after drain, got %d", n)
	}

	if err := repo.Requeue(ctx, batch[1], "again"); err != nil {
		t.Fatalf("Requeue failed: %v", err)
	}
	next, _ := repo.Drain(ctx)
	if len(next) != 1 {
		t.Fatalf("expected 1 requeued entry, got %d", len(next))
	}
	if next[0].Round != 1 || next[0].LastError != "again" || next[0].Status != domain.RetryStatusPending {
		t.Errorf("unexpected requeued entry: %+v", next[0])
	}
	if batch[1].Round != 0 {
		t.Errorf("requeue must not mutate the drained entry")
	}
}

func TestRetryQueueRepo_MarkExhausted(t *testing.T) {
	ctx := context.Background()
	repo := NewRetryQueueRepo(NewMemoryStorage())
	_, _ = repo.Enqueue(ctx, domain.CheckEntry{Username: "x", File: "x.txt"}, "")
	batch, _ := repo.Drain(ctx)

	if err := repo.MarkExhausted(ctx, batch[0]); err != nil {
		t.Fatalf("MarkExhausted failed: %v", err)
	}
	ex, err := repo.Exhausted(ctx)
	if err != nil {
		t.Fatalf("Exhausted failed: %v", err)
	}
	if len(ex) != 1 || ex[0].Status != domain.RetryStatusExhausted {
		t.Errorf("unexpected exhausted entries: %+v", ex)
	}
}

func TestResultRepo_ListByRun(t *testing.T) {
	ctx := context.Background()
	repo := NewResultRepo(NewMemoryStorage())
	run, other := uuid.New(), uuid.New()

	now := time.Now()
	_ = repo.Save(ctx, &domain.RunRecord{RunID: run, Username: "a", Category: "VIP", CheckedAt: now})
	_ = repo.Save(ctx, &domain.RunRecord{RunID: other, Username: "b", Category: "MVP", CheckedAt: now})
	_ = repo.Save(ctx, &domain.RunRecord{RunID: run, Username: "c", Category: "None", CheckedAt: now})

	recs, err := repo.ListByRun(ctx, run)
	if err != nil {
		t.Fatalf("ListByRun failed: %v", err)
	}
	if len(recs) != 2 || recs[0].Username != "a" || recs[1].Username != "c" {
		t.Errorf("unexpected records: %+v", recs)
	}

	counts, _ := repo.CountByCategory(ctx, run)
	if counts["VIP"] != 1 || counts["None"] != 1 || counts["MVP"] != 0 {
		t.Errorf("unexpected counts: %v", counts)
	}
}
