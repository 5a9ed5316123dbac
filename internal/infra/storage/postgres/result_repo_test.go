package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/rankcheck/internal/core/domain"
)

func TestResultRepo_Live(t *testing.T) {
	url := os.Getenv("RANKCHECK_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("RANKCHECK_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	for _, driver := range []string{"pgx", "postgres"} {
		t.Run(driver, func(t *testing.T) {
			db, err := NewDB(ctx, Config{URL: url, Driver: driver})
			if err != nil {
				t.Fatalf("Failed to connect: %v", err)
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				t.Fatalf("Migrate failed: %v", err)
			}

			repo := NewResultRepo(db)
			run := uuid.New()
			at := time.Now().UTC().Truncate(time.Second)

			recs := []*domain.RunRecord{
				{RunID: run, Username: "player1", File: "a[player1].txt", Category: "VIP", CheckedAt: at},
				{RunID: run, Username: "ghost", File: "ghost.txt", Category: "Failed_Lookup", Reason: "Username doesn't exist", CheckedAt: at},
				{RunID: run, Username: "other", File: "other.txt", Category: "VIP", Recheck: true, CheckedAt: at},
			}
			for _, rec := range recs {
				if err := repo.Save(ctx, rec); err != nil {
					t.Fatalf("Save failed: %v", err)
				}
			}

			got, err := repo.ListByRun(ctx, run)
			if err != nil {
				t.Fatalf("ListByRun failed: %v", err)
			}
			if len(got) != 3 || got[1].Reason != "Username doesn't exist" || !got[2].Recheck {
				t.Errorf("unexpected rows: %+v", got)
			}

			counts, err := repo.CountByCategory(ctx, run)
			if err != nil {
				t.Fatalf("CountByCategory failed: %v", err)
			}
			if counts["VIP"] != 2 || counts["Failed_Lookup"] != 1 {
				t.Errorf("unexpected counts: %v", counts)
			}
		})
	}
}
