package inbox

import (
	"context"
	"os"
	"testing"

	"github.com/stillwater-massage/practice/libs/db"
	"github.com/stillwater-massage/practice/services/notification-service/migrations"
)

func TestRecordIsIdempotent(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := db.Open(ctx, url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool, migrations.FS, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE inbox_events`); err != nil {
		t.Fatal(err)
	}

	repo := NewRepository(pool)
	ok, err := repo.Record(ctx, "evt-1", "appointment.booked.v1")
	if err != nil || !ok {
		t.Fatalf("first record: ok=%v err=%v", ok, err)
	}
	ok, err = repo.Record(ctx, "evt-1", "appointment.booked.v1")
	if err != nil || ok {
		t.Fatalf("second record: ok=%v err=%v", ok, err)
	}
	if err := repo.Forget(ctx, "evt-1"); err != nil {
		t.Fatalf("forget: %v", err)
	}
	if ok, err := repo.Record(ctx, "evt-1", "appointment.booked.v1"); err != nil || !ok {
		t.Fatalf("record after forget: ok=%v err=%v", ok, err)
	}
}
