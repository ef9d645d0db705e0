//go:build sqlite

package storage

import (
	"context"
	"path/filepath"
	"testing"

	"etbd/internal/model"
)

func TestSQLiteStoreRunAndEventsRoundTrip(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "etbd.db")

	store := NewSQLiteStore(dbPath)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	run := model.Run{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              "run-1",
		Seed:            42,
		PopulationSize:  100,
		Mapping:         "identity",
		CreatedAtUTC:    "2026-01-01T00:00:00Z",
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	loaded, ok, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatalf("expected run %s", run.ID)
	}
	if loaded != run {
		t.Fatalf("unexpected run loaded: %+v", loaded)
	}

	events := model.EventLog{
		{Generation: 1, Genotype: 613, Phenotype: 613, Reinforced: true, ReinforcerCount: 1, Fitness: 12},
	}
	if err := store.SaveEvents(ctx, run.ID, events); err != nil {
		t.Fatalf("save events: %v", err)
	}
	loadedEvents, ok, err := store.GetEvents(ctx, run.ID)
	if err != nil {
		t.Fatalf("get events: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted events")
	}
	if len(loadedEvents) != 1 || loadedEvents[0] != events[0] {
		t.Fatalf("unexpected events loaded: %+v", loadedEvents)
	}

	if err := store.DeleteRun(ctx, run.ID); err != nil {
		t.Fatalf("delete run: %v", err)
	}
	if _, ok, _ := store.GetRun(ctx, run.ID); ok {
		t.Fatal("run not deleted")
	}
	if _, ok, _ := store.GetEvents(ctx, run.ID); ok {
		t.Fatal("events not deleted")
	}
}

func TestSQLiteStoreMissingRun(t *testing.T) {
	ctx := context.Background()
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "etbd.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	if _, ok, err := store.GetRun(ctx, "no-such-run"); err != nil || ok {
		t.Fatalf("missing run: ok=%v err=%v", ok, err)
	}
	if _, ok, err := store.GetEvents(ctx, "no-such-run"); err != nil || ok {
		t.Fatalf("missing events: ok=%v err=%v", ok, err)
	}
}

func TestSQLiteStoreRequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Fatal("expected error for empty path")
	}
}
