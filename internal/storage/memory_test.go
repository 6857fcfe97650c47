package storage

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStoreRunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := RunRecord{
		VersionedRecord: NewRecordVersion(),
		ID:              NewRunID(),
		Seed:            42,
		Updates:         100,
		Populations:     []string{"main"},
		StartedAt:       time.Now().UTC(),
		FinishedAt:      time.Now().UTC(),
		Warnings:        []string{"injection failed: no room in population \"main\""},
	}
	if err := store.SaveRun(ctx, input); err != nil {
		t.Fatalf("save run: %v", err)
	}

	output, ok, err := store.GetRun(ctx, input.ID)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted run")
	}
	if output.Seed != 42 || output.Updates != 100 {
		t.Fatalf("unexpected run: %+v", output)
	}
}

func TestMemoryStoreMissingRun(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	_, ok, err := store.GetRun(ctx, "no-such-run")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if ok {
		t.Fatal("expected missing run")
	}
}

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := SnapshotRecord{
		VersionedRecord: NewRecordVersion(),
		ID:              "snap-1",
		RunID:           "run-1",
		Update:          7,
		Population:      "main",
		Organisms: []OrganismRecord{
			{Index: 0, Genome: "1101", Traits: map[string]float64{"fitness": 3}},
			{Index: 2, Genome: "0110", Traits: map[string]float64{"fitness": 2}},
		},
	}
	if err := store.SaveSnapshot(ctx, input); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	output, ok, err := store.GetSnapshot(ctx, "snap-1")
	if err != nil {
		t.Fatalf("get snapshot: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted snapshot")
	}
	if output.Population != "main" || len(output.Organisms) != 2 {
		t.Fatalf("unexpected snapshot: %+v", output)
	}
	if output.Organisms[1].Genome != "0110" {
		t.Fatalf("unexpected organism: %+v", output.Organisms[1])
	}
}

func TestMemoryStoreSummariesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	input := []SummaryRow{
		{VersionedRecord: NewRecordVersion(), Update: 1, Trait: "fitness", Filter: "mean", Value: "2.5"},
		{VersionedRecord: NewRecordVersion(), Update: 2, Trait: "fitness", Filter: "mean", Value: "3.25"},
	}
	if err := store.SaveSummaries(ctx, "run-1", input); err != nil {
		t.Fatalf("save summaries: %v", err)
	}

	output, ok, err := store.GetSummaries(ctx, "run-1")
	if err != nil {
		t.Fatalf("get summaries: %v", err)
	}
	if !ok {
		t.Fatal("expected persisted summaries")
	}
	if len(output) != 2 || output[1].Value != "3.25" {
		t.Fatalf("unexpected summaries: %+v", output)
	}

	// The store hands back copies, not its own backing slice.
	output[0].Value = "mutated"
	again, _, err := store.GetSummaries(ctx, "run-1")
	if err != nil {
		t.Fatalf("get summaries again: %v", err)
	}
	if again[0].Value != "2.5" {
		t.Fatalf("caller mutation leaked into store: %+v", again[0])
	}
}
