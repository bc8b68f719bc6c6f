package fleet

import (
	"context"
	"errors"
	"os"
	"testing"

	"cabsys/internal/infra"
)

func setupPgStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("CABSYS_TEST_DSN")
	if dsn == "" {
		t.Skip("CABSYS_TEST_DSN not set; skipping DB-backed fleet tests")
	}
	ctx := context.Background()
	db, err := infra.NewDB(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	root, err := infra.FindRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	if err := infra.ApplyMigrations(ctx, db, root+"/migrations"); err != nil {
		t.Fatalf("apply migration: %v", err)
	}
	if _, err := db.Exec(ctx, "TRUNCATE TABLE booking_events, bookings, cabs, drivers CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
	return NewStore(db)
}

func TestPgStore_AssignAndRelease(t *testing.T) {
	ctx := context.Background()
	store := setupPgStore(t)
	svc := NewService(store, quietLogger())
	if err := svc.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	a, err := svc.Assign(ctx, AssignRequest{Eco: true})
	if err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if a.Cab.ID != "cab-001" {
		t.Fatalf("expected cab-001, got %s", a.Cab.ID)
	}
	ok, err := store.SwapCabAvailability(ctx, a.Cab.ID, true, false)
	if err != nil || ok {
		t.Fatalf("second reservation must lose: ok=%v err=%v", ok, err)
	}
	if err := svc.Release(ctx, a.Cab.ID); err != nil {
		t.Fatalf("Release: %v", err)
	}
	d, err := store.GetDriver(ctx, a.Driver.ID)
	if err != nil || !d.Available {
		t.Fatalf("driver should be available again: %+v %v", d, err)
	}
	if _, err := store.SwapCabAvailability(ctx, "missing", true, false); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPgStore_HoldBlocksReservation(t *testing.T) {
	ctx := context.Background()
	store := setupPgStore(t)
	svc := NewService(store, quietLogger())
	if err := svc.SeedDemo(ctx); err != nil {
		t.Fatalf("seed: %v", err)
	}

	if err := store.SetCabHold(ctx, "cab-001", true); err != nil {
		t.Fatalf("SetCabHold: %v", err)
	}
	ok, err := store.SwapCabAvailability(ctx, "cab-001", true, false)
	if err != nil || ok {
		t.Fatalf("held cab must not be reserved: ok=%v err=%v", ok, err)
	}
	a, err := svc.Assign(ctx, AssignRequest{Eco: true})
	if err != nil || a.Cab.ID != "cab-003" {
		t.Fatalf("expected cab-003 while cab-001 is held, got %+v %v", a, err)
	}

	// Lifting the hold on a booked cab does not free it.
	if _, err := svc.SetAvailability(ctx, a.Cab.ID, true); err != nil {
		t.Fatal(err)
	}
	c, err := store.GetCab(ctx, a.Cab.ID)
	if err != nil || c.Available {
		t.Fatalf("booked cab must stay reserved: %+v %v", c, err)
	}

	// Ending a ride keeps a hold placed during it.
	if err := store.SetCabHold(ctx, a.Cab.ID, true); err != nil {
		t.Fatal(err)
	}
	if err := svc.Release(ctx, a.Cab.ID); err != nil {
		t.Fatal(err)
	}
	c, _ = store.GetCab(ctx, a.Cab.ID)
	if !c.OnHold || !c.Available || c.Assignable() {
		t.Fatalf("hold lost on release: %+v", c)
	}
	if err := store.SetCabHold(ctx, "missing", true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
