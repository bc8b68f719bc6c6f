package booking

import (
	"context"
	"os"
	"testing"
	"time"

	"cabsys/internal/infra"
	"cabsys/internal/modules/carbon"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/modules/pricing"
	"cabsys/internal/types"
)

func setupPgStores(t *testing.T) (*Store, *fleet.Service) {
	t.Helper()
	dsn := os.Getenv("CABSYS_TEST_DSN")
	if dsn == "" {
		t.Skip("CABSYS_TEST_DSN not set; skipping DB-backed booking tests")
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
	fleetSvc := fleet.NewService(fleet.NewStore(db), quietLogger())
	if err := fleetSvc.SeedDemo(ctx); err != nil {
		t.Fatalf("seed fleet: %v", err)
	}
	return NewStore(db), fleetSvc
}

func TestPgStore_CreateAndTransitions(t *testing.T) {
	ctx := context.Background()
	store, fleetSvc := setupPgStores(t)
	svc := NewService(Deps{
		Repo:    store,
		Pricing: pricing.NewService(pricing.PolicyBaseEco, "INR", nil),
		Carbon:  carbon.NewCalculator(carbon.DefaultFactorKgPerKm),
		Fleet:   fleetSvc,
		Log:     quietLogger(),
	})

	cmd := cashBooking("u_pg", 10, true)
	cmd.Payment = PaymentInput{Method: "UPI", UPIID: "asha@okicici"}
	b := mustCreate(t, svc, cmd)

	got, err := svc.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Fare.Amount != 17000 || got.CarbonSavedKg != 1 || got.Assigned.CabID != "cab-001" {
		t.Fatalf("unexpected stored booking %+v", got)
	}
	if got.Payment.Method != PaymentUPI || got.Payment.UPI == nil || got.Payment.UPI.Provider != "okicici" {
		t.Fatalf("payment details lost: %+v", got.Payment)
	}
	if got.Pickup.Point != nil {
		t.Fatal("pickup without coordinates should stay nil")
	}

	driver := b.Assigned.DriverID
	if _, err := svc.Complete(ctx, TransitionCommand{BookingID: b.ID, ActorType: ActorDriver, ActorID: &driver}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	ok, err := store.UpdateStatus(ctx, StatusUpdate{ID: b.ID, From: StatusConfirmed, To: StatusCancelled, Version: 0, At: time.Now()})
	if err != nil || ok {
		t.Fatalf("stale CAS must lose: ok=%v err=%v", ok, err)
	}

	events, err := store.ListEvents(ctx, b.ID)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	if len(events) != 2 || events[1].ToStatus != StatusCompleted || events[1].ActorID == nil || *events[1].ActorID != driver {
		t.Fatalf("unexpected events %+v", events)
	}

	mine, err := svc.ListByUser(ctx, types.ID("u_pg"))
	if err != nil || len(mine) != 1 {
		t.Fatalf("list by user: %d, %v", len(mine), err)
	}
	active, err := svc.ListByDriver(ctx, driver, true)
	if err != nil || len(active) != 0 {
		t.Fatalf("active assignments: %d, %v", len(active), err)
	}
}

func TestPgStore_CoordinatesRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, _ := setupPgStores(t)
	now := time.Now().UTC().Truncate(time.Microsecond)
	b := &Booking{
		ID:            types.NewID(),
		UserID:        "u_coords",
		Pickup:        Location{Address: "A", Point: &types.Point{Lat: 28.61, Lng: 77.2}},
		Drop:          Location{Address: "B", Point: &types.Point{Lat: 28.7, Lng: 77.1}},
		DistanceKm:    4.2,
		Fare:          types.Money{Amount: 11300, Currency: "INR"},
		Status:        StatusPending,
		VehicleClass:  "sedan",
		Assigned:      Assigned{CabID: "cab-002", DriverID: "drv-002"},
		Payment:       PaymentDetails{Method: PaymentCash, Cash: &CashDetails{}},
		PaymentStatus: PaymentPending,
		BookingTime:   now,
		CreatedAt:     now,
	}
	if err := store.Create(ctx, b); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := store.Get(ctx, b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Pickup.Point == nil || got.Pickup.Point.Lat != 28.61 || got.Drop.Point.Lng != 77.1 {
		t.Fatalf("coordinates lost: %+v %+v", got.Pickup, got.Drop)
	}

	stale, err := store.ListStale(ctx, StatusPending, now.Add(time.Minute))
	if err != nil || len(stale) != 1 {
		t.Fatalf("list stale: %d, %v", len(stale), err)
	}
	if err := store.UpdatePaymentStatus(ctx, "missing", PaymentSuccess); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
