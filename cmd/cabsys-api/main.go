// README: Entry point; loads config, wires services, starts HTTP server and the pending-expiry ticker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"googlemaps.github.io/maps"

	"cabsys/internal/config"
	httptransport "cabsys/internal/http"
	"cabsys/internal/infra"
	"cabsys/internal/modules/account"
	"cabsys/internal/modules/booking"
	"cabsys/internal/modules/carbon"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/modules/geocoding"
	"cabsys/internal/modules/notify"
	"cabsys/internal/modules/pricing"
	"cabsys/internal/modules/routing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := infra.NewLogger(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.WithError(err).Fatal("cabsys-api stopped")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	var (
		fleetRepo   fleet.Repository
		userRepo    account.Repository
		bookingRepo booking.Repository
		rates       pricing.RateStore
	)
	switch cfg.Storage {
	case config.StoragePostgres:
		db, err := infra.NewDB(ctx, cfg.DB.DSN)
		if err != nil {
			return err
		}
		defer db.Close()
		if cfg.DB.Migrate {
			if err := infra.ApplyMigrations(ctx, db, cfg.DB.MigrationsDir); err != nil {
				return fmt.Errorf("apply migrations: %w", err)
			}
		}
		fleetRepo = fleet.NewStore(db)
		userRepo = account.NewStore(db)
		bookingRepo = booking.NewStore(db)
		rates = pricing.NewStore(db)
	default:
		fleetRepo = fleet.NewMemStore()
		userRepo = account.NewMemStore()
		bookingRepo = booking.NewMemStore()
		rates = pricing.NewMemStore(cfg.Pricing.Currency)
	}

	var (
		geoCache   geocoding.Cache
		routeCache routing.Cache
	)
	if cfg.Redis.Addr != "" {
		rdb := infra.NewRedis(cfg.Redis.Addr)
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, map lookups will not be cached")
		} else {
			geoCache = infra.NewJSONCache(rdb, "cabsys:geo:")
			routeCache = infra.NewJSONCache(rdb, "cabsys:route:")
		}
	}

	httpClient := &http.Client{Timeout: cfg.Maps.Timeout}
	var (
		places geocoding.Provider
		legs   routing.Provider
	)
	switch cfg.Maps.Provider {
	case config.MapsGoogle:
		mc, err := maps.NewClient(maps.WithAPIKey(cfg.Maps.GoogleKey), maps.WithHTTPClient(httpClient))
		if err != nil {
			return fmt.Errorf("google maps client: %w", err)
		}
		places = geocoding.NewGoogleProvider(mc)
		legs = routing.NewGoogleProvider(mc, cfg.Maps.Country)
	default:
		places = geocoding.NewNominatimProvider(cfg.Maps.NominatimURL, cfg.Maps.UserAgent, httpClient)
		legs = routing.NewOSRMProvider(cfg.Maps.OSRMURL, httpClient)
	}
	geoSvc := geocoding.NewService(places, geoCache, geocoding.Options{
		Country:  cfg.Maps.Country,
		Limit:    cfg.Maps.SuggestionLimit,
		CacheTTL: cfg.Maps.CacheTTL,
	}, log.WithField("module", "geocoding"))
	routingSvc := routing.NewService(legs, routeCache, cfg.Maps.CacheTTL, log.WithField("module", "routing"))

	jwtSvc := infra.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	var verifier infra.TokenVerifier = jwtSvc
	var notifier booking.DriverNotifier

	fleetSvc := fleet.NewService(fleetRepo, log.WithField("module", "fleet"))

	if cfg.Firebase.ProjectID != "" {
		app, err := infra.NewFirebaseApp(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			return fmt.Errorf("firebase init: %w", err)
		}
		if cfg.Auth.Provider == config.AuthFirebase {
			if verifier, err = infra.NewFirebaseVerifier(ctx, app); err != nil {
				return fmt.Errorf("firebase auth: %w", err)
			}
		}
		msgClient, err := notify.NewMessagingClient(ctx, app)
		if err != nil {
			log.WithError(err).Warn("push notifications disabled")
		} else {
			notifier = notify.NewFCMNotifier(msgClient, fleetSvc, log.WithField("module", "notify"))
		}
	}

	var events booking.EventPublisher
	if cfg.AMQP.URL != "" {
		conn, ch, err := infra.ConnectRMQ(ctx, cfg.AMQP.URL, 5, 2*time.Second, log)
		if err != nil {
			return err
		}
		defer conn.Close()
		defer ch.Close()
		pub, err := infra.NewPublisher(ch, cfg.AMQP.Exchange)
		if err != nil {
			return err
		}
		events = pub
	}

	accounts := account.NewService(userRepo, fleetSvc, jwtSvc, log.WithField("module", "account"))
	pricingSvc := pricing.NewService(pricing.Policy(cfg.Pricing.Policy), cfg.Pricing.Currency, rates)
	bookingSvc := booking.NewService(booking.Deps{
		Repo:     bookingRepo,
		Pricing:  pricingSvc,
		Carbon:   carbon.NewCalculator(cfg.Pricing.CarbonFactor),
		Fleet:    fleetSvc,
		Router:   routingSvc,
		Events:   events,
		Notifier: notifier,
		Log:      log.WithField("module", "booking"),
		Options: booking.Options{
			InitialStatus: booking.Status(cfg.Booking.InitialStatus),
			PendingTTL:    cfg.Booking.PendingTTL,
			ExpiryTick:    cfg.Booking.ExpiryTick,
		},
	})

	if err := accounts.EnsureAdmin(ctx, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if cfg.Seed.Demo {
		if err := fleetSvc.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seed fleet: %w", err)
		}
		if err := accounts.SeedDemo(ctx); err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	router := httptransport.NewRouter(httptransport.RouterDeps{
		Accounts:  accounts,
		Fleet:     fleetSvc,
		Bookings:  bookingSvc,
		Pricing:   pricingSvc,
		Geocoding: geoSvc,
		Routing:   routingSvc,
		Verifier:  verifier,
		Log:       log,
		Currency:  cfg.Pricing.Currency,
		Timeout:   cfg.Maps.Timeout,
	})

	go bookingSvc.RunPendingExpiry(ctx)

	log.WithFields(logrus.Fields{
		"storage": cfg.Storage,
		"maps":    cfg.Maps.Provider,
		"auth":    cfg.Auth.Provider,
		"policy":  cfg.Pricing.Policy,
		"initial": cfg.Booking.InitialStatus,
		"events":  events != nil,
		"push":    notifier != nil,
		"cache":   geoCache != nil,
	}).Info("cabsys-api starting")

	return httptransport.NewServer(cfg.HTTP.Addr, router, cfg.HTTP.ShutdownTimeout, log).Run(ctx)
}
