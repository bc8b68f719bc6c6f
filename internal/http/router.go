// README: HTTP router registration.
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cabsys/internal/http/handlers"
	"cabsys/internal/http/middleware"
	"cabsys/internal/infra"
	"cabsys/internal/modules/account"
	"cabsys/internal/modules/booking"
	"cabsys/internal/modules/fleet"
	"cabsys/internal/modules/geocoding"
	"cabsys/internal/modules/pricing"
	"cabsys/internal/modules/routing"
)

type RouterDeps struct {
	Accounts  *account.Service
	Fleet     *fleet.Service
	Bookings  *booking.Service
	Pricing   *pricing.Service
	Geocoding *geocoding.Service
	Routing   *routing.Service
	Verifier  infra.TokenVerifier
	Log       logrus.FieldLogger
	Currency  string
	// Timeout bounds handlers that call out to map providers.
	Timeout time.Duration
}

func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logging(d.Log), middleware.Recovery(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "OK")
	})

	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(d.Accounts)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/driver/login", authHandler.DriverLogin)

	public := api.Group("", middleware.OptionalAuth(d.Verifier))

	placeHandler := handlers.NewPlaceHandler(d.Geocoding, d.Timeout)
	public.GET("/places/search", placeHandler.Search)

	routeHandler := handlers.NewRouteHandler(d.Routing, d.Timeout)
	public.GET("/routes", routeHandler.Get)

	bookingHandler := handlers.NewBookingHandler(d.Bookings, d.Timeout)
	public.POST("/fares/quote", bookingHandler.Quote)

	cabHandler := handlers.NewCabHandler(d.Fleet)
	public.GET("/cabs", cabHandler.List)
	public.GET("/cabs/available", cabHandler.Available)
	public.GET("/cabs/eco", cabHandler.Eco)
	public.GET("/cabs/type/:type", cabHandler.ByType)
	public.GET("/cabs/:id", cabHandler.Get)

	authed := api.Group("", middleware.Auth(d.Verifier))

	riders := authed.Group("/bookings")
	riders.POST("", middleware.RequireRole(string(account.RoleUser), string(account.RoleAdmin)), bookingHandler.Create)
	riders.POST("/eco", middleware.RequireRole(string(account.RoleUser), string(account.RoleAdmin)), bookingHandler.CreateEco)
	riders.GET("/me", bookingHandler.Mine)
	riders.GET("/user/:userId", bookingHandler.ListByUser)
	riders.GET("/:id", bookingHandler.Get)
	riders.GET("/:id/events", bookingHandler.Events)

	driverHandler := handlers.NewDriverHandler(d.Bookings, d.Fleet)
	drivers := authed.Group("/driver", middleware.RequireRole(string(account.RoleDriver)))
	drivers.GET("/assignments", driverHandler.Assignments)
	drivers.GET("/cab", driverHandler.Cab)
	drivers.POST("/bookings/:id/complete", driverHandler.Complete)
	drivers.PUT("/device-token", driverHandler.RegisterDevice)

	adminHandler := handlers.NewAdminHandler(d.Accounts, d.Fleet, d.Bookings, d.Pricing, d.Currency)
	admin := authed.Group("/admin", middleware.RequireRole(string(account.RoleAdmin)))
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/revenue/by-method", adminHandler.RevenueByMethod)
	admin.GET("/users", adminHandler.Users)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/drivers", adminHandler.Drivers)
	admin.POST("/drivers", adminHandler.CreateDriver)
	admin.DELETE("/drivers/:id", adminHandler.DeleteDriver)
	admin.GET("/cabs", adminHandler.Cabs)
	admin.POST("/cabs", adminHandler.CreateCab)
	admin.DELETE("/cabs/:id", adminHandler.DeleteCab)
	admin.PUT("/cabs/:id/availability", adminHandler.SetCabAvailability)
	admin.GET("/bookings", adminHandler.Bookings)
	admin.PUT("/bookings/:id/status", adminHandler.UpdateBookingStatus)
	admin.PUT("/bookings/:id/payment", adminHandler.UpdatePayment)
	admin.GET("/payments", adminHandler.Payments)
	admin.GET("/rates", adminHandler.Rates)
	admin.PUT("/rates/:class", adminHandler.SetRate)

	return r
}
