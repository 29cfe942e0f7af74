package echoServer

import (
	"log/slog"

	"gearrental/app/echoServer/controller/availability"
	"gearrental/app/echoServer/controller/booking"
	"gearrental/app/echoServer/controller/catalog"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
)

type C struct {
	Catalog      *catalog.Controller
	Availability *availability.Controller
	Booking      *booking.Controller
	JWTSecret    string
	RateLimitRPS float64
	Log          *slog.Logger
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.GET("/categories", c.Catalog.ListCategories)
	pub.GET("/categories/:id/equipment", c.Catalog.ListByCategory)
	pub.GET("/equipment/:id", c.Catalog.Detail)

	// availability reads hit the booking table on every call
	checks := pub.Group("")
	if c.RateLimitRPS > 0 {
		checks.Use(RateLimit(c.RateLimitRPS, int(c.RateLimitRPS*2)+1))
	}
	checks.GET("/equipment/:id/availability", c.Availability.Check)
	checks.GET("/equipment/:id/kit", c.Availability.Kit)

	// Auth
	auth := e.Group("/v1/bookings")
	auth.Use(echojwt.WithConfig(echojwt.Config{
		SigningKey:    []byte(c.JWTSecret),
		NewClaimsFunc: func(echo.Context) jwt.Claims { return jwt.MapClaims{} },
		TokenLookup:   "header:Authorization:Bearer ",
	}))
	auth.Use(UserID(c.Log))

	auth.POST("", c.Booking.Create)
	auth.POST("/kit", c.Booking.CreateKit)
	auth.POST("/:id/cancel", c.Booking.Cancel)
	auth.GET("/my", c.Booking.My)
}
