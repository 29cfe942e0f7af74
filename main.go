// Package main gear rental API.
//
// @title           Gear Rental API
// @version         1.0
// @description     Equipment availability, kit resolution and bookings.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gearrental/app/echoServer"
	availctrl "gearrental/app/echoServer/controller/availability"
	bookingctrl "gearrental/app/echoServer/controller/booking"
	catalogctrl "gearrental/app/echoServer/controller/catalog"
	"gearrental/app/echoServer/validation"
	"gearrental/app/metrics"
	"gearrental/config"
	bookingrepo "gearrental/repository/booking"
	catalogcache "gearrental/repository/cache"
	equipmentrepo "gearrental/repository/equipment"
	kitrepo "gearrental/repository/kit"
	bookingsvc "gearrental/service/booking"
	catalogsvc "gearrental/service/catalog"
	kitsvc "gearrental/service/kit"
	"gearrental/util/cache"
	"gearrental/util/database"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: pgx pool
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	var er equipmentrepo.Repo = equipmentrepo.New(db.Pool)
	rdb, err := cache.NewRedis(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Warn("redis unavailable, catalog cache disabled", "err", err)
	}
	if rdb != nil {
		defer rdb.Close()
		er = catalogcache.NewCatalog(er, rdb, cfg.CatalogCacheTTL, log)
	}
	kr := kitrepo.New(db.Pool)
	br := bookingrepo.New(db.Pool)

	// services
	cs := catalogsvc.New(er)
	ks := kitsvc.New(cs, kr, br)
	bs := bookingsvc.New(db.Pool, br, cfg.BookingHoldTTL)

	go bookingsvc.RunCleaner(ctx, bookingsvc.NewCleaner(br), cfg.CleanupInterval, log)

	// metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// controllers
	catalogC := &catalogctrl.Controller{Svc: cs, Log: log}
	availC := &availctrl.Controller{Svc: ks, Log: log, M: m}
	bookingC := &bookingctrl.Controller{Svc: bs, Log: log, M: m}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e, log)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		if err := db.Pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(503, map[string]any{"status": "degraded", "message": "database unreachable"})
		}
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Catalog:      catalogC,
		Availability: availC,
		Booking:      bookingC,
		JWTSecret:    cfg.JWTSecret,
		RateLimitRPS: cfg.RateLimitRPS,
		Log:          log,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", port, "env", cfg.Env)

	go func() {
		if err := e.Start(":" + port); err != nil {
			log.Info("server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", "err", err)
	}
}
