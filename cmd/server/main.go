package main // Entry point package

import (
	"context"
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/example/checkout-stock-reservation/internal/cache"
	"github.com/example/checkout-stock-reservation/internal/checkout"
	"github.com/example/checkout-stock-reservation/internal/config"
	"github.com/example/checkout-stock-reservation/internal/database"
	"github.com/example/checkout-stock-reservation/internal/handler"
	"github.com/example/checkout-stock-reservation/internal/queue"
	"github.com/example/checkout-stock-reservation/internal/repository"
	"github.com/example/checkout-stock-reservation/internal/reservation"
	"github.com/example/checkout-stock-reservation/internal/router"
	queue_publisher "github.com/example/checkout-stock-reservation/internal/service"
)

func main() {
	_ = godotenv.Load() // optional .env for local development
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable; availability estimates are uncached")
	}

	stockRepo := repository.NewStockRepo(db)
	reservationStore := repository.NewReservationStore(db)
	checkoutRepo := repository.NewCheckoutRepo(db)
	shippingRepo := repository.NewShippingRepo(db)

	ledger := reservation.NewLedger(reservationStore)
	validator := checkout.NewValidator(stockRepo, reservationStore)
	addressSvc := checkout.NewAddressService(checkoutRepo, shippingRepo, validator,
		queue_publisher.PublishCheckoutAddressUpdated)
	lineSvc := checkout.NewLineService(checkoutRepo, stockRepo, reservationStore, ledger, checkout.Settings{
		ReservationsEnabled: cfg.ReservationsEnabled,
		ReservationDuration: cfg.ReservationDuration,
	}).WithPublishers(queue_publisher.PublishStockReserved, queue_publisher.PublishReservationReleased)

	// Inbound commands arrive over the broker; the consumers block
	// and reconnect forever.
	go func() {
		if err := queue.StartAddressUpdateConsumer(addressSvc); err != nil {
			log.Printf("address consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := queue.StartLineConsumer(lineSvc); err != nil {
			log.Printf("line consumer stopped: %v", err)
		}
	}()

	// Expired holds are ignored by every read; the sweeper just
	// reclaims the rows.
	go reservation.NewSweeper(reservationStore, cfg.SweepInterval).Run(context.Background())

	e := echo.New()
	estimateCache := cache.NewAvailabilityCache(rdb, cfg.AvailabilityCacheTTL)
	router.RegisterRoutes(e, handler.NewAvailabilityHandler(shippingRepo, stockRepo, reservationStore, estimateCache))

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
