package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/arnobt78/bookstore-backend/internal/catalog"
	"github.com/arnobt78/bookstore-backend/internal/config"
	"github.com/arnobt78/bookstore-backend/internal/db"
	"github.com/arnobt78/bookstore-backend/internal/dedup"
	"github.com/arnobt78/bookstore-backend/internal/handler"
	"github.com/arnobt78/bookstore-backend/internal/notify"
	"github.com/arnobt78/bookstore-backend/internal/order"
	"github.com/arnobt78/bookstore-backend/internal/payment"
	"github.com/arnobt78/bookstore-backend/internal/shipping"
	"github.com/arnobt78/bookstore-backend/internal/store"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	log.Logger = log.With().Str("service", "bookstore-backend").Logger()

	log.Info().Msg("Storefront core starting...")

	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := db.Migrate(pool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}

	orders, err := store.NewTable[order.Order](ctx, pool, "orders",
		store.Index{Attr: "userId", Name: "idx_orders_user_id"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open orders table")
	}
	products, err := store.NewTable[catalog.Product](ctx, pool, "products",
		store.Index{Attr: "featured", Name: "idx_products_featured"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open products table")
	}
	users, err := store.NewTable[order.User](ctx, pool, "users",
		store.Index{Attr: "email", Name: "idx_users_email"})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open users table")
	}
	activity, err := store.NewTable[notify.Activity](ctx, pool, "activity")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open activity table")
	}

	var emailSender notify.EmailSender
	if cfg.Email.APIKey != "" {
		emailSender = notify.NewEmailClient(cfg.Email.APIKey, cfg.Email.FromEmail, cfg.Email.FromName)
	} else {
		log.Warn().Msg("EMAIL_API_KEY not set, email dispatch disabled")
	}
	notifier := notify.New(emailSender, activity, cfg.Email.AdminEmail)

	var gateway order.PaymentGateway
	if cfg.Payment.SecretKey != "" {
		gateway = payment.NewClient(cfg.Payment.SecretKey)
	} else {
		log.Warn().Msg("PAYMENT_SECRET_KEY not set, payment operations disabled")
	}

	var shipper order.LabelPurchaser
	if cfg.Shipping.APIKey != "" {
		client := shipping.NewClient(cfg.Shipping.APIKey, shipping.Address{
			Name:    cfg.Shipping.SenderName,
			Street1: cfg.Shipping.SenderStreet,
			City:    cfg.Shipping.SenderCity,
			State:   cfg.Shipping.SenderState,
			Zip:     cfg.Shipping.SenderZip,
			Country: cfg.Shipping.SenderCountry,
			Email:   cfg.Shipping.SenderEmail,
			Phone:   cfg.Shipping.SenderPhone,
		})
		if client.Sandbox() {
			log.Info().Msg("Shipping adapter running in sandbox mode")
		}
		shipper = client
	} else {
		log.Warn().Msg("SHIPPING_API_KEY not set, label generation disabled")
	}

	var deduper *dedup.Deduper
	if cfg.Redis.Addr != "" {
		deduper = dedup.New(dedup.NewRedisClient(cfg.Redis.Addr))
	} else {
		log.Warn().Msg("REDIS_ADDR not set, webhook dedup cache disabled")
	}

	inventory := catalog.NewInventory(products)
	coordinator := order.NewCoordinator(orders, users, inventory, gateway, shipper, notifier)
	h := handler.New(coordinator, cfg.Payment.WebhookSecret, deduper)
	router := handler.NewRouter(h, []byte(cfg.Auth.JWTSecret))

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.App.Port).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown failed")
	}
	notifier.Wait()
	log.Info().Msg("Server stopped")
}
