package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"pinjamin/internal/config"
	"pinjamin/internal/database"
	"pinjamin/internal/modules/booking"
	"pinjamin/internal/modules/payment"
	"pinjamin/internal/modules/refund"
	"pinjamin/internal/notification"
	"pinjamin/internal/pkg/midtrans"
	"pinjamin/internal/repository"
	"pinjamin/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db, cfg.Location)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)

	gateway := midtrans.NewClient(cfg.ServerKey)
	sink := notification.NewSink(db)

	refundProc := refund.NewProcessor(refundRepo, gateway, cfg.GatewayTimeout, log.Printf)
	bookingService := booking.NewService(
		bookingRepo, roomRepo, paymentRepo,
		gateway, refundProc, sink,
		cfg.Location, cfg.GatewayFee, log.Printf,
	)
	paymentService := payment.NewService(paymentRepo, gateway, sink, log.Printf)

	w := worker.New(
		bookingRepo, bookingService, paymentRepo,
		paymentService, gateway, refundProc, sink,
		cfg.WorkerInterval, cfg.PendingMaxAge,
		cfg.RefundMaxAttempts, cfg.Location,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	w.Run(ctx)
}
