package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"pinjamin/internal/config"
	"pinjamin/internal/database"
	"pinjamin/internal/middleware"
	"pinjamin/internal/modules/booking"
	"pinjamin/internal/modules/payment"
	"pinjamin/internal/modules/refund"
	"pinjamin/internal/notification"
	jwtsvc "pinjamin/internal/pkg/jwt"
	"pinjamin/internal/pkg/midtrans"
	"pinjamin/internal/repository"
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
	if err := repository.Migrate(db); err != nil {
		log.Fatal(err)
	}
	if err := notification.Migrate(db); err != nil {
		log.Fatal(err)
	}

	roomRepo := repository.NewRoomRepository(db)
	bookingRepo := repository.NewBookingRepository(db, cfg.Location)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRepository(db)

	gateway := midtrans.NewClient(cfg.ServerKey)
	sink := notification.NewSink(db)
	j := jwtsvc.New(cfg.JWTSecret)

	refundProc := refund.NewProcessor(refundRepo, gateway, cfg.GatewayTimeout, log.Printf)
	bookingService := booking.NewService(
		bookingRepo, roomRepo, paymentRepo,
		gateway, refundProc, sink,
		cfg.Location, cfg.GatewayFee, log.Printf,
	)
	bookingHandler := booking.NewHandler(bookingService)

	paymentService := payment.NewService(paymentRepo, gateway, sink, log.Printf)
	paymentHandler := payment.NewHandler(paymentService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// gateway webhook: unauthenticated, signature-gated
		paymentHandler.RegisterRoutes(v1)

		authed := v1.Group("/")
		authed.Use(middleware.Auth(j))
		{
			bookingHandler.RegisterRoutes(authed)

			admin := authed.Group("/")
			admin.Use(middleware.RequireRole(middleware.RoleAdmin))
			{
				bookingHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	if err := r.Run(":8080"); err != nil {
		log.Fatal(err)
	}
}
