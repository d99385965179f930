package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"slotpass/config"
	"slotpass/cron"
	"slotpass/database"
	disputeRepoPkg "slotpass/database/repository/dispute"
	escrowRepoPkg "slotpass/database/repository/escrow"
	facilityRepoPkg "slotpass/database/repository/facility"
	holidayRepoPkg "slotpass/database/repository/holiday"
	paymentRepoPkg "slotpass/database/repository/payment"
	reservationRepoPkg "slotpass/database/repository/reservation"
	slotRepoPkg "slotpass/database/repository/slots"
	subscriptionRepoPkg "slotpass/database/repository/subscription"
	"slotpass/handlers"
	"slotpass/routes"
	"slotpass/services/attendance"
	"slotpass/services/booking"
	"slotpass/services/dispute"
	"slotpass/services/escrow"
	"slotpass/services/holiday"
	"slotpass/services/payment"
	"slotpass/services/slots"
	"slotpass/services/subscription"
	"slotpass/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitIdempotencyCache()
	stripe.Key = config.AppConfig.StripeKey

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	// Repositories.
	reservationRepo := reservationRepoPkg.NewMongoReservationRepo()
	slotRepo := slotRepoPkg.NewMongoSlotRepo()
	holidayRepo := holidayRepoPkg.NewMongoHolidayRepo()
	facilityRepo := facilityRepoPkg.NewMongoFacilityRepo()
	escrowRepo := escrowRepoPkg.NewMongoEscrowRepo()
	paymentRepo := paymentRepoPkg.NewMongoPaymentRepo()
	subscriptionRepo := subscriptionRepoPkg.NewMongoSubscriptionRepo()
	disputeRepo := disputeRepoPkg.NewMongoDisputeRepo()

	for name, ensure := range map[string]func() error{
		"reservations": reservationRepo.EnsureIndexes,
		"slots":        slotRepo.EnsureIndexes,
		"escrows":      escrowRepo.EnsureIndexes,
		"payments":     paymentRepo.EnsureIndexes,
	} {
		if err := ensure(); err != nil {
			logger.Sugar().Fatalf("main: failed to ensure %s indexes: %v", name, err)
		}
	}

	// Services.
	gateway := payment.NewStripeGateway()
	scheduler := cron.NewScheduler()
	defer scheduler.Close()

	escrowService := escrow.NewEscrowService(escrowRepo, paymentRepo, disputeRepo, reservationRepo, gateway)
	subscriptionService := subscription.NewSubscriptionService(subscriptionRepo)
	paymentService := payment.NewPaymentService(
		paymentRepo, reservationRepo, facilityRepo,
		escrowService, subscriptionService, gateway, scheduler,
	)
	idemStore := &booking.RedisIdempotencyStore{Client: utils.GetIdempotencyCacheClient()}
	bookingService := booking.NewBookingService(reservationRepo, idemStore, escrowService)
	slotService := slots.NewSlotService(slotRepo, holidayRepo, facilityRepo)
	holidayService := holiday.NewHolidayService(holidayRepo, facilityRepo, slotService)
	attendanceService := attendance.NewAttendanceService(reservationRepo, facilityRepo)
	disputeService := dispute.NewDisputeService(disputeRepo, reservationRepo, facilityRepo, escrowService)

	cron.InitWorker(escrowService, slotService, paymentService)

	handlerBundle := &handlers.HandlerBundle{
		Booking:       bookingService,
		Slots:         slotService,
		Holidays:      holidayService,
		Payments:      paymentService,
		Attendance:    attendanceService,
		Disputes:      disputeService,
		Escrows:       escrowService,
		Subscriptions: subscriptionService,
	}
	routes.RegisterRoutes(router, handlerBundle)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
