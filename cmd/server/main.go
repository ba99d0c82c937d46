package main

import (
	"context"
	"time"

	authhandler "activerse/internal/auth/handler"
	authrepo "activerse/internal/auth/repository"
	authservice "activerse/internal/auth/service"
	bookingshandler "activerse/internal/bookings/handler"
	bookingsrepo "activerse/internal/bookings/repository"
	bookingsservice "activerse/internal/bookings/service"
	bookingsvalidator "activerse/internal/bookings/validator"
	contacthandler "activerse/internal/contact/handler"
	contactservice "activerse/internal/contact/service"
	slotshandler "activerse/internal/slots/handler"
	slotsrepo "activerse/internal/slots/repository"
	slotsservice "activerse/internal/slots/service"
	"activerse/pkg/app"
	"activerse/pkg/config"
	"activerse/pkg/kafka"
	kafkaconfig "activerse/pkg/kafka/config"
	"activerse/pkg/middleware"
)

const ServiceName = "activerse"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Activerse booking service")

	guard := middleware.NewGuard(cfg.JWTSecret, cfg.Log)

	bookingEvents, contactEvents := initProducers(cfg)
	if bookingEvents != nil {
		defer bookingEvents.Close()
	}
	if contactEvents != nil {
		defer contactEvents.Close()
	}

	authService := initAuth(cfg)
	bookingService, slotService := initBookings(cfg, bookingEvents)
	contactService := initContact(cfg, contactEvents)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		bookingshandler.NewBookingHandler(bookingService, guard, cfg.Log),
		slotshandler.NewSlotHandler(slotService, guard, cfg.Log),
		authhandler.NewAuthHandler(authService, guard, cfg.Log, cfg.ExposeResetToken),
		contacthandler.NewContactHandler(contactService, cfg.Log),
	)
	serverApp.Run()
}

func initProducers(cfg *config.Config) (*kafka.Producer, *kafka.Producer) {
	if !cfg.KafkaEnabled {
		cfg.Log.Info("Kafka disabled; booking events will not be published")
		return nil, nil
	}

	kafkaCfg, err := kafkaconfig.Load()
	if err != nil {
		cfg.Log.Fatal("Invalid Kafka configuration", "error", err)
	}

	bookingEvents, err := kafka.NewProducer(kafkaCfg, cfg.BookingEventsTopic, cfg.BookingEventsDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create booking events producer", "error", err)
	}

	contactEvents, err := kafka.NewProducer(kafkaCfg, cfg.ContactMessagesTopic, "")
	if err != nil {
		cfg.Log.Fatal("Failed to create contact messages producer", "error", err)
	}

	cfg.Log.Info("Kafka producers initialized",
		"booking_events_topic", cfg.BookingEventsTopic,
		"contact_messages_topic", cfg.ContactMessagesTopic,
	)
	return bookingEvents, contactEvents
}

func initAuth(cfg *config.Config) authservice.AuthService {
	userRepo := authrepo.NewMongoUserRepository(cfg)
	tokenRepo := authrepo.NewMongoResetTokenRepository(cfg)
	authService := authservice.NewAuthService(userRepo, tokenRepo, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := authService.Bootstrap(ctx); err != nil {
		cfg.Log.Fatal("Failed to bootstrap admin user", "error", err)
	}

	return authService
}

func initBookings(cfg *config.Config, producer *kafka.Producer) (bookingsservice.BookingService, slotsservice.SlotService) {
	bookingValidator := bookingsvalidator.NewBookingValidator(cfg.Log)
	bookingRepo := bookingsrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingsrepo.NewSlotLockRepository(cfg)
	slotRepo := slotsrepo.NewMongoSlotRepository(cfg)

	publisher := bookingsservice.NewNoopEventPublisher()
	if producer != nil {
		publisher = bookingsservice.NewKafkaEventPublisher(producer, cfg.Log)
	}

	bookingService := bookingsservice.NewBookingService(
		bookingRepo,
		lockRepo,
		slotRepo,
		bookingValidator,
		publisher,
		cfg,
	)
	slotService := slotsservice.NewSlotService(slotRepo, bookingRepo, cfg)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService, slotService
}

func initContact(cfg *config.Config, producer *kafka.Producer) contactservice.ContactService {
	var publisher contactservice.MessagePublisher
	if producer != nil {
		publisher = contactservice.NewKafkaMessagePublisher(producer)
	}
	return contactservice.NewContactService(publisher, cfg)
}
