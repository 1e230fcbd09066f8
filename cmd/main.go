package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	cancelBookingHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/cancel_booking"
	createBookingHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/create_booking"
	getAvailableSlotsHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_booking"
	getResourceBookingsHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_resource_bookings"
	getResourceConfigHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_resource_config"
	getSeatsHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_seats"
	getUserBookingsHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/get_user_bookings"
	openInventoryHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/open_inventory"
	openShowtimeHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/open_showtime"
	reserveSeatsHandler "github.com/m04kA/SMC-BookingEngine/internal/api/handlers/reserve_seats"
	"github.com/m04kA/SMC-BookingEngine/internal/api/middleware"
	"github.com/m04kA/SMC-BookingEngine/internal/clock"
	"github.com/m04kA/SMC-BookingEngine/internal/config"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/cache/seatlease"
	bookingRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/booking"
	configRepo "github.com/m04kA/SMC-BookingEngine/internal/infra/storage/config"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/inventory"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/memory"
	"github.com/m04kA/SMC-BookingEngine/internal/infra/storage/seats"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/events"
	"github.com/m04kA/SMC-BookingEngine/internal/integrations/payments"
	"github.com/m04kA/SMC-BookingEngine/internal/service/allocator"
	bookingsService "github.com/m04kA/SMC-BookingEngine/internal/service/bookings"
	"github.com/m04kA/SMC-BookingEngine/internal/service/cancellation"
	configService "github.com/m04kA/SMC-BookingEngine/internal/service/config"
	createBookingUC "github.com/m04kA/SMC-BookingEngine/internal/usecase/create_booking"
	getAvailableSlotsUC "github.com/m04kA/SMC-BookingEngine/internal/usecase/get_available_slots"
	reserveSeatsUC "github.com/m04kA/SMC-BookingEngine/internal/usecase/reserve_seats"
	"github.com/m04kA/SMC-BookingEngine/internal/worker/leasesweeper"
	"github.com/m04kA/SMC-BookingEngine/pkg/dbmetrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/logger"
	"github.com/m04kA/SMC-BookingEngine/pkg/metrics"
	"github.com/m04kA/SMC-BookingEngine/pkg/txmanager"
)

// paymentGateway объединяет списание (create_booking) и возврат (cancellation)
type paymentGateway interface {
	Charge(ctx context.Context, req payments.ChargeRequest) (*payments.Result, error)
	Refund(ctx context.Context, req payments.RefundRequest) (*payments.Result, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
	Close() error
}

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting SMC-BookingEngine...")
	log.Info("Configuration loaded from config.toml")

	location, err := cfg.Engine.Location()
	if err != nil {
		log.Fatal("Failed to load timezone %q: %v", cfg.Engine.Timezone, err)
	}

	cancellationPolicies, err := cfg.CancellationPolicies()
	if err != nil {
		log.Fatal("Invalid cancellation policies: %v", err)
	}

	// Метрики: при выключенных метриках nil-коллектор молча игнорирует вызовы
	var metricsCollector *metrics.Metrics
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	var wrappedDB *dbmetrics.DB
	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")
	} else {
		wrappedDB = dbmetrics.Wrap(db, nil, cfg.Metrics.ServiceName)
	}

	txMgr := txmanager.NewTransactionManager(wrappedDB)
	systemClock := clock.NewSystem()

	// Репозитории
	bookingRepository := bookingRepo.NewRepository(wrappedDB)
	configRepository := configRepo.NewRepository(wrappedDB)

	// Хранилища вместимости
	var (
		inventoryStore allocator.InventoryStore
		slotStore      allocator.SlotCounterStore
		seatStore      allocator.SeatStore
	)

	switch cfg.Engine.CapacityStore {
	case config.StoreMemory:
		capacity := memory.NewCapacityStore()
		inventoryStore, slotStore = capacity, capacity
	default:
		capacity := inventory.NewRepository(wrappedDB, txMgr)
		inventoryStore, slotStore = capacity, capacity
	}
	log.Info("Capacity store: %s", cfg.Engine.CapacityStore)

	switch cfg.Engine.SeatStore {
	case config.StoreRedis:
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()

		pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Fatal("Failed to ping redis at %s: %v", cfg.Redis.Addr, err)
		}
		seatStore = seatlease.NewStore(redisClient)
	case config.StoreMemory:
		seatStore = memory.NewSeatStore()
	default:
		seatStore = seats.NewRepository(wrappedDB, txMgr)
	}
	log.Info("Seat store: %s", cfg.Engine.SeatStore)

	// Интеграции
	var paymentClient paymentGateway
	switch cfg.Payments.Mode {
	case config.PaymentsHTTP:
		paymentClient = payments.NewClient(cfg.Payments.URL, time.Duration(cfg.Payments.Timeout)*time.Second, log)
		log.Info("Payment gateway: %s (timeout=%ds)", cfg.Payments.URL, cfg.Payments.Timeout)
	default:
		paymentClient = payments.NewFake()
		log.Warn("Payment gateway: in-process fake, no money is moved")
	}

	var publisher eventPublisher
	switch cfg.Events.Driver {
	case config.EventsRabbitMQ:
		rabbit, err := events.NewRabbitMQ(cfg.Events.URL, cfg.Events.Exchange, log)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = rabbit
	case config.EventsKafka:
		publisher = events.NewKafka(cfg.Events.Brokers, cfg.Events.Topic, log)
	default:
		publisher = events.Noop{}
	}
	defer publisher.Close()
	log.Info("Event publisher: %s", cfg.Events.Driver)

	// Сервисы
	allocatorSvc := allocator.NewService(
		inventoryStore,
		slotStore,
		seatStore,
		systemClock,
		cfg.Engine.LeaseTTLDuration(),
		metricsCollector,
		log,
	)
	configSvc := configService.NewService(configRepository, cancellationPolicies, log)
	bookingSvc := bookingsService.NewService(bookingRepository, log)
	cancellationSvc := cancellation.NewService(
		bookingRepository,
		configSvc,
		allocatorSvc,
		paymentClient,
		publisher,
		txMgr,
		systemClock,
		metricsCollector,
		log,
	)

	// Use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		configSvc,
		allocatorSvc,
		paymentClient,
		publisher,
		txMgr,
		systemClock,
		location,
		log,
	)
	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		bookingRepository,
		configSvc,
		systemClock,
		location,
		log,
	)
	reserveSeatsUseCase := reserveSeatsUC.NewUseCase(configSvc, allocatorSvc, systemClock, log)

	// Handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, cancellationSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(cancellationSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	getResourceBookings := getResourceBookingsHandler.NewHandler(bookingSvc, log)
	getResourceConfig := getResourceConfigHandler.NewHandler(configSvc, location, log)
	openInventory := openInventoryHandler.NewHandler(configSvc, allocatorSvc, log)
	openShowtime := openShowtimeHandler.NewHandler(configSvc, allocatorSvc, log)
	getSeats := getSeatsHandler.NewHandler(configSvc, allocatorSvc, log)
	reserveSeats := reserveSeatsHandler.NewHandler(reserveSeatsUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()
	r.Use(middleware.LoggingMiddleware(log))

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector))
		r.Handle(cfg.Metrics.Path, metricsCollector.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Сетка доступных слотов с ценами
	api.HandleFunc("/resources/{resourceId}/available-slots", getAvailableSlots.Handle).Methods(http.MethodGet)

	// Конфигурация ресурса на дату
	api.HandleFunc("/resources/{resourceId}/config", getResourceConfig.Handle).Methods(http.MethodGet)

	// Карта мест сеанса
	api.HandleFunc("/showtimes/{showtimeId}/seats", getSeats.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Места ---
	protected.HandleFunc("/showtimes/{showtimeId}/reservations", reserveSeats.Handle).Methods(http.MethodPost)

	// --- Управление ресурсами (для операторов площадок) ---
	protected.HandleFunc("/resources/{resourceId}/bookings", getResourceBookings.Handle).Methods(http.MethodGet)
	protected.HandleFunc("/resources/{resourceId}/inventory", openInventory.Handle).Methods(http.MethodPost)
	protected.HandleFunc("/showtimes/{showtimeId}/seats", openShowtime.Handle).Methods(http.MethodPost)

	// Фоновый обход истекших удержаний мест
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	sweeper := leasesweeper.NewWorker(allocatorSvc, cfg.Engine.SweepIntervalDuration(), log)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		sweeper.Run(workerCtx)
	}()

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	stopWorkers()
	<-sweeperDone

	// Останавливаем сбор метрик connection pool
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server stopped gracefully")
}
