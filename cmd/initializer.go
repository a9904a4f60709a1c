package main

import (
	"database/sql"
	"log"
	"log/slog"

	"firebase.google.com/go/messaging"
	"github.com/redis/go-redis/v9"

	"waxhands/internal/config"
	"waxhands/internal/handlers"
	"waxhands/internal/repositories"
	"waxhands/internal/services"
	"waxhands/utils"
)

type application struct {
	errorLog   *log.Logger
	infoLog    *log.Logger
	db         *sql.DB
	signingKey string

	wsManager *WebSocketManager
	userRepo  *repositories.UserRepository

	userHandler     *handlers.UserHandler
	schoolHandler   *handlers.SchoolHandler
	childHandler    *handlers.ChildHandler
	workshopHandler *handlers.WorkshopHandler
	paymentHandler  *handlers.PaymentHandler
	pageHandler     *handlers.PageHandler
	pushHandler     *handlers.PushHandler
}

func initializeApp(
	cfg config.Config,
	db *sql.DB,
	rdb *redis.Client,
	fcmClient *messaging.Client,
	errorLog, infoLog *log.Logger,
	logger *slog.Logger,
) (*application, error) {
	// Repositories
	userRepo := repositories.UserRepository{DB: db}
	schoolRepo := repositories.SchoolRepository{DB: db}
	childRepo := repositories.ChildRepository{DB: db}
	workshopRepo := repositories.WorkshopRepository{DB: db}
	invoiceRepo := repositories.InvoiceRepository{DB: db}
	pageRepo := repositories.PageRepository{DB: db}
	pushTokenRepo := repositories.PushTokenRepository{DB: db}

	// Платёжный шлюз
	robokassa, err := services.NewRobokassaService(services.RobokassaConfig{
		MerchantLogin:  cfg.Robokassa.MerchantLogin,
		Password1:      cfg.Robokassa.Password1,
		Password2:      cfg.Robokassa.Password2,
		TestPassword1:  cfg.Robokassa.TestPassword1,
		TestPassword2:  cfg.Robokassa.TestPassword2,
		IsTest:         cfg.Robokassa.IsTest,
		BaseURL:        cfg.Robokassa.BaseURL,
		StatusURL:      cfg.Robokassa.StatusURL,
		SuccessPageURL: cfg.Robokassa.SuccessPageURL,
		FailPageURL:    cfg.Robokassa.FailPageURL,
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	tokenManager, err := utils.NewManager(cfg.JWT.SigningKey)
	if err != nil {
		return nil, err
	}

	storage, err := utils.NewStorage(
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
		cfg.Storage.Region,
		cfg.Storage.Endpoint,
	)
	if err != nil {
		return nil, err
	}

	wsManager := NewWebSocketManager()
	pushHandler := handlers.NewPushHandler(fcmClient, &pushTokenRepo)
	notifier := &settlementNotifier{ws: wsManager, push: pushHandler}

	// Services
	userService := &services.UserService{
		UserRepo:     &userRepo,
		TokenManager: tokenManager,
		Redis:        rdb,
		SigningKey:   cfg.JWT.SigningKey,
	}
	schoolService := &services.SchoolService{SchoolRepo: &schoolRepo}
	childService := &services.ChildService{ChildRepo: &childRepo}
	workshopService := &services.WorkshopService{
		WorkshopRepo: &workshopRepo,
		InvoiceRepo:  &invoiceRepo,
		Robokassa:    robokassa,
	}
	paymentService := &services.PaymentService{
		Invoices:  &invoiceRepo,
		Robokassa: robokassa,
		Notifier:  notifier,
		Bookings:  &workshopRepo,
		Logger:    logger,
	}
	pageService := &services.PageService{PageRepo: &pageRepo}

	// Handlers
	userHandler := &handlers.UserHandler{Service: userService}
	schoolHandler := &handlers.SchoolHandler{Service: schoolService, Storage: storage}
	childHandler := &handlers.ChildHandler{Service: childService}
	workshopHandler := &handlers.WorkshopHandler{Service: workshopService}
	paymentHandler := &handlers.PaymentHandler{
		Payments:  paymentService,
		Workshops: workshopService,
		Robokassa: robokassa,
		ErrorLog:  errorLog,
	}
	pageHandler := &handlers.PageHandler{Service: pageService}

	return &application{
		errorLog:   errorLog,
		infoLog:    infoLog,
		db:         db,
		signingKey: cfg.JWT.SigningKey,

		wsManager: wsManager,
		userRepo:  &userRepo,

		userHandler:     userHandler,
		schoolHandler:   schoolHandler,
		childHandler:    childHandler,
		workshopHandler: workshopHandler,
		paymentHandler:  paymentHandler,
		pageHandler:     pageHandler,
		pushHandler:     pushHandler,
	}, nil
}

func openDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Printf("Failed to open DB: %v", err)
		return nil, err
	}
	if err = db.Ping(); err != nil {
		log.Printf("Failed to ping DB: %v", err)
		return nil, err
	}
	db.SetMaxIdleConns(35)
	log.Println("Successfully connected to database")
	return db, nil
}
