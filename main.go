package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rabbitmq/amqp091-go"

	"foodcourt-backend/internal/config"
	"foodcourt-backend/internal/database"
	"foodcourt-backend/internal/engine"
	"foodcourt-backend/internal/handlers"
	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/middleware"
	"foodcourt-backend/internal/notify"
	"foodcourt-backend/internal/realtime"
	"foodcourt-backend/internal/store"
)

func main() {
	config.Load()
	log := logger.New("foodcourt-backend")

	client, err := database.Connect(config.AppEnv.MongoURI)
	if err != nil {
		log.Error("mongodb connection failed", logger.Err(err))
		os.Exit(1)
	}

	db := client.Database(config.AppEnv.DBName)
	log.Info("mongodb connected", logger.String("db", db.Name()))

	if err := database.EnsureOrderIndexes(db, log); err != nil {
		log.Warning("order index warning", logger.Err(err))
	}
	if err := database.EnsureNotificationIndexes(db, log); err != nil {
		log.Warning("notification index warning", logger.Err(err))
	}
	if err := database.EnsureRestaurantIndexes(db, log); err != nil {
		log.Warning("restaurant index warning", logger.Err(err))
	}
	if err := database.EnsureUserIndexes(db, log); err != nil {
		log.Warning("user index warning", logger.Err(err))
	}

	orders := store.NewMongoStore(db, log)
	owners := notify.NewMongoOwnerResolver(db)

	var sink notify.Sink = notify.NewMongoSink(db)
	if config.AppEnv.AMQPURL != "" {
		conn, err := amqp091.Dial(config.AppEnv.AMQPURL)
		if err != nil {
			log.Error("rabbitmq connection failed", logger.Err(err))
			os.Exit(1)
		}
		amqpSink, err := notify.NewAMQPSink(conn, config.AppEnv.AMQPExchange)
		if err != nil {
			log.Error("rabbitmq setup failed", logger.Err(err))
			os.Exit(1)
		}
		sink = notify.TeeSink{sink, amqpSink}
	}

	dispatcher := notify.NewDispatcher(sink, owners, log)
	eng := engine.New(orders, dispatcher, log)
	hub := realtime.NewHub(orders, log)

	secret := config.AppEnv.JWTSecret
	feePct := config.AppEnv.PlatformFeePercent
	defaultRate := config.AppEnv.DefaultCommissionPercent

	r := gin.Default()

	customer := r.Group("/")
	customer.Use(middleware.CustomerAuth(secret))
	{
		customer.POST("/orders", handlers.PlaceOrder(orders, dispatcher, owners, log))
		customer.GET("/orders", handlers.GetMyOrders(orders, log))
	}

	authed := r.Group("/")
	authed.Use(middleware.AuthGuard(secret))
	{
		authed.GET("/orders/:id", handlers.GetOrder(orders, log))
		authed.POST("/orders/:id/status", handlers.RequestTransition(eng, log))
		authed.GET("/streams/orders", handlers.StreamOrders(hub, log))
		authed.GET("/notifications", handlers.GetNotifications(db, log))
		authed.PUT("/notifications/:id/read", handlers.MarkNotificationRead(db, log))
	}

	vendor := r.Group("/vendor")
	vendor.Use(middleware.VendorAuth(secret))
	{
		vendor.GET("/orders", handlers.GetVendorOrders(orders, log))
		vendor.GET("/orders/:id/split", handlers.GetOrderSplit(orders, db, feePct, defaultRate, log))
	}

	admin := r.Group("/admin/api")
	admin.Use(middleware.AdminAuth(secret))
	{
		admin.GET("/restaurants/:id/orders", handlers.GetRestaurantOrders(orders, log))
		admin.GET("/restaurants/:id/ledger", handlers.GetLedger(orders, db, feePct, defaultRate, log))
		admin.GET("/orders/:id/split", handlers.GetOrderSplit(orders, db, feePct, defaultRate, log))
		admin.POST("/orders/:id/payment", handlers.SettlePayment(orders, log))
		admin.POST("/restaurants/:id/review", handlers.ReviewVendor(db, dispatcher, log))
		admin.POST("/restaurants/:id/payout", handlers.ReviewPayout(db, dispatcher, log))
		admin.POST("/users/:id/suspend", handlers.SetAccountSuspension(db, dispatcher, true, log))
		admin.POST("/users/:id/activate", handlers.SetAccountSuspension(db, dispatcher, false, log))
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.Error("server stopped", logger.Err(err))
		os.Exit(1)
	}
}
