package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"
	log "github.com/sirupsen/logrus"

	config "monopoly-service/configs"
	"monopoly-service/internal/gamesvc/broker"
	"monopoly-service/internal/gamesvc/db"
	handlers "monopoly-service/internal/gamesvc/handlers"
	"monopoly-service/internal/gamesvc/server"
	"monopoly-service/internal/gamesvc/service"
	"monopoly-service/internal/gamesvc/store"
	nats "monopoly-service/internal/nats"
)

const SERVICE_NAME = "game"

var instanceId string

func init() {
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId)
	config.LoadEnv(SERVICE_NAME)
}

func main() {

	// pg connection
	dbpool, err := db.Connect()
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer db.ClosePool()
	log.Printf("pg connection established successfully")

	userStore := store.NewUserStore(dbpool)
	sessionStore := store.NewSessionStore(dbpool)
	matchStore := store.NewMatchStore(dbpool)
	challengeStore := store.NewChallengeStore(dbpool)

	// mongo holds the per-match move log, optional
	var moveStore *store.MoveStore
	if os.Getenv("MONGODB_URI") != "" {
		mongoDb, cancelMongo, err := db.ConnectMongo()
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer cancelMongo()
		log.Printf("mongo connection established successfully")
		moveStore = store.NewMoveStore(mongoDb)
	} else {
		log.Warn("MONGODB_URI not set, move logging disabled")
	}

	authService := service.NewAuthService(userStore, sessionStore)
	matchService := service.NewMatchService(userStore, matchStore, moveStore)
	challengeService := service.NewChallengeService(challengeStore)

	// Connect to NATS, optional
	var nc *nats.Nats
	if os.Getenv("NATS_URL") != "" {
		nc, err = nats.Connect()
		if err != nil {
			log.Fatalf("Error: unable to connect to NATS server %v", err)
		}
		defer nc.Conn.Close()
		log.Printf("NATS connection established successfully %s", nc.Url)
	} else {
		log.Warn("NATS_URL not set, event publishing disabled")
	}

	var b *broker.Broker
	if nc != nil {
		b = broker.NewBroker(nc.Conn)
	} else {
		b = broker.NewBroker(nil)
	}

	// game endpoint
	srv := server.NewServer(server.DefaultServerConfig(), authService, matchService, challengeService, b)
	gamePort := os.Getenv("GAME_PORT")
	if gamePort == "" {
		gamePort = "4060"
	}
	if err := srv.Listen(":" + gamePort); err != nil {
		log.Fatalf("Failed to start game endpoint: %v", err)
	}

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(c.Handler)

	// to protect the service api from any over requests
	rateLimitStr := os.Getenv("RATE_LIMIT")
	rateLimit, err := strconv.Atoi(rateLimitStr)
	if err != nil {
		log.Fatalf("Invalid RATE_LIMIT value: %v", err)
	}
	r.Use(httprate.LimitByIP(rateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(srv)
	h.InitAuth()
	h.SetRoutes(r)

	// Create server with timeout settings
	httpServer := &http.Server{
		Addr:         ":" + os.Getenv("PORT"),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, httpServer.Addr)

	// Wait for interrupt signal to gracefully shutdown the server
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	srv.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
