package main

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/certlayer/certlayer/adapters/events"
	"github.com/certlayer/certlayer/adapters/registry"
	"github.com/certlayer/certlayer/adapters/store"
	"github.com/certlayer/certlayer/config"
	"github.com/certlayer/certlayer/ports"
	"github.com/certlayer/certlayer/service"
	transport "github.com/certlayer/certlayer/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	clock := ports.SystemClock()
	logger := watermill.NewStdLogger(false, false)

	var (
		challenges ports.ChallengeStore
		sessions   ports.SessionStore
		publisher  message.Publisher
	)

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to parse Redis URL: %v", err)
		}
		client := redis.NewClient(opts)

		challenges = store.NewRedisChallengeStore(client, clock)
		sessions = store.NewRedisSessionStore(client, clock)

		publisher, err = redisstream.NewPublisher(
			redisstream.PublisherConfig{Client: client},
			logger,
		)
		if err != nil {
			log.Fatalf("failed to create Redis publisher: %v", err)
		}
	} else {
		challenges = store.NewMemoryChallengeStore()
		sessions = store.NewMemorySessionStore()
		publisher = gochannel.NewGoChannel(gochannel.Config{}, logger)
	}

	if cfg.InternalAPIKey == "" {
		log.Printf("warning: INTERNAL_API_KEY is not set; internal access tier is open")
	}

	eventPub := events.NewWatermillPublisher(publisher)
	resourceStore := registry.NewMemoryRegistry(clock)

	authService := service.NewAuthService(
		challenges,
		sessions,
		eventPub,
		clock,
		cfg.AdminWallets,
		cfg.ChallengeTTL,
		cfg.SessionTTL,
	)
	authzEngine := service.NewAuthorizationEngine(authService, resourceStore, cfg.InternalAPIKey)
	registryService := service.NewRegistryService(resourceStore, authzEngine, eventPub, clock)

	router := transport.SetupRouter(authService, registryService, cfg.ServiceName)

	log.Printf("%s listening on :%s", cfg.ServiceName, cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
