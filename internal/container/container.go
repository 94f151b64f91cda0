package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	_ "github.com/danielgtaylor/huma/v2/formats/cbor" // CBOR format support for huma
	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jaevor/go-nanoid"
	"github.com/redis/go-redis/v9"
	"github.com/samber/do"
	"github.com/serroba/shortlink-go/internal/analytics"
	analyticsstore "github.com/serroba/shortlink-go/internal/analytics/store"
	"github.com/serroba/shortlink-go/internal/auth"
	"github.com/serroba/shortlink-go/internal/handlers"
	"github.com/serroba/shortlink-go/internal/health"
	"github.com/serroba/shortlink-go/internal/logging"
	"github.com/serroba/shortlink-go/internal/messaging"
	"github.com/serroba/shortlink-go/internal/middleware"
	"github.com/serroba/shortlink-go/internal/qrcode"
	"github.com/serroba/shortlink-go/internal/ratelimit"
	"github.com/serroba/shortlink-go/internal/shortener"
	"github.com/serroba/shortlink-go/internal/store"
	"github.com/serroba/shortlink-go/internal/store/migrations"
	"github.com/serroba/shortlink-go/internal/user"
	"go.uber.org/zap"
)

const (
	consumerGroup   = "analytics"
	requestIDLength = 21
	connectTimeout  = 10 * time.Second
)

var errMissingSecret = errors.New("jwt secret is required")

// RedisClient closes the shared client when the injector shuts down.
type RedisClient struct {
	Client *redis.Client
}

func (c *RedisClient) Shutdown() error {
	return c.Client.Close()
}

// Repositories groups the stores behind one transaction boundary.
type Repositories struct {
	Links   shortener.Repository
	Users   user.Repository
	QRCodes qrcode.Repository
	Tx      shortener.Transactor
	Health  health.Checker
}

// LoggerPackage provides the zap logger.
func LoggerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*zap.Logger, error) {
		opts := do.MustInvoke[*Options](i)

		return logging.NewLogger(opts.LogFormat, opts.LogLevel)
	})
}

// RedisPackage provides the Redis client. It is only resolved when
// Options.RedisAddr is set.
func RedisPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*RedisClient, error) {
		opts := do.MustInvoke[*Options](i)
		client := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})

		return &RedisClient{Client: client}, nil
	})
}

// PostgresPackage provides the pgx backed store, migrated to the latest
// schema unless Options.Migrate is false.
func PostgresPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*store.Postgres, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)

		if opts.Migrate {
			if err := migrate(opts.DatabaseURL, logger); err != nil {
				return nil, err
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()

		pool, err := pgxpool.New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("connect postgres: %w", err)
		}

		pg := store.NewPostgres(pool)
		if err := pg.Ping(ctx); err != nil {
			pool.Close()

			return nil, fmt.Errorf("ping postgres: %w", err)
		}

		logger.Info("connected to postgres")

		return pg, nil
	})
}

func migrate(databaseURL string, logger *zap.Logger) (err error) {
	m, err := migrations.New(databaseURL, logger)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, m.Close())
	}()

	return m.Up()
}

// RepositoryPackage provides the repositories: Postgres when a database URL
// is configured, the in-memory store otherwise.
func RepositoryPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*Repositories, error) {
		opts := do.MustInvoke[*Options](i)

		if opts.DatabaseURL == "" {
			do.MustInvoke[*zap.Logger](i).Warn("no database configured, using in-memory store")

			mem := store.NewMemory()

			return &Repositories{
				Links:   mem.Links(),
				Users:   mem.Users(),
				QRCodes: mem.QRCodes(),
				Tx:      mem,
				Health:  mem,
			}, nil
		}

		pg, err := do.Invoke[*store.Postgres](i)
		if err != nil {
			return nil, err
		}

		return &Repositories{
			Links:   pg.Links(),
			Users:   pg.Users(),
			QRCodes: pg.QRCodes(),
			Tx:      pg,
			Health:  pg,
		}, nil
	})
}

// CachePackage provides the short code cache.
func CachePackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (shortener.Cache, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.RedisAddr == "" {
			return store.NewMemoryCache(), nil
		}

		return store.NewRedisCache(do.MustInvoke[*RedisClient](i).Client), nil
	})
}

// ServicesPackage provides the domain services and orchestrators.
func ServicesPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*shortener.Service, error) {
		opts := do.MustInvoke[*Options](i)
		repos := do.MustInvoke[*Repositories](i)
		resolver := shortener.NewCodeResolver(repos.Links, shortener.NewGenerator(), opts.CodeLength, opts.CodeAttempts)

		return shortener.NewService(repos.Links, repos.Tx, resolver), nil
	})
	do.Provide(i, func(i *do.Injector) (*shortener.Retriever, error) {
		repos := do.MustInvoke[*Repositories](i)

		return shortener.NewRetriever(repos.Links, do.MustInvoke[shortener.Cache](i),
			do.MustInvoke[*Options](i).CacheTTL, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(i, func(i *do.Injector) (*shortener.Updater, error) {
		repos := do.MustInvoke[*Repositories](i)

		return shortener.NewUpdater(repos.Links, repos.Tx, do.MustInvoke[*shortener.Retriever](i)), nil
	})
	do.Provide(i, func(i *do.Injector) (*shortener.Deleter, error) {
		repos := do.MustInvoke[*Repositories](i)

		return shortener.NewDeleter(repos.Links, repos.Tx, do.MustInvoke[*shortener.Retriever](i)), nil
	})
	do.Provide(i, func(i *do.Injector) (*qrcode.Service, error) {
		repos := do.MustInvoke[*Repositories](i)

		return qrcode.NewService(repos.QRCodes, do.MustInvoke[*shortener.Service](i), repos.Tx), nil
	})
	do.Provide(i, func(i *do.Injector) (*user.Service, error) {
		repos := do.MustInvoke[*Repositories](i)

		return user.NewService(repos.Users, auth.NewBcryptHasher(0)), nil
	})
	do.Provide(i, func(i *do.Injector) (*auth.TokenIssuer, error) {
		opts := do.MustInvoke[*Options](i)
		if opts.JWTSecret == "" {
			return nil, errMissingSecret
		}

		return auth.NewTokenIssuer([]byte(opts.JWTSecret), opts.AccessTokenTTL, opts.RefreshTokenTTL), nil
	})
}

// RateLimitPackage provides the policy limiter, Redis backed when Redis is configured.
func RateLimitPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*ratelimit.PolicyLimiter, error) {
		opts := do.MustInvoke[*Options](i)

		var rlStore ratelimit.Store = store.NewRateLimitMemoryStore()
		if opts.RedisAddr != "" {
			rlStore = store.NewRateLimitRedisStore(do.MustInvoke[*RedisClient](i).Client)
		}

		return ratelimit.NewPolicyLimiter(rlStore, ratelimit.DefaultPolicy()), nil
	})
}

// MessagingPackage provides the event publisher and subscriber: Redis
// streams when Redis is configured, one in-process channel otherwise.
func MessagingPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*gochannel.GoChannel, error) {
		return gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermillLogger(i)), nil
	})
	do.Provide(i, func(i *do.Injector) (message.Publisher, error) {
		if do.MustInvoke[*Options](i).RedisAddr == "" {
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		}

		return redisstream.NewPublisher(redisstream.PublisherConfig{
			Client: do.MustInvoke[*RedisClient](i).Client,
		}, watermillLogger(i))
	})
	do.Provide(i, func(i *do.Injector) (message.Subscriber, error) {
		if do.MustInvoke[*Options](i).RedisAddr == "" {
			return do.MustInvoke[*gochannel.GoChannel](i), nil
		}

		return redisstream.NewSubscriber(redisstream.SubscriberConfig{
			Client:        do.MustInvoke[*RedisClient](i).Client,
			ConsumerGroup: consumerGroup,
		}, watermillLogger(i))
	})
}

func watermillLogger(i *do.Injector) watermill.LoggerAdapter {
	return logging.NewWatermillLogger(do.MustInvoke[*zap.Logger](i))
}

// PublisherGroupPackage provides the analytics publishers.
func PublisherGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.PublisherGroup, error) {
		return messaging.NewPublisherGroup(do.MustInvoke[message.Publisher](i)), nil
	})
	do.Provide(i, func(i *do.Injector) (*analytics.Publishers, error) {
		return analytics.NewPublishers(do.MustInvoke[*messaging.PublisherGroup](i).Publisher()), nil
	})
}

// ConsumerGroupPackage provides the analytics consumers.
func ConsumerGroupPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (*messaging.ConsumerGroup, error) {
		logger := do.MustInvoke[*zap.Logger](i)
		subscriber := do.MustInvoke[message.Subscriber](i)

		group := messaging.NewConsumerGroup(subscriber, logger)
		group.Add(analytics.NewConsumers(subscriber, analyticsstore.NewLog(logger), logger)...)

		return group, nil
	})
}

// HTTPPackage provides the router and the huma API with every route registered.
func HTTPPackage(i *do.Injector) {
	do.Provide(i, func(_ *do.Injector) (*chi.Mux, error) {
		return chi.NewMux(), nil
	})
	do.Provide(i, func(i *do.Injector) (huma.API, error) {
		opts := do.MustInvoke[*Options](i)
		logger := do.MustInvoke[*zap.Logger](i)
		tokens := do.MustInvoke[*auth.TokenIssuer](i)

		newID, err := nanoid.Standard(requestIDLength)
		if err != nil {
			return nil, fmt.Errorf("request id generator: %w", err)
		}

		api := humachi.New(do.MustInvoke[*chi.Mux](i), handlers.APIConfig("URL Shortener", "1.0.0"))
		api.UseMiddleware(middleware.RequestMeta(newID))

		if opts.RateLimit {
			api.UseMiddleware(middleware.RateLimit(api, do.MustInvoke[*ratelimit.PolicyLimiter](i),
				ratelimit.NewOperationScopeResolver(), logger))
		}

		api.UseMiddleware(middleware.Authenticate(api, tokens, logger))

		var redisChecker health.Checker = alwaysHealthy{}
		if opts.RedisAddr != "" {
			redisChecker = health.NewRedisChecker(do.MustInvoke[*RedisClient](i).Client)
		}

		health.RegisterRoutes(api, health.NewHandler(redisChecker, do.MustInvoke[*Repositories](i).Health, logger))

		baseURL := opts.PublicBaseURL()
		handlers.RegisterRoutes(api,
			handlers.NewLinkHandler(
				do.MustInvoke[*shortener.Service](i),
				do.MustInvoke[*shortener.Retriever](i),
				do.MustInvoke[*shortener.Updater](i),
				do.MustInvoke[*shortener.Deleter](i),
				do.MustInvoke[*analytics.Publishers](i),
				baseURL,
				logger,
			),
			handlers.NewQRCodeHandler(do.MustInvoke[*qrcode.Service](i), baseURL, logger),
			handlers.NewUserHandler(do.MustInvoke[*user.Service](i), tokens, logger),
		)

		return api, nil
	})
}

// alwaysHealthy stands in for Redis when the service runs without it.
type alwaysHealthy struct{}

func (alwaysHealthy) Ping(context.Context) error { return nil }
