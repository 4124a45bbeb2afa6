package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"microblog/internal/cache"
	"microblog/internal/config"
	"microblog/internal/database"
	"microblog/internal/handler"
	"microblog/internal/logger"
	"microblog/internal/metrics"
	"microblog/internal/model"
	"microblog/internal/redis"
	"microblog/internal/repository"
	"microblog/internal/service"
	"microblog/internal/storage"
	transport "microblog/internal/transport/http"
)

const redisConnectTimeout = 5 * time.Second

type app struct {
	cfg *config.Config
	log *zap.Logger
}

func main() {
	a := &app{}

	root := &cobra.Command{
		Use:           "microblog",
		Short:         "Microblog API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			a.cfg, a.log = cfg, log
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	root.AddCommand(a.serveCmd(), a.migrateCmd(), a.seedCmd(), a.usersCmd(), a.mediaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func (a *app) serveCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				a.cfg.ServerPort = port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides SERVER_PORT)")
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	db, err := a.openDB(ctx, a.cfg.DBAutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	var keys cache.KeyCache
	if a.cfg.RedisURL != "" {
		client, err := redis.Connect(ctx, a.cfg.RedisURL, redisConnectTimeout)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer client.Close()
		keys = cache.NewKeyCache(client.Client, a.cfg.APIKeyCacheTTL)
		a.log.Info("api key cache enabled", zap.Duration("ttl", a.cfg.APIKeyCacheTTL))
	}

	store, err := a.openStore(ctx)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	userRepo := repository.NewUserRepository(db)
	followRepo := repository.NewFollowRepository(db)
	tweetRepo := repository.NewTweetRepository(db)
	likeRepo := repository.NewLikeRepository(db)
	mediaRepo := repository.NewMediaRepository(db)

	userService := service.NewUserService(userRepo, followRepo, keys, a.log.Named("users"))
	followService := service.NewFollowService(followRepo, userRepo, db, m, a.log.Named("follows"))
	tweetService := service.NewTweetService(tweetRepo, likeRepo, userRepo, mediaRepo, db, a.cfg.TweetMaxMedia, m, a.log.Named("tweets"))
	mediaService := service.NewMediaService(mediaRepo, store, a.mediaConfig(), m, a.log.Named("media"))

	routerCfg := transport.RouterConfig{
		UserHandler:    handler.NewUserHandler(userService, tweetService, a.log),
		FollowHandler:  handler.NewFollowHandler(followService, a.log),
		TweetHandler:   handler.NewTweetHandler(tweetService, a.log),
		MediaHandler:   handler.NewMediaHandler(mediaService, a.cfg.MediaMaxBytes, a.log),
		Users:          userService,
		Metrics:        m,
		Gatherer:       reg,
		Logger:         a.log.Named("http"),
		MediaURLPrefix: a.cfg.MediaURLPrefix,
	}
	if a.cfg.MediaBackend == config.MediaBackendLocal {
		routerCfg.MediaRoot = a.cfg.MediaRoot
	}

	server := transport.NewServer(":"+a.cfg.ServerPort, transport.NewRouter(routerCfg), a.cfg.ShutdownTimeout, a.log)
	return server.Run(ctx)
}

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB(cmd.Context(), true)
			if err != nil {
				return err
			}
			return db.Close()
		},
	}
}

func (a *app) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the default test user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.createUser(cmd.Context(), "test", "test", true)
		},
	}
}

func (a *app) usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage users",
	}

	var name, key string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user and print its api key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.createUser(cmd.Context(), name, key, false)
		},
	}
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&key, "key", "", "api key (generated when empty)")
	_ = create.MarkFlagRequired("name")

	cmd.AddCommand(create)
	return cmd
}

func (a *app) createUser(ctx context.Context, name, key string, ensure bool) error {
	db, err := a.openDB(ctx, a.cfg.DBAutoMigrate)
	if err != nil {
		return err
	}
	defer db.Close()

	users := service.NewUserService(repository.NewUserRepository(db), repository.NewFollowRepository(db), nil, a.log)

	var (
		user    *model.User
		created = true
	)
	if ensure {
		user, created, err = users.EnsureUser(ctx, name, key)
	} else {
		user, err = users.CreateUser(ctx, name, key)
	}
	if err != nil {
		return err
	}

	a.log.Info("user ready", zap.Int64("user_id", user.ID), zap.String("name", user.Username), zap.Bool("created", created))
	fmt.Println(user.APIKey)
	return nil
}

func (a *app) mediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Maintain stored media",
	}

	var olderThan time.Duration
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete media that no tweet references",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			db, err := a.openDB(ctx, false)
			if err != nil {
				return err
			}
			defer db.Close()

			store, err := a.openStore(ctx)
			if err != nil {
				return err
			}

			media := service.NewMediaService(repository.NewMediaRepository(db), store, a.mediaConfig(), nil, a.log)
			n, err := media.PruneOrphans(ctx, olderThan)
			if err != nil {
				return err
			}
			fmt.Printf("pruned %d media\n", n)
			return nil
		},
	}
	prune.Flags().DurationVar(&olderThan, "older-than", 24*time.Hour, "only prune media uploaded before this age")

	cmd.AddCommand(prune)
	return cmd
}

func (a *app) openDB(ctx context.Context, migrate bool) (*sqlx.DB, error) {
	db, err := database.Connect(a.cfg, a.log)
	if err != nil {
		return nil, err
	}
	if migrate {
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.log.Info("database schema applied", zap.String("driver", a.cfg.DBDriver))
	}
	return db, nil
}

func (a *app) openStore(ctx context.Context) (storage.Store, error) {
	switch a.cfg.MediaBackend {
	case config.MediaBackendR2:
		return storage.NewR2Store(ctx, storage.R2Config{
			AccountID:       a.cfg.R2AccountID,
			AccessKeyID:     a.cfg.R2AccessKeyID,
			SecretAccessKey: a.cfg.R2SecretAccessKey,
			Bucket:          a.cfg.R2BucketName,
			Endpoint:        a.cfg.R2Endpoint,
		})
	default:
		return storage.NewLocalStore(a.cfg.MediaRoot)
	}
}

func (a *app) mediaConfig() service.MediaConfig {
	return service.MediaConfig{
		AllowedTypes:      a.cfg.MediaAllowedTypes,
		MaxBytes:          a.cfg.MediaMaxBytes,
		MaxImageDimension: a.cfg.MediaMaxImageDimension,
		URLPrefix:         a.cfg.MediaURLPrefix,
	}
}
