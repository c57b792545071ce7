package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/cuemark/internal/config"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cuemark/internal/index"
	"github.com/MrSnakeDoc/cuemark/internal/library"
	"github.com/MrSnakeDoc/cuemark/internal/logger"
	"github.com/MrSnakeDoc/cuemark/internal/player"
	"github.com/MrSnakeDoc/cuemark/internal/redis"
	"github.com/MrSnakeDoc/cuemark/internal/scheduler"
	"github.com/MrSnakeDoc/cuemark/internal/seek"
	"github.com/MrSnakeDoc/cuemark/internal/session"
	"github.com/MrSnakeDoc/cuemark/internal/shell"
	"github.com/MrSnakeDoc/cuemark/internal/store/jsonfile"
	redisstore "github.com/MrSnakeDoc/cuemark/internal/store/redis"
	"github.com/MrSnakeDoc/cuemark/internal/version"
)

type App struct {
	cfg         *config.Config
	logger      logger.Logger
	engine      *player.BeepEngine
	session     *session.Session
	loop        *scheduler.Loop
	server      *httpserver.Server
	redisClient *goredis.Client
	syncer      *redisstore.Syncer
}

func New() (*App, error) {
	cfg := config.Load()

	log := logger.New(cfg.LogLevel, cfg.PrettyLog, cfg.LogFile)

	a := &App{cfg: cfg, logger: log}

	importer, err := library.NewImporter(cfg.AudioFolder, log.Named("library"))
	if err != nil {
		return nil, fmt.Errorf("prepare audio folder: %w", err)
	}

	memIndex := index.NewMemoryIndex()

	// Redis is an optional mirror: a missing server degrades, never blocks.
	var mirror *redisstore.Store
	if cfg.RedisEnabled() {
		log.Infof("Connecting to Redis at %s", cfg.RedisAddr)
		client, err := redis.Connect(context.Background(), redis.ConnectOptions{
			Addr:           cfg.RedisAddr,
			User:           cfg.RedisUser,
			Password:       cfg.RedisPassword,
			DB:             cfg.RedisDB,
			DialTimeout:    cfg.RedisDT,
			ReadTimeout:    cfg.RedisRT,
			WriteTimeout:   cfg.RedisWT,
			PoolSize:       cfg.RedisPoolSize,
			ConnectTimeout: cfg.RedisConnectTimeout,
			RetryInterval:  cfg.RedisRetryInterval,
			MaxWait:        cfg.RedisMaxWait,
			PingTimeout:    cfg.RedisPingTimeout,
		}, log.Named("redis"))
		if err != nil {
			log.Warn("redis mirror disabled", logger.Error(err))
		} else {
			a.redisClient = client
			store := redisstore.NewStore(client)
			mirror = store
			a.syncer = redisstore.NewSyncer(store, cfg.RedisSyncTimeout, log.Named("mirror"))
		}
	}

	a.engine = player.NewBeepEngine(cfg.InitialVolume, log.Named("player"))

	// The tick closure reads a.session, which is set below and only used
	// once the loop is started in Run.
	a.loop = scheduler.NewLoop(cfg.TickInterval, func() {
		a.session.Handle(session.Tick{})
	}, log.Named("loop"))

	sessDeps := session.Deps{
		Engine:    a.engine,
		Store:     jsonfile.NewStore(cfg.BookmarksFile, log.Named("store")),
		Importer:  importer,
		Views:     memIndex,
		Scheduler: a.loop,
		Logger:    log.Named("session"),
	}
	if a.syncer != nil {
		sessDeps.Mirror = a.syncer
	}
	a.session = session.New(sessDeps, session.Options{
		InitialVolume: cfg.InitialVolume,
		SeekStep:      cfg.SeekStep,
		Seek: seek.Options{
			Throttle:     cfg.SeekThrottle,
			ResumeDelay:  cfg.ResumeDelay,
			ResyncDelay:  cfg.ResyncDelay,
			RestoreDelay: cfg.RestoreDelay,
		},
	})

	if cfg.APIEnabled() {
		d := deps.Deps{
			Logger:         log.Named("http"),
			StartTime:      time.Now(),
			Version:        version.Version,
			Commit:         version.Commit,
			BuildDate:      version.BuildDate,
			GoVersion:      version.GoVersion,
			AllowedHosts:   cfg.APIAllowedHosts,
			AllowedCIDRS:   cfg.APIAllowedCIDRS,
			WriteBurst:     cfg.APIWriteBurst,
			WritePerMinute: cfg.APIWritePerMin,
			Index:          memIndex,
			Player:         a.session,
			Loop:           a.loop,
		}
		if mirror != nil {
			d.Mirror = mirror
		}
		a.server = httpserver.New(cfg.APIListen, log, d)
	}

	return a, nil
}

// Run starts the control loop and the optional surfaces, then blocks in the
// shell until the user quits or a signal arrives.
func (a *App) Run() error {
	a.logger.Info("🚀 Starting " + version.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if a.syncer != nil {
		// Detached so the final snapshot still reaches Redis after a signal.
		a.syncer.Start(context.WithoutCancel(ctx))
	}

	if err := a.loop.Start(ctx); err != nil {
		a.shutdown()
		return fmt.Errorf("failed to start control loop: %w", err)
	}
	a.logger.Info("control loop started", logger.Duration("interval", a.cfg.TickInterval))

	if a.server != nil {
		if err := a.server.Start(); err != nil {
			a.shutdown()
			return fmt.Errorf("http server error: %w", err)
		}
	}

	err := shell.Run(ctx, a.session, a.loop, a.cfg.HistoryFile, a.logger.Named("shell"))
	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("shell exited", logger.Error(err))
	}

	a.logger.Info("⏳ Shutting down gracefully...")
	a.shutdown()
	return err
}

func (a *App) shutdown() {
	if a.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		if err := a.server.Stop(ctx); err != nil {
			a.logger.Warn("failed to stop server", logger.Error(err))
		}
		cancel()
	}

	a.loop.Stop()

	if err := a.session.Close(); err != nil {
		a.logger.Warn("failed to close player", logger.Error(err))
	}

	if a.syncer != nil {
		a.syncer.Stop()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.logger.Warnf("failed to close redis: %v", err)
		} else {
			a.logger.Info("✅ Redis closed cleanly")
		}
	}

	a.logger.Info("✅ cuemark stopped cleanly")
	_ = a.logger.Sync()
}
