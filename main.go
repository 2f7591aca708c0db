package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerniceZTT/smartcrm/config"
	"github.com/BerniceZTT/smartcrm/metrics"
	"github.com/BerniceZTT/smartcrm/repository"
	"github.com/BerniceZTT/smartcrm/routes"
	"github.com/BerniceZTT/smartcrm/service"
	"github.com/BerniceZTT/smartcrm/utils"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "smartcrm",
		Short:         "SmartCRM backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), sweepCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		utils.Logger.Error().Err(err).Msg("启动失败")
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务与跟进提醒任务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func sweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "执行一次跟进提醒扫描后退出",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context())
		},
	}
}

// app 进程级资源，按创建的逆序释放
type app struct {
	cfg     *config.Config
	db      repository.Database
	redis   *redis.Client
	sweeper *service.Sweeper
}

func setup(ctx context.Context) (*app, error) {
	// 加载配置
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	// 初始化日志
	utils.InitLogger(cfg.LogLevel, cfg.LogFormat)
	metrics.SetEnabled(cfg.Metrics.Enabled)

	rt := &app{cfg: cfg}

	// 初始化数据库
	switch cfg.Store.Driver {
	case config.StoreMemory:
		memDB, err := repository.NewMemoryDatabase()
		if err != nil {
			return nil, err
		}
		rt.db = memDB
	default:
		mongoDB, err := repository.InitMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, err
		}
		rt.db = mongoDB
	}
	if err := repository.EnsureIndexes(ctx, rt.db); err != nil {
		rt.close()
		return nil, err
	}

	var lock service.SweepLock
	if cfg.Redis.URI != "" {
		client, err := repository.ConnectRedis(ctx, cfg.Redis.URI)
		if err != nil {
			rt.close()
			return nil, err
		}
		rt.redis = client
		lock = service.NewRedisLock(client, cfg.Scheduler.Interval)
	}

	if !cfg.SMTP.Enabled() {
		utils.Logger.Warn().Msg("SMTP未配置，跟进提醒只记录日志")
	}
	rt.sweeper, err = service.NewSweeper(rt.db, service.NewSMTPNotifier(cfg.SMTP), lock, cfg.Scheduler)
	if err != nil {
		rt.close()
		return nil, err
	}
	return rt, nil
}

func (rt *app) close() {
	if rt.sweeper != nil {
		rt.sweeper.Close()
	}
	if rt.redis != nil {
		if err := rt.redis.Close(); err != nil {
			utils.Logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
	if rt.db != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rt.db.Close(ctx)
	}
}

func runServe(ctx context.Context) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	cfg := rt.cfg

	// 设置Gin模式
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	var scheduler *service.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler = service.NewScheduler(cfg.Scheduler.Interval, service.SweepTask(rt.sweeper))
		scheduler.Start(ctx)
	}

	// 设置HTTP服务器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      routes.NewEngine(cfg, rt.db),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		utils.Logger.Info().Msgf("服务器启动，监听端口: %d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	// 优雅关闭
	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
	}
	utils.Logger.Info().Msg("正在关闭服务器...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Error().Err(err).Msg("服务器关闭异常")
	}
	if scheduler != nil {
		scheduler.Stop()
	}

	if runErr != nil {
		return fmt.Errorf("启动服务器失败: %w", runErr)
	}
	utils.Logger.Info().Msg("服务器已优雅关闭")
	return nil
}

func runSweep(ctx context.Context) error {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	result, err := rt.sweeper.Sweep(ctx)
	if err != nil {
		return err
	}
	utils.Logger.Info().
		Int("candidates", result.Candidates).
		Int64("notified", result.Notified).
		Int64("skipped", result.Skipped).
		Int64("failed", result.Failed).
		Bool("locked", result.Locked).
		Msg("扫描完成")
	return nil
}
