package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/palemoky/quiz-room/internal/config"
	"github.com/palemoky/quiz-room/internal/logger"
	"github.com/palemoky/quiz-room/internal/server"
)

const shutdownTimeout = 15 * time.Second

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// .env 只用于本地开发，缺失时忽略
	envErr := godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		cfg = config.Default()
		if applyErr := config.ApplyEnv(cfg); applyErr != nil {
			log.Fatal().Err(applyErr).Msg("解析环境变量失败")
		}
	}

	if initErr := logger.Init(logger.Options{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		File:   cfg.Log.File,
	}); initErr != nil {
		log.Fatal().Err(initErr).Msg("初始化日志失败")
	}
	defer logger.Close()

	if err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("加载配置文件失败，使用默认配置")
	}
	if envErr != nil && !os.IsNotExist(envErr) {
		log.Warn().Err(envErr).Msg("加载 .env 失败")
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("创建服务器失败")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Msg("🧠 问答房间服务器启动中...")
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("服务器启动失败")
		}
	case <-ctx.Done():
		log.Info().Msg("正在关闭服务器...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("关闭服务器时出错")
		}
	}
}
