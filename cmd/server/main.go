package main

import (
	"os"

	"go.uber.org/zap"

	"storyreel/config"
	"storyreel/internal/deps"
	"storyreel/internal/server"
	"storyreel/log"
)

func main() {
	log.InitLogger()
	defer log.GetLogger().Sync()

	created, err := config.LoadOrCreateConfig()
	if err != nil {
		log.GetLogger().Error("failed to load config", zap.Error(err))
		return
	}
	if created {
		path, _ := config.ResolveConfigPath()
		log.GetLogger().Info("wrote default config, fill in the analysis credentials and restart",
			zap.String("path", path))
		return
	}

	if err = config.CheckConfig(); err != nil {
		log.GetLogger().Error("invalid config", zap.Error(err))
		return
	}

	if err = deps.CheckDependency(); err != nil {
		log.GetLogger().Error("dependency check failed", zap.Error(err))
		return
	}

	if err = server.StartBackend(); err != nil {
		log.GetLogger().Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
}
