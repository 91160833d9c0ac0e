package main

import (
	"time"

	"github.com/cppla/filebox/config"
	"github.com/cppla/filebox/models"
	"github.com/cppla/filebox/routes"
	"github.com/cppla/filebox/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	db := config.InitDatabase(&models.File{})
	cache := utils.NewCache(utils.NewRedis(cfg), time.Duration(cfg.ListCacheTTLSeconds)*time.Second)

	r := routes.SetupRouter(cfg, db, cache)

	utils.Sugar.Infof("Starting server on port %s (graceful), uploads under %s/%s", cfg.AppPort, cfg.StorageRoot, cfg.UploadsDir)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
