package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"yotereparo-backend/config"
	"yotereparo-backend/controllers"
	"yotereparo-backend/models"
	"yotereparo-backend/repository"
	"yotereparo-backend/routes"
	"yotereparo-backend/services"
	"yotereparo-backend/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()
		boot.Fatal().Err(err).Msg("Could not load config")
	}
	log := config.NewLogger(cfg.Log)

	// Prices travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true

	db, err := config.ConnectDB(cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect database")
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.ServiceType{},
		&models.PaymentMethod{},
		&models.ServiceRecord{},
	); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate database")
	}

	serviceRepo := repository.NewServiceRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	if cfg.Database.SeedCatalog {
		if err := catalogRepo.Seed(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed catalogue")
		}
	}

	if cfg.Jobs.AverageSweepEnabled {
		sweeper := services.NewAverageSweeper(serviceRepo, log)
		if err := sweeper.StartScheduler(cfg.Jobs.AverageSweepSpec); err != nil {
			log.Fatal().Err(err).Msg("Failed to start average sweeper")
		}
		defer sweeper.Stop()
	}

	issuer := utils.NewJWTIssuer(cfg.Auth.JWTSecret, cfg.Auth.Expiry())
	manager := services.NewServiceManager(serviceRepo, accountRepo, catalogRepo, log)
	accounts := services.NewAccountService(accountRepo, issuer, cfg.Auth.BcryptCost, log)

	if cfg.Log.Level != "debug" && cfg.Log.Level != "trace" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := routes.SetupRouter(cfg.Server, issuer, routes.Handlers{
		Auth:     controllers.NewAuthController(accounts, gin.Mode() == gin.ReleaseMode),
		Services: controllers.NewServiceController(manager),
		Catalog:  controllers.NewCatalogController(manager),
	}, log)
	printRoutes(r)

	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}

func printRoutes(r *gin.Engine) {
	routes := r.Routes()
	for _, route := range routes {
		fmt.Printf("%-6s %s\n", route.Method, route.Path)
	}
}
