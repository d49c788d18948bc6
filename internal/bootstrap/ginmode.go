package bootstrap

import (
	"github.com/gin-gonic/gin"

	"github.com/qctrack/qctrack-backend/config"
)

func SetGinMode(cfg *config.AppConfig) {
	switch cfg.Environment {
	case "production":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	}
}
