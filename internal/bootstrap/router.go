package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	httpapi "github.com/qctrack/qctrack-backend/internal/api/http"
	"github.com/qctrack/qctrack-backend/internal/api/http/middleware"
	"github.com/qctrack/qctrack-backend/internal/api/http/response"
	"github.com/qctrack/qctrack-backend/internal/auth"
	"github.com/qctrack/qctrack-backend/internal/logging"
	lookuphttp "github.com/qctrack/qctrack-backend/internal/lookup/http"
	mdhttp "github.com/qctrack/qctrack-backend/internal/masterdata/http"
	projecthttp "github.com/qctrack/qctrack-backend/internal/projects/http"
	qchttp "github.com/qctrack/qctrack-backend/internal/qc/http"
	reporthttp "github.com/qctrack/qctrack-backend/internal/reports/http"
	usershttp "github.com/qctrack/qctrack-backend/internal/users/http"
)

type RouterDeps struct {
	Infra    Infra
	Services *Services
	// Verifier checks Firebase ID tokens; nil in header auth mode.
	Verifier auth.TokenVerifier
}

func BuildRouter(dep RouterDeps) (*gin.Engine, error) {
	cfg := dep.Infra.Config
	log := dep.Infra.Log
	svc := dep.Services

	authenticator, err := auth.NewAuthenticator(&cfg.Auth, dep.Verifier, svc.Users)
	if err != nil {
		return nil, err
	}
	limiter := middleware.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(
		middleware.RequestID(log),
		gin.CustomRecovery(func(c *gin.Context, recovered any) {
			logging.FromContext(c.Request.Context()).Error("panic recovered", zap.Any("panic", recovered), zap.Stack("stack"))
			response.Abort(c, http.StatusInternalServerError, "internal error")
		}),
		middleware.Metrics(),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	var redisPinger httpapi.Pinger
	if rdb := dep.Infra.Redis; rdb != nil {
		redisPinger = httpapi.PingFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
	}
	health := httpapi.NewHealthHandler(cfg.App.ServiceName, cfg.App.Version, httpapi.PingFunc(dep.Infra.DB.PingContext), redisPinger)
	health.RegisterRoutes(r)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(limiter.Middleware(), authenticator.Authenticate())
	require := auth.RequireFunc(authenticator.Require)

	lookuphttp.New(svc.Lookups).Register(api.Group("/Lookups"))

	md := &mdhttp.Handler{
		Divisions:           svc.Divisions,
		Products:            svc.Products,
		ErrorCategories:     svc.ErrorCategories,
		ErrorSubCategories:  svc.ErrorSubCategories,
		DrawingDescriptions: svc.DrawingDescriptions,
		ResourceRoles:       svc.ResourceRoles,
		Resources:           svc.Resources,
	}
	md.Register(api, require)

	projects := &projecthttp.Handler{
		Projects:       svc.Projects,
		Activities:     svc.Activities,
		UploadMaxBytes: cfg.Storage.UploadMaxBytes,
	}
	qc := &qchttp.Handler{
		Discrepancies:  svc.Discrepancies,
		Clarifications: svc.Clarifications,
		UploadMaxBytes: cfg.Storage.UploadMaxBytes,
	}
	if svc.Importer != nil {
		projects.Importer = svc.Importer
		qc.Importer = svc.Importer
	}
	projects.Register(api, require)
	qc.Register(api, require)

	usershttp.New(svc.Users).Register(api, require)
	reporthttp.New(svc.Reports).Register(api, require)

	return r, nil
}
