package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/meritup/internal/badgeapp"
	badgeappdomain "github.com/smallbiznis/meritup/internal/badgeapp/domain"
	"github.com/smallbiznis/meritup/internal/badgecatalog"
	catalogdomain "github.com/smallbiznis/meritup/internal/badgecatalog/domain"
	"github.com/smallbiznis/meritup/internal/config"
	"github.com/smallbiznis/meritup/internal/observability"
	obsmiddleware "github.com/smallbiznis/meritup/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/meritup/internal/observability/metrics"
	obstracing "github.com/smallbiznis/meritup/internal/observability/tracing"
	"github.com/smallbiznis/meritup/internal/promotion"
	promotiondomain "github.com/smallbiznis/meritup/internal/promotion/domain"
	"github.com/smallbiznis/meritup/internal/reservation"
	"github.com/smallbiznis/meritup/internal/template"
	templatedomain "github.com/smallbiznis/meritup/internal/template/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	badgecatalog.Module,
	template.Module,
	badgeapp.Module,
	reservation.Module,
	promotion.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine       *gin.Engine
	cfg          config.Config
	db           *gorm.DB
	genID        *snowflake.Node
	badgeAppSvc  badgeappdomain.Service
	promotionSvc promotiondomain.Service
	catalogSvc   catalogdomain.Service
	templateSvc  templatedomain.Service
}

type ServerParams struct {
	fx.In

	Gin          *gin.Engine
	Cfg          config.Config
	DB           *gorm.DB
	GenID        *snowflake.Node
	BadgeAppSvc  badgeappdomain.Service
	PromotionSvc promotiondomain.Service
	CatalogSvc   catalogdomain.Service
	TemplateSvc  templatedomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:       p.Gin,
		cfg:          p.Cfg,
		db:           p.DB,
		genID:        p.GenID,
		badgeAppSvc:  p.BadgeAppSvc,
		promotionSvc: p.PromotionSvc,
		catalogSvc:   p.CatalogSvc,
		templateSvc:  p.TemplateSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1")
	api.Use(ActorContext())

	badges := api.Group("/badge-applications")
	{
		badges.POST("", s.CreateBadgeApplication)
		badges.GET("", s.ListBadgeApplications)
		badges.GET("/:id", s.GetBadgeApplication)
		badges.PATCH("/:id", s.UpdateBadgeApplication)
		badges.POST("/:id/submit", s.SubmitBadgeApplication)
		badges.POST("/:id/accept", s.AcceptBadgeApplication)
		badges.POST("/:id/reject", s.RejectBadgeApplication)
	}

	promotions := api.Group("/promotions")
	{
		promotions.POST("", s.CreatePromotion)
		promotions.GET("", s.ListPromotions)
		promotions.GET("/:id", s.GetPromotion)
		promotions.DELETE("/:id", s.DeletePromotion)
		promotions.POST("/:id/badges", s.AddPromotionBadges)
		promotions.DELETE("/:id/badges", s.RemovePromotionBadges)
		promotions.GET("/:id/validation", s.ValidatePromotion)
		promotions.POST("/:id/submit", s.SubmitPromotion)
		promotions.POST("/:id/approve", s.ApprovePromotion)
		promotions.POST("/:id/reject", s.RejectPromotion)
	}

	catalog := api.Group("/catalog")
	{
		catalog.GET("/badges", s.ListCatalogBadges)
		catalog.GET("/badges/:id", s.GetCatalogBadge)
	}

	templates := api.Group("/templates")
	{
		templates.GET("", s.ListTemplates)
		templates.GET("/:id", s.GetTemplate)
	}
}
