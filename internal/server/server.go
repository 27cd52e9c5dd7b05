package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	authdomain "github.com/openhaus/atrium/internal/auth/domain"
	"github.com/openhaus/atrium/internal/auth/session"
	"github.com/openhaus/atrium/internal/authorization"
	cmadomain "github.com/openhaus/atrium/internal/cma/domain"
	"github.com/openhaus/atrium/internal/config"
	listingdomain "github.com/openhaus/atrium/internal/listing/domain"
	"github.com/openhaus/atrium/internal/observability"
	obslogger "github.com/openhaus/atrium/internal/observability/logger"
	obsmetrics "github.com/openhaus/atrium/internal/observability/metrics"
	"github.com/openhaus/atrium/internal/ratelimit"
	sellerupdatedomain "github.com/openhaus/atrium/internal/sellerupdate/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obslogger.GinMiddleware(obslogger.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
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

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	engine          *gin.Engine
	cfg             config.Config
	authSvc         authdomain.Service
	sessions        *session.Manager
	authzSvc        authorization.Service
	listingSvc      listingdomain.Service
	cmaSvc          cmadomain.Service
	sellerUpdateSvc sellerupdatedomain.Service
	publicLimiter   *ratelimit.PublicLimiter
}

type ServerParams struct {
	fx.In

	Gin             *gin.Engine
	Cfg             config.Config
	AuthSvc         authdomain.Service
	Sessions        *session.Manager
	AuthzSvc        authorization.Service
	ListingSvc      listingdomain.Service
	CMASvc          cmadomain.Service
	SellerUpdateSvc sellerupdatedomain.Service
	PublicLimiter   *ratelimit.PublicLimiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:          p.Gin,
		cfg:             p.Cfg,
		authSvc:         p.AuthSvc,
		sessions:        p.Sessions,
		authzSvc:        p.AuthzSvc,
		listingSvc:      p.ListingSvc,
		cmaSvc:          p.CMASvc,
		sellerUpdateSvc: p.SellerUpdateSvc,
		publicLimiter:   p.PublicLimiter,
	}

	svc.registerAuthRoutes()
	svc.registerPortalRoutes()
	svc.registerPublicRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAuthRoutes() {
	auth := s.engine.Group("/auth")

	auth.POST("/login", s.Login)
	auth.POST("/logout", s.Logout)
	auth.GET("/me", s.AuthRequired(), s.Me)
	auth.POST("/change-password", s.AuthRequired(), s.ChangePassword)
}

func (s *Server) registerPortalRoutes() {
	portal := s.engine.Group("/portal")
	portal.Use(s.AuthRequired())

	// -------- Listings --------
	portal.GET("/listings", s.Authorize(authorization.ObjectListing, authorization.ActionView), s.SearchListings)
	portal.POST("/listings", s.Authorize(authorization.ObjectListing, authorization.ActionCreate), s.UpsertListing)
	portal.GET("/listings/:id", s.Authorize(authorization.ObjectListing, authorization.ActionView), s.GetListingByID)
	portal.PATCH("/listings/:id", s.Authorize(authorization.ObjectListing, authorization.ActionUpdate), s.UpdateListing)
	portal.DELETE("/listings/:id", s.Authorize(authorization.ObjectListing, authorization.ActionDelete), s.DeleteListing)

	// -------- CMA reports --------
	portal.GET("/reports", s.Authorize(authorization.ObjectCMAReport, authorization.ActionView), s.ListReports)
	portal.POST("/reports", s.Authorize(authorization.ObjectCMAReport, authorization.ActionCreate), s.CreateReport)
	portal.GET("/reports/:id", s.Authorize(authorization.ObjectCMAReport, authorization.ActionView), s.GetReportByID)
	portal.PATCH("/reports/:id", s.Authorize(authorization.ObjectCMAReport, authorization.ActionUpdate), s.UpdateReport)
	portal.DELETE("/reports/:id", s.Authorize(authorization.ObjectCMAReport, authorization.ActionDelete), s.DeleteReport)
	portal.POST("/reports/:id/publish", s.Authorize(authorization.ObjectCMAReport, authorization.ActionPublish), s.PublishReport)

	portal.POST("/reports/:id/comparables", s.Authorize(authorization.ObjectCMAReport, authorization.ActionUpdate), s.AddComparable)
	portal.PUT("/reports/:id/comparables", s.Authorize(authorization.ObjectCMAReport, authorization.ActionUpdate), s.ReorderComparables)
	portal.DELETE("/reports/:id/comparables/:listingId", s.Authorize(authorization.ObjectCMAReport, authorization.ActionUpdate), s.RemoveComparable)

	portal.GET("/reports/:id/adjustments", s.Authorize(authorization.ObjectCMAReport, authorization.ActionView), s.GetAdjustmentConfig)
	portal.PUT("/reports/:id/adjustments", s.Authorize(authorization.ObjectCMAReport, authorization.ActionUpdate), s.PutAdjustmentConfig)
	portal.GET("/reports/:id/computed", s.Authorize(authorization.ObjectCMAReport, authorization.ActionView), s.GetComputedReport)
	portal.GET("/reports/:id/pdf", s.Authorize(authorization.ObjectCMAReport, authorization.ActionExport), s.DownloadReportPDF)

	// -------- Seller updates --------
	portal.GET("/seller-updates", s.Authorize(authorization.ObjectSellerUpdate, authorization.ActionView), s.ListSubscriptions)
	portal.DELETE("/seller-updates/:id", s.Authorize(authorization.ObjectSellerUpdate, authorization.ActionDelete), s.DeleteSubscription)

	// -------- Users --------
	portal.GET("/users", s.Authorize(authorization.ObjectUser, authorization.ActionView), s.ListUsers)
	portal.POST("/users", s.Authorize(authorization.ObjectUser, authorization.ActionCreate), s.CreateUser)
	portal.PATCH("/users/:id", s.Authorize(authorization.ObjectUser, authorization.ActionUpdate), s.UpdateUser)
}

func (s *Server) registerPublicRoutes() {
	public := s.engine.Group("/public")
	public.Use(s.PublicRateLimit())

	public.GET("/reports/:slug", s.GetPublishedReport)
	public.GET("/reports/:slug/computed", s.GetPublishedReportComputed)

	public.POST("/seller-updates/subscribe", s.Subscribe)
	public.GET("/seller-updates/unsubscribe", s.Unsubscribe)
}
