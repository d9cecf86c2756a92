package server

import (
	"context"
	"net/http"

	"creator-payments/internal/handler"
	"creator-payments/internal/logger"
	appmw "creator-payments/internal/middleware"
	"creator-payments/internal/service"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Options struct {
	JWTSecret  string
	DemoUserID string
	// requests per second per client IP, 0 disables the limiter
	RateLimit float64
}

type Server struct {
	echo           *echo.Echo
	paymentHandler *handler.PaymentHandler
	creatorHandler *handler.CreatorHandler
	opts           Options
}

func NewServer(paymentService service.PaymentService, creatorService service.CreatorService, log *zap.Logger, opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger(log))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowHeaders:  []string{echo.HeaderContentType, echo.HeaderAuthorization, handler.HeaderIdempotencyKey},
		ExposeHeaders: []string{handler.HeaderIdempotentReplayed},
	}))
	if opts.RateLimit > 0 {
		e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(opts.RateLimit))))
	}

	s := &Server{
		echo:           e,
		paymentHandler: handler.NewPaymentHandler(paymentService, log),
		creatorHandler: handler.NewCreatorHandler(creatorService),
		opts:           opts,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.echo.Group("/api")

	api.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	auth := appmw.AuthMiddleware(s.opts.JWTSecret, s.opts.DemoUserID)

	// -------- payments --------
	payments := api.Group("/payments", auth)
	payments.POST("/orders", s.paymentHandler.CreatePaymentOrder)
	payments.GET("/fees", s.paymentHandler.CalculateFees)
	payments.GET("/providers", s.paymentHandler.ListProviders)

	// -------- creators --------
	creators := api.Group("/creators", auth)
	creators.POST("", s.creatorHandler.RegisterCreator)
	creators.GET("/:creatorID", s.creatorHandler.GetCreator)
	creators.PATCH("/:creatorID", s.creatorHandler.UpdateCreator)
	creators.GET("/:creatorID/orders", s.paymentHandler.ListCreatorOrders)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(address string) error {
	return s.echo.Start(address)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
