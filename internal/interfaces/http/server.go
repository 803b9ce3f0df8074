package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wa2g/denis-portal/internal/application/service"
	"github.com/wa2g/denis-portal/internal/repository"
)

// Server hosts the portal HTTP surface. All business data lives upstream;
// the server only fronts the cached stores and the audit trail.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	logger     *zap.Logger

	orders   *service.OrdersService
	invoices *service.InvoicesService
	requests *service.RequestsService
	stock    *service.StockService
	masters  *service.MastersService
	history  *repository.TransitionHistoryRepository

	auth AuthConfig
}

// AuthConfig carries the session verification settings.
type AuthConfig struct {
	JWTSecret  string
	CookieName string
	LoginURL   string
}

// Config carries the listener settings.
type Config struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type Deps struct {
	Orders   *service.OrdersService
	Invoices *service.InvoicesService
	Requests *service.RequestsService
	Stock    *service.StockService
	Masters  *service.MastersService
	History  *repository.TransitionHistoryRepository
}

func NewServer(cfg Config, auth AuthConfig, deps Deps, logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	s := &Server{
		router:   router,
		logger:   logger,
		orders:   deps.Orders,
		invoices: deps.Invoices,
		requests: deps.Requests,
		stock:    deps.Stock,
		masters:  deps.Masters,
		history:  deps.History,
		auth:     auth,
	}
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := s.router.Group("/api")
	api.Use(s.requireSession())
	{
		orders := api.Group("/orders")
		orders.GET("", s.listOrders)
		orders.POST("", s.createOrder)
		orders.GET("/stats", s.orderStats)
		orders.POST("/:id/transition", s.transitionOrder)
		orders.DELETE("/:id", s.deleteOrder)

		invoices := api.Group("/invoices")
		invoices.GET("", s.listInvoices)
		invoices.GET("/stats", s.invoiceStats)
		invoices.POST("/:id/transition", s.transitionInvoice)

		requests := api.Group("/requests")
		requests.GET("", s.listRequests)
		requests.GET("/stats", s.requestStats)
		requests.POST("/:id/transition", s.transitionRequest)
		requests.POST("/:id/mark-for-invoice", s.markRequestForInvoice)

		stock := api.Group("/stock-receipts")
		stock.GET("", s.listStockReceipts)
		stock.GET("/stats", s.stockStats)
		stock.POST("/:id/receive", s.receiveStock)
		stock.POST("/:id/approve", s.approveStock)

		api.GET("/customers", s.listCustomers)
		api.GET("/loans", s.listLoans)
		api.GET("/users", s.listUsers)

		api.GET("/history/:entityType/:id", s.entityHistory)
		api.GET("/history", s.recentHistory)

		api.GET("/reports/:collection", s.downloadReport)
	}
}

func (s *Server) Start() error {
	s.logger.Info("starting http server", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(ctx)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}
