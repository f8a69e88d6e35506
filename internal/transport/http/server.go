package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tahakaan/superapp-server/internal/auth"
	"github.com/tahakaan/superapp-server/internal/config"
	"github.com/tahakaan/superapp-server/internal/realtime"
	"github.com/tahakaan/superapp-server/internal/store"
)

// NewServer builds the HTTP server: REST surface plus the realtime socket.
func NewServer(gateway *realtime.Gateway, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	authHandlers := NewAuthHandlers(authService, logger)
	walletHandlers := NewWalletHandlers(st, logger)
	foodHandlers := NewFoodHandlers(st, logger)
	rideHandlers := NewRideHandlers(st, logger)
	profileHandlers := NewProfileHandlers(st, authService, logger)
	addressHandlers := NewAddressHandlers(st, logger)
	messageHandlers := NewMessageHandlers(st, logger)

	router.GET("/health", func(c *gin.Context) { c.String(stdhttp.StatusOK, "ok") })
	router.POST("/auth/register", authHandlers.Register)
	router.POST("/login", authHandlers.Login)
	router.GET("/food/list", foodHandlers.ListMenu)
	router.GET("/ws", gin.WrapH(NewWSHandler(gateway, logger)))

	protected := router.Group("", AuthMiddleware(authService, logger))
	{
		protected.GET("/wallet/balance", walletHandlers.Balance)
		protected.POST("/wallet/add", walletHandlers.AddFunds)
		protected.POST("/wallet/transfer", walletHandlers.Transfer)
		protected.GET("/wallet/transactions", walletHandlers.Transactions)

		protected.POST("/food/order", foodHandlers.CreateOrder)
		protected.GET("/food/orders", foodHandlers.ListOrders)

		protected.POST("/ride/request", rideHandlers.RequestRide)
		protected.POST("/ride/complete", rideHandlers.CompleteRide)
		protected.GET("/ride/history", rideHandlers.History)

		protected.GET("/profile", profileHandlers.Get)
		protected.PUT("/profile", profileHandlers.Update)
		protected.PUT("/profile/password", profileHandlers.ChangePassword)

		protected.GET("/addresses", addressHandlers.List)
		protected.POST("/addresses", addressHandlers.Create)
		protected.PUT("/addresses/:id", addressHandlers.Update)
		protected.DELETE("/addresses/:id", addressHandlers.Delete)

		protected.GET("/api/users", messageHandlers.ListUsers)
		protected.GET("/api/messages/:userID", messageHandlers.History)
	}

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
