package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/zaibaki/auth-backend/internal/domain"
	"github.com/zaibaki/auth-backend/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	jwtSvc *service.JWTService,
	userSvc *service.UserService,
	authH *AuthHandler,
	userH *UserHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	auth := r.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)
	auth.GET("/verify-email", authH.VerifyEmail)
	auth.POST("/resend-verification", authH.ResendVerification)
	auth.POST("/refresh-token", authH.RefreshToken)
	auth.POST("/logout", authH.Logout)
	auth.POST("/oauth", authH.FederatedLogin)

	users := r.Group("/users", JWTAuthMiddleware(jwtSvc))
	users.GET("/me", userH.GetCurrentUser)
	users.GET("/:id", userH.GetUserByID)
	users.PUT("/:id", userH.UpdateUser)
	users.POST("/change-password", userH.ChangePassword)
	users.GET("", RequireRole(userSvc, domain.RoleAdmin), userH.ListUsers)
	users.DELETE("/:id", RequireRole(userSvc, domain.RoleAdmin), userH.DeleteUser)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
