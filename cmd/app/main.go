package main

import (
	"context"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"log"
	"os"
	"tably/cmd/fx/db_fx"
	"tably/cmd/fx/payments_fx"
	"tably/internal/api/controllers"
	"tably/pkg/middleware"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	app := fx.New(
		db_fx.Module,
		payments_fx.Module,

		fx.Invoke(StartServer),
		fx.Provide(ProvideRouter),
	)

	app.Run()
}

func StartServer(lc fx.Lifecycle, engine *gin.Engine) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Println("Starting HTTP server at ${PORT}")
				if err := engine.Run(":" + os.Getenv("PORT")); err != nil {
					log.Fatalf("Failed to start server: %v", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Println("Stopping HTTP server")
			return nil
		},
	})
}

func ProvideRouter(paymentController *controllers.PaymentController) *gin.Engine {

	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.TraceIDMiddleware())

	RegisterRoutes(r, paymentController)

	return r
}

func RegisterRoutes(r *gin.Engine, paymentController *controllers.PaymentController) {

	payments := r.Group("/payments", middleware.JWTAuthMiddleware())
	payments.POST("/qr", paymentController.CreateQRPayment)
	payments.GET("/status/:providerOrderId", paymentController.GetPaymentStatus)

	// The gateway pushes here; the checksum on the payload is the auth.
	r.POST("/payments/callback", paymentController.HandleGatewayCallback)
}
