package payments_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"
	"tably/internal/api/controllers"
	"tably/internal/gateway/paytm"
	"tably/internal/repositories"
	"tably/internal/services"
)

var Module = fx.Provide(
	providePaymentConfigRepository,
	providePaymentTransactionRepository,
	provideOrderRepository,
	provideGatewayClient,
	providePaymentService,
	providePaymentController,
)

func providePaymentConfigRepository(db *gorm.DB) repositories.PaymentConfigRepositoryInterface {
	return repositories.NewPaymentConfigRepository(db)
}

func providePaymentTransactionRepository(db *gorm.DB) repositories.PaymentTransactionRepositoryInterface {
	return repositories.NewPaymentTransactionRepository(db)
}

func provideOrderRepository(db *gorm.DB) repositories.OrderRepositoryInterface {
	return repositories.NewOrderRepository(db)
}

func provideGatewayClient() *paytm.Client {
	return paytm.NewClient()
}

func providePaymentService(
	configs repositories.PaymentConfigRepositoryInterface,
	transactions repositories.PaymentTransactionRepositoryInterface,
	orders repositories.OrderRepositoryInterface,
	gateway *paytm.Client,
) services.PaymentService {
	return services.NewPaymentService(configs, transactions, orders, gateway)
}

func providePaymentController(paymentService services.PaymentService) *controllers.PaymentController {
	return controllers.NewPaymentController(paymentService)
}
