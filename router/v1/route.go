package v1

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/handler"
)

// Service is everything the /v1 routes need from the payment core.
type Service interface {
	handler.OrderService
	handler.MethodService
	handler.PaymentService
	handler.SettlementService
}

// Routes registers all API routes
func Routes(r chi.Router, service Service, validate *validator.Validate) {
	orderHandler := handler.NewOrderHandler(service, validate)
	methodHandler := handler.NewMethodHandler(service, validate)
	paymentHandler := handler.NewPaymentHandler(service, validate)
	settlementHandler := handler.NewSettlementHandler(service, validate)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orderHandler.CreateOrder)
		r.Get("/{id}", orderHandler.GetOrder)
	})

	r.Route("/methods", func(r chi.Router) {
		r.Post("/", methodHandler.RegisterMethod)
		r.Get("/merchant/{merchantID}", methodHandler.ListMethods)
		r.Get("/merchant/{merchantID}/available", methodHandler.ListAvailableMethods)
		r.Patch("/{id}/status", methodHandler.UpdateStatus)
		r.Patch("/{id}/enabled", methodHandler.SetEnabled)
	})

	r.Post("/payments", paymentHandler.ProcessPayment)

	r.Route("/transactions", func(r chi.Router) {
		r.Get("/{id}", paymentHandler.GetTransaction)
		r.Post("/{id}/refund", paymentHandler.RefundTransaction)
		r.Post("/{id}/cancel", paymentHandler.CancelTransaction)
	})

	r.Route("/settlements", func(r chi.Router) {
		r.Get("/{merchantID}", settlementHandler.Summary)
		r.Post("/{merchantID}", settlementHandler.Create)
	})
}
