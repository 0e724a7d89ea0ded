package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/mstgnz/thaipay/handler"
	"github.com/mstgnz/thaipay/infra/middle"
	"github.com/mstgnz/thaipay/infra/validate"
	v1 "github.com/mstgnz/thaipay/router/v1"
)

// Deps carries what the routes are built from.
type Deps struct {
	Service   Service
	Storage   handler.Pinger
	Providers handler.ProviderCatalog
	Validate  *validator.Validate

	// APIKey guards /v1 when set.
	APIKey string
	// WebhookLimiter throttles /webhooks per client IP when set.
	WebhookLimiter *middle.RateLimiter

	Environment string
	Version     string
}

// Service is the payment core as seen by the HTTP layer.
type Service interface {
	v1.Service
	handler.WebhookService
}

func Routes(r chi.Router, d Deps) {
	v := d.Validate
	if v == nil {
		v = validate.New()
	}

	r.Use(middle.RequestIDMiddleware())
	r.Use(middle.PanicRecoveryMiddleware())
	r.Use(middle.RequestLogMiddleware())
	r.Use(middle.SecurityHeadersMiddleware())
	r.Use(middle.RequestValidationMiddleware())

	r.Get("/health", handler.NewHealthHandler(d.Storage, d.Providers, d.Environment, d.Version).CheckHealth)

	webhookHandler := handler.NewWebhookHandler(d.Service)
	r.Group(func(r chi.Router) {
		if d.WebhookLimiter != nil {
			r.Use(middle.RateLimitMiddleware(d.WebhookLimiter))
		}
		r.Post("/webhooks/{provider}", webhookHandler.HandleWebhook)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Use(middle.APIKeyMiddleware(d.APIKey))
		v1.Routes(r, d.Service, v)
	})
}
