// Package thaipay is a payment gateway core for Thai merchants. It takes an
// order, routes it to one of the configured payment methods and tracks the
// resulting transaction until the provider confirms or rejects it.
//
// # Supported Providers
//
// Adapters live under provider/ and register themselves on import:
//
//   - PromptPay: EMV QR codes generated locally
//   - KBank: Kasikornbank QR payments
//   - SCB Easy: Siam Commercial Bank deep links
//   - TrueMoney: TrueMoney Wallet
//   - GB Prime Pay: QR and hosted checkout
//   - 2C2P: hosted payment page
//   - Omise: sources and charges
//   - Stripe: PromptPay through Stripe payment intents
//
// # Packages
//
//   - model: orders, transactions, payment methods and settlements
//   - payment: the service tying storage, adapters and callbacks together
//   - provider: the adapter contract, registry and fee schedules
//   - signature: HMAC webhook verification
//   - vault: credential encryption at rest
//   - handler, router: the HTTP surface
//   - infra: config, logging, storage, locking and middleware
//
// # Quick Start
//
//	import (
//	    "github.com/mstgnz/thaipay/infra/storage"
//	    "github.com/mstgnz/thaipay/payment"
//	    "github.com/mstgnz/thaipay/provider"
//	    "github.com/mstgnz/thaipay/signature"
//	    _ "github.com/mstgnz/thaipay/provider/promptpay"
//	)
//
//	store := storage.NewMemory()
//	svc, err := payment.New(payment.Deps{
//	    Methods:      store.Methods(),
//	    Transactions: store.Transactions(),
//	    Orders:       store.Orders(),
//	    Vault:        v,
//	    Adapters:     provider.NewSet(nil, provider.Options{}),
//	    Verifier:     signature.NewVerifier(signature.Config{Secrets: secrets}),
//	})
//
//	order, _ := svc.CreateOrder(ctx, payment.CreateOrderInput{...})
//	res, _ := svc.GeneratePaymentRequest(ctx, payment.PaymentRequest{
//	    OrderID:         order.ID,
//	    PaymentMethodID: methodID,
//	})
//
// res.Payload carries either a QR image with its raw EMV string or a URL the
// payer should be sent to.
//
// # HTTP API
//
//	POST /v1/orders
//	POST /v1/methods
//	GET  /v1/methods/merchant/{merchantID}/available?amount=150.00
//	POST /v1/payments
//	GET  /v1/transactions/{id}
//	POST /v1/transactions/{id}/refund
//	POST /v1/settlements/{merchantID}
//	POST /webhooks/{provider}
//
// Routes under /v1 require "Authorization: Bearer <API_KEY>" when API_KEY is
// set. Webhooks are authenticated by their HMAC signature instead.
//
// # Configuration
//
// Everything is read from the environment, optionally seeded from a .env
// file. See infra/config for the full list.
package thaipay
