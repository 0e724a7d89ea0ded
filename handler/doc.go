// Package handler exposes the payment core over HTTP.
//
// Handlers are thin: they decode and validate the request, call the payment
// service with a bounded context and map the result onto the response
// envelope of infra/response. Service errors carry a kind which decides the
// status code (validation 400, not found 404, signature 401, provider 502,
// everything else 500) and a stable errorCode such as AMOUNT_OUT_OF_RANGE.
//
// # Routes
//
//	GET   /health
//	POST  /webhooks/{provider}
//	POST  /v1/orders
//	GET   /v1/orders/{id}
//	POST  /v1/methods
//	GET   /v1/methods/merchant/{merchantID}
//	GET   /v1/methods/merchant/{merchantID}/available?amount=150.00
//	PATCH /v1/methods/{id}/status
//	PATCH /v1/methods/{id}/enabled
//	POST  /v1/payments
//	GET   /v1/transactions/{id}
//	POST  /v1/transactions/{id}/refund
//	POST  /v1/transactions/{id}/cancel
//	GET   /v1/settlements/{merchantID}?from=2026-05-01T00:00:00Z&to=2026-05-02T00:00:00Z
//	POST  /v1/settlements/{merchantID}
//
// # Webhooks
//
// Webhook bodies are read raw and verified before parsing. The signature is
// taken from the first of X-Webhook-Signature, X-Signature, Signature,
// Stripe-Signature or the signature query parameter; the timestamp from
// X-Webhook-Timestamp.
//
//	POST /webhooks/kbank
//	Headers:
//	  X-Webhook-Signature: 5d41402abc4b2a76b9719d911017c592...
//	  X-Webhook-Timestamp: 1777627800
//	Body:
//	  {"transactionId":"TXN-1A2B3C","status":"SUCCESS"}
package handler
