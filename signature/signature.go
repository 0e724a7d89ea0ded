// Package signature verifies inbound provider webhooks.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strconv"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrNoSecret         = errors.New("signature: no webhook secret configured for provider")
	ErrMissingSignature = errors.New("signature: missing signature")
	ErrInvalidSignature = errors.New("signature: invalid signature")
	ErrMissingTimestamp = errors.New("signature: missing timestamp")
	ErrInvalidTimestamp = errors.New("signature: malformed timestamp")
	ErrStaleTimestamp   = errors.New("signature: timestamp outside allowed window")
)

// DefaultMaxSkew is the accepted distance between a webhook timestamp and now.
const DefaultMaxSkew = 5 * time.Minute

// Algorithm selects the HMAC hash.
type Algorithm string

const (
	HMACSHA256 Algorithm = "hmac-sha256"
	HMACSHA512 Algorithm = "hmac-sha512"
)

// Encoding selects how the digest travels on the wire.
type Encoding string

const (
	Hex    Encoding = "hex"
	Base64 Encoding = "base64"
	// StripeHeader is Stripe's "t=...,v1=..." header, verified by stripe-go.
	StripeHeader Encoding = "stripe"
)

// Scheme is a provider's signing scheme.
type Scheme struct {
	Algorithm Algorithm
	Encoding  Encoding
}

// DefaultScheme applies to providers without a specific entry.
var DefaultScheme = Scheme{Algorithm: HMACSHA256, Encoding: Hex}

var schemes = map[string]Scheme{
	"kbank":      {HMACSHA256, Hex},
	"scb_easy":   {HMACSHA512, Hex},
	"truemoney":  {HMACSHA256, Base64},
	"gbprimepay": {HMACSHA256, Hex},
	"omise":      {HMACSHA256, Hex},
	"2c2p":       {HMACSHA256, Hex},
	"stripe":     {HMACSHA256, StripeHeader},
}

var aliases = map[string]string{
	"scb":      "scb_easy",
	"scbeasy":  "scb_easy",
	"c2c2p":    "2c2p",
	"twoc2p":   "2c2p",
	"kasikorn": "kbank",
}

// Normalize maps a provider path segment onto its canonical provider id.
func Normalize(provider string) string {
	p := strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := aliases[p]; ok {
		return canonical
	}
	return p
}

// SchemeFor returns the signing scheme of provider.
func SchemeFor(provider string) Scheme {
	if s, ok := schemes[Normalize(provider)]; ok {
		return s
	}
	return DefaultScheme
}

// Config configures a Verifier.
type Config struct {
	// Secrets maps canonical provider ids to HMAC secrets.
	Secrets map[string]string
	// Development must be true for AllowUnsigned to have any effect.
	Development   bool
	AllowUnsigned bool
	// RequireTimestamp rejects webhooks without a timestamp.
	RequireTimestamp bool
	MaxSkew          time.Duration
}

// Verifier checks webhook signatures per provider.
type Verifier struct {
	secrets          map[string]string
	allowUnsigned    bool
	requireTimestamp bool
	maxSkew          time.Duration
	now              func() time.Time
}

// NewVerifier builds a Verifier. The unsigned bypass is only honored when the
// config is explicitly marked as development.
func NewVerifier(cfg Config) *Verifier {
	secrets := make(map[string]string, len(cfg.Secrets))
	for k, v := range cfg.Secrets {
		if v != "" {
			secrets[Normalize(k)] = v
		}
	}
	skew := cfg.MaxSkew
	if skew <= 0 {
		skew = DefaultMaxSkew
	}
	return &Verifier{
		secrets:          secrets,
		allowUnsigned:    cfg.Development && cfg.AllowUnsigned,
		requireTimestamp: cfg.RequireTimestamp,
		maxSkew:          skew,
		now:              time.Now,
	}
}

// Verify reports whether the payload is authentic.
func (v *Verifier) Verify(provider string, payload []byte, sig, timestamp string) bool {
	return v.Check(provider, payload, sig, timestamp) == nil
}

// Check is Verify with the reason for rejection.
func (v *Verifier) Check(provider string, payload []byte, sig, timestamp string) error {
	provider = Normalize(provider)
	secret, ok := v.secrets[provider]
	if !ok {
		if v.allowUnsigned {
			return v.checkTimestamp(timestamp)
		}
		return fmt.Errorf("%w: %s", ErrNoSecret, provider)
	}

	sig = strings.TrimSpace(sig)
	if sig == "" {
		return ErrMissingSignature
	}

	scheme := SchemeFor(provider)
	if scheme.Encoding == StripeHeader {
		// The Stripe header carries its own timestamp.
		if err := webhook.ValidatePayloadWithTolerance(payload, sig, secret, v.maxSkew); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
		}
		return nil
	}

	if err := v.checkTimestamp(timestamp); err != nil {
		return err
	}

	supplied, err := decode(scheme.Encoding, stripPrefix(sig))
	if err != nil {
		return ErrInvalidSignature
	}
	if !hmac.Equal(supplied, mac(scheme.Algorithm, secret, payload)) {
		return ErrInvalidSignature
	}
	return nil
}

func (v *Verifier) checkTimestamp(timestamp string) error {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		if v.requireTimestamp {
			return ErrMissingTimestamp
		}
		return nil
	}
	secs, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidTimestamp
	}
	skew := v.now().Sub(time.Unix(secs, 0))
	if skew < 0 {
		skew = -skew
	}
	if skew > v.maxSkew {
		return ErrStaleTimestamp
	}
	return nil
}

// Sign computes the signature a provider would send for payload. Stripe
// headers are not produced here.
func Sign(provider, secret string, payload []byte) string {
	scheme := SchemeFor(provider)
	digest := mac(scheme.Algorithm, secret, payload)
	if scheme.Encoding == Base64 {
		return base64.StdEncoding.EncodeToString(digest)
	}
	return hex.EncodeToString(digest)
}

func mac(alg Algorithm, secret string, payload []byte) []byte {
	var fn func() hash.Hash = sha256.New
	if alg == HMACSHA512 {
		fn = sha512.New
	}
	h := hmac.New(fn, []byte(secret))
	h.Write(payload)
	return h.Sum(nil)
}

func decode(enc Encoding, sig string) ([]byte, error) {
	if enc == Base64 {
		return base64.StdEncoding.DecodeString(sig)
	}
	return hex.DecodeString(sig)
}

// stripPrefix drops an "sha256=" style algorithm label.
func stripPrefix(sig string) string {
	i := strings.IndexByte(sig, '=')
	if i <= 0 {
		return sig
	}
	switch strings.ToLower(sig[:i]) {
	case "sha256", "sha512":
		return sig[i+1:]
	}
	return sig
}
