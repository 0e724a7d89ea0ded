package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var payload = []byte(`{"transactionId":"TXN-ABC123","status":"success","amount":"100.00"}`)

func newVerifier(cfg Config, now time.Time) *Verifier {
	v := NewVerifier(cfg)
	v.now = func() time.Time { return now }
	return v
}

func TestSchemeFor(t *testing.T) {
	tests := []struct {
		provider string
		want     Scheme
	}{
		{"kbank", Scheme{HMACSHA256, Hex}},
		{"SCB", Scheme{HMACSHA512, Hex}},
		{"scb_easy", Scheme{HMACSHA512, Hex}},
		{"truemoney", Scheme{HMACSHA256, Base64}},
		{"c2c2p", Scheme{HMACSHA256, Hex}},
		{"stripe", Scheme{HMACSHA256, StripeHeader}},
		{"promptpay", DefaultScheme},
		{"unknown", DefaultScheme},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			if got := SchemeFor(tt.provider); got != tt.want {
				t.Errorf("SchemeFor(%q) = %v, want %v", tt.provider, got, tt.want)
			}
		})
	}
}

func TestVerifyPerProvider(t *testing.T) {
	now := time.Now()
	providers := []string{"kbank", "scb_easy", "truemoney", "gbprimepay", "omise", "2c2p", "promptpay"}
	secrets := map[string]string{}
	for _, p := range providers {
		secrets[p] = "secret-" + p
	}
	v := newVerifier(Config{Secrets: secrets}, now)

	for _, p := range providers {
		t.Run(p, func(t *testing.T) {
			sig := Sign(p, secrets[p], payload)
			assert.True(t, v.Verify(p, payload, sig, ""))
			assert.False(t, v.Verify(p, payload, Sign(p, "wrong", payload), ""))
			assert.False(t, v.Verify(p, append(append([]byte(nil), payload...), ' '), sig, ""))
		})
	}
}

func TestVerifyRejectsEveryBitFlip(t *testing.T) {
	v := newVerifier(Config{Secrets: map[string]string{"kbank": "s3cret", "truemoney": "s3cret"}}, time.Now())

	digest, _ := hex.DecodeString(Sign("kbank", "s3cret", payload))
	for i := 0; i < len(digest)*8; i++ {
		flipped := append([]byte(nil), digest...)
		flipped[i/8] ^= 1 << (i % 8)
		if v.Verify("kbank", payload, hex.EncodeToString(flipped), "") {
			t.Fatalf("bit %d flipped signature verified", i)
		}
	}

	digest, _ = base64.StdEncoding.DecodeString(Sign("truemoney", "s3cret", payload))
	for i := 0; i < len(digest)*8; i++ {
		flipped := append([]byte(nil), digest...)
		flipped[i/8] ^= 1 << (i % 8)
		if v.Verify("truemoney", payload, base64.StdEncoding.EncodeToString(flipped), "") {
			t.Fatalf("bit %d flipped signature verified", i)
		}
	}
}

func TestVerifyAcceptsUppercaseHexAndPrefix(t *testing.T) {
	v := newVerifier(Config{Secrets: map[string]string{"omise": "k"}}, time.Now())
	sig := Sign("omise", "k", payload)

	assert.True(t, v.Verify("omise", payload, "sha256="+sig, ""))
	assert.True(t, v.Verify("omise", payload, fmt.Sprintf("%X", mustHex(sig)), ""))
}

func TestCheckTimestamp(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	sig := Sign("kbank", "k", payload)
	ts := func(d time.Duration) string { return strconv.FormatInt(now.Add(d).Unix(), 10) }

	tests := []struct {
		name      string
		require   bool
		timestamp string
		wantErr   error
	}{
		{"no timestamp optional", false, "", nil},
		{"no timestamp required", true, "", ErrMissingTimestamp},
		{"fresh", true, ts(0), nil},
		{"edge of window", false, ts(-DefaultMaxSkew), nil},
		{"stale", false, ts(-DefaultMaxSkew - time.Second), ErrStaleTimestamp},
		{"future", false, ts(DefaultMaxSkew + time.Minute), ErrStaleTimestamp},
		{"garbage", false, "yesterday", ErrInvalidTimestamp},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVerifier(Config{Secrets: map[string]string{"kbank": "k"}, RequireTimestamp: tt.require}, now)
			err := v.Check("kbank", payload, sig, tt.timestamp)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestMissingSecret(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	fresh := strconv.FormatInt(now.Unix(), 10)
	stale := strconv.FormatInt(now.Add(-time.Hour).Unix(), 10)
	dev := Config{Development: true, AllowUnsigned: true}

	tests := []struct {
		name      string
		cfg       Config
		timestamp string
		want      bool
	}{
		{"production rejects", Config{}, "", false},
		{"allow flag outside development ignored", Config{AllowUnsigned: true}, "", false},
		{"development without flag rejects", Config{Development: true}, "", false},
		{"development with flag accepts", dev, "", true},
		{"development with flag accepts fresh timestamp", dev, fresh, true},
		{"development with flag rejects stale timestamp", dev, stale, false},
		{"development with flag still requires timestamp", Config{Development: true, AllowUnsigned: true, RequireTimestamp: true}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newVerifier(tt.cfg, now)
			assert.Equal(t, tt.want, v.Verify("kbank", payload, "", tt.timestamp))
		})
	}
}

func TestMissingSignature(t *testing.T) {
	v := newVerifier(Config{Secrets: map[string]string{"kbank": "k"}}, time.Now())
	assert.ErrorIs(t, v.Check("kbank", payload, "  ", ""), ErrMissingSignature)
	assert.ErrorIs(t, v.Check("kbank", payload, "zz-not-hex", ""), ErrInvalidSignature)
}

func TestStripeHeader(t *testing.T) {
	v := NewVerifier(Config{Secrets: map[string]string{"stripe": "whsec_test"}})

	header := func(ts int64) string {
		h := hmac.New(sha256.New, []byte("whsec_test"))
		fmt.Fprintf(h, "%d.%s", ts, payload)
		return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(h.Sum(nil)))
	}

	assert.True(t, v.Verify("stripe", payload, header(time.Now().Unix()), ""))
	assert.False(t, v.Verify("stripe", payload, header(time.Now().Add(-time.Hour).Unix()), ""))
	assert.False(t, v.Verify("stripe", []byte(`{}`), header(time.Now().Unix()), ""))
}

func mustHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}
