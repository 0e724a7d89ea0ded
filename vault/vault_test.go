package vault

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	APIKey      string `json:"apiKey"`
	SecretKey   string `json:"secretKey,omitempty"`
	Password    string `json:"password,omitempty"`
	MerchantID  string `json:"merchantId"`
	CallbackURL string `json:"callbackUrl"`
	Sandbox     bool   `json:"sandbox"`
}

func newTestVault(t *testing.T, key string) *Vault {
	t.Helper()
	v, err := New(key, WithScryptParams(1024, 8, 1))
	require.NoError(t, err)
	return v
}

func TestNewRequiresMasterKey(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, ErrMissingMasterKey)
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	v := newTestVault(t, "master-secret")

	for _, plain := range []string{"", "sk_live_123", "ภาษาไทย", string(make([]byte, 1024))} {
		blob, err := v.Encrypt(plain)
		require.NoError(t, err)

		got, err := v.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, plain, got)
	}
}

func TestEncryptUsesFreshSaltAndIV(t *testing.T) {
	v := newTestVault(t, "master-secret")

	a, err := v.Encrypt("same")
	require.NoError(t, err)
	b, err := v.Encrypt("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestBlobLayout(t *testing.T) {
	v := newTestVault(t, "master-secret")

	blob, err := v.Encrypt("abcd")
	require.NoError(t, err)

	raw, err := base64.StdEncoding.DecodeString(blob)
	require.NoError(t, err)
	assert.Len(t, raw, saltSize+ivSize+tagSize+4)
}

func TestDecryptFailsClosed(t *testing.T) {
	v := newTestVault(t, "master-secret")
	blob, err := v.Encrypt("api-key-value")
	require.NoError(t, err)
	raw, _ := base64.StdEncoding.DecodeString(blob)

	tests := []struct {
		name string
		blob string
		v    *Vault
	}{
		{"tampered ciphertext", flip(raw, len(raw)-1), v},
		{"tampered tag", flip(raw, saltSize+ivSize), v},
		{"tampered salt", flip(raw, 0), v},
		{"truncated", base64.StdEncoding.EncodeToString(raw[:saltSize+ivSize]), v},
		{"not base64", "%%%not-base64%%%", v},
		{"plaintext value", "api-key-value", v},
		{"wrong master key", blob, newTestVault(t, "other-secret")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.v.Decrypt(tt.blob)
			assert.ErrorIs(t, err, ErrDecryptionFailed)
			assert.Empty(t, got)
		})
	}
}

func TestEncryptFieldsOnlySensitive(t *testing.T) {
	v := newTestVault(t, "master-secret")
	cfg := testConfig{
		APIKey:      "key-1",
		SecretKey:   "secret-1",
		MerchantID:  "M001",
		CallbackURL: "https://merchant.example/cb",
		Sandbox:     true,
	}

	blob, err := v.EncryptFields(cfg)
	require.NoError(t, err)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(blob, &stored))
	assert.Equal(t, "M001", stored["merchantId"])
	assert.Equal(t, "https://merchant.example/cb", stored["callbackUrl"])
	assert.Equal(t, true, stored["sandbox"])
	assert.NotEqual(t, "key-1", stored["apiKey"])
	assert.NotEqual(t, "secret-1", stored["secretKey"])
	assert.NotContains(t, stored, "password")

	var got testConfig
	require.NoError(t, v.DecryptFields(blob, &got))
	assert.Equal(t, cfg, got)
}

func TestDecryptFieldsTamperedField(t *testing.T) {
	v := newTestVault(t, "master-secret")
	blob, err := v.EncryptFields(testConfig{APIKey: "key-1", MerchantID: "M001"})
	require.NoError(t, err)

	var stored map[string]any
	require.NoError(t, json.Unmarshal(blob, &stored))
	stored["apiKey"] = "key-1"
	tampered, _ := json.Marshal(stored)

	var got testConfig
	err = v.DecryptFields(tampered, &got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDecryptionFailed))
	assert.Empty(t, got.APIKey)
}

func flip(raw []byte, i int) string {
	c := append([]byte(nil), raw...)
	c[i] ^= 0x01
	return base64.StdEncoding.EncodeToString(c)
}
