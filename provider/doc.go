// Package provider defines the contract every Thai payment provider adapter
// implements and the registry that hands adapters to the payment core.
//
// # Core Concepts
//
//   - Adapter: turns a pending transaction into a provider payload
//   - Payload: a QR image with its raw string, or a redirect/deep link URL
//   - Credentials: per-method configuration, decrypted by the caller
//   - Registry and Set: factory lookup and cached adapter instances
//   - FeeTable: default fee schedules with environment overrides
//
// # Registering an Adapter
//
// Adapter packages register a factory from init, so importing them for side
// effects is enough:
//
//	import _ "github.com/mstgnz/thaipay/provider/kbank"
//
//	set := provider.NewSet(nil, provider.Options{Timeout: 10 * time.Second})
//	adapter, err := set.For(model.ProviderKBank)
//
// # Credentials
//
// Each adapter lists the fields it needs through RequiredConfig.
// ValidateCredentials checks a configuration against that list before a
// method is stored:
//
//	fields := adapter.RequiredConfig()
//	if err := provider.ValidateCredentials(model.ProviderKBank, creds, fields); err != nil {
//	    return err
//	}
//
// # Errors
//
// Adapter failures are returned as *Error so the payment core can tag them
// with the provider and map them to a 502.
package provider
