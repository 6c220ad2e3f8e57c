package carrier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvironment(t *testing.T) {
	tests := []struct {
		in      string
		want    Environment
		wantErr bool
	}{
		{in: "", want: EnvironmentProduction},
		{in: "production", want: EnvironmentProduction},
		{in: "PROD", want: EnvironmentProduction},
		{in: " Sandbox ", want: EnvironmentSandbox},
		{in: "staging", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			env, err := ParseEnvironment(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, env)
		})
	}
}

func TestConfig_EndpointResolution(t *testing.T) {
	tests := []struct {
		name         string
		config       Config
		wantToken    string
		wantPurchase string
		wantLookup   string
	}{
		{
			name:         "default production",
			config:       Config{Environment: EnvironmentProduction},
			wantToken:    "https://apigee-prod.altanredes.com/v1/oauth/accesstoken?grant-type=client_credentials",
			wantPurchase: "https://apigee-prod.altanredes.com/cm/v1/products/purchase",
			wantLookup:   "https://apigee-prod.altanredes.com/cm/v1/subscribers/5512345678/profile",
		},
		{
			name:         "sandbox segment stripped from base",
			config:       Config{BaseURL: "https://carrier.test/cm-sandbox/", Environment: EnvironmentSandbox},
			wantToken:    "https://carrier.test/v1/oauth/accesstoken?grant-type=client_credentials",
			wantPurchase: "https://carrier.test/cm-sandbox/v1/products/purchase",
			wantLookup:   "https://carrier.test/cm/v1/subscribers/5512345678/profile",
		},
		{
			name:         "production segment stripped from base",
			config:       Config{BaseURL: "https://carrier.test/cm", Environment: EnvironmentProduction},
			wantToken:    "https://carrier.test/v1/oauth/accesstoken?grant-type=client_credentials",
			wantPurchase: "https://carrier.test/cm/v1/products/purchase",
			wantLookup:   "https://carrier.test/cm/v1/subscribers/5512345678/profile",
		},
		{
			name:         "explicit token endpoint used verbatim",
			config:       Config{BaseURL: "https://carrier.test", TokenEndpoint: "https://auth.test/oauth?x=1", Environment: EnvironmentSandbox},
			wantToken:    "https://auth.test/oauth?x=1",
			wantPurchase: "https://carrier.test/cm-sandbox/v1/products/purchase",
			wantLookup:   "https://carrier.test/cm/v1/subscribers/5512345678/profile",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantToken, tt.config.TokenURL())
			assert.Equal(t, tt.wantPurchase, tt.config.PurchaseURL())
			assert.Equal(t, tt.wantLookup, tt.config.LookupURL("5512345678"))
		})
	}
}
