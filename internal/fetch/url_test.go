package fetch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		rawURL     string
		wantDomain string
		wantErr    bool
	}{
		{name: "plain https", rawURL: "https://www.example.com/about", wantDomain: "example.com"},
		{name: "subdomain collapses to registrable domain", rawURL: "https://shop.eu.example.co.uk/", wantDomain: "example.co.uk"},
		{name: "http with port", rawURL: "http://example.com:8080/x", wantDomain: "example.com"},
		{name: "ip literal", rawURL: "http://127.0.0.1:9000/robots.txt", wantDomain: "127.0.0.1"},
		{name: "ftp scheme", rawURL: "ftp://example.com/file", wantErr: true},
		{name: "scheme relative", rawURL: "//example.com/page", wantErr: true},
		{name: "no host", rawURL: "https:///path-only", wantErr: true},
		{name: "bare words", rawURL: "not a url", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, domain, err := ValidateURL(tc.rawURL)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantDomain, domain)
		})
	}
}

func TestRegistrableDomainFallsBackToHost(t *testing.T) {
	t.Parallel()

	require.Equal(t, "localhost", RegistrableDomain("localhost:8080"))
	require.Equal(t, "::1", RegistrableDomain("[::1]:8080"))
	require.Equal(t, "intranet", RegistrableDomain("intranet"))
}
