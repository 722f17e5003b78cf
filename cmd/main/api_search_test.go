package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantol/trawler/pkg/distribution"
)

// TestDistributionConfigResolution covers the three shapes the distribution
// field can take on the wire: absent (use the configured default), explicit
// null (disable shaping, plain uniform fills), and a concrete config.
func TestDistributionConfigResolution(t *testing.T) {
	def := distribution.DefaultConfig()
	fallback := &def

	cases := []struct {
		name string
		body string
		want *distribution.Config
	}{
		{"absent field uses default", `{}`, fallback},
		{"explicit null disables shaping", `{"distribution":null}`, nil},
		{
			"concrete config passes through",
			`{"distribution":{"type":"t-curve","center":0.3,"spread":0.1,"degreesOfFreedom":7}}`,
			&distribution.Config{Type: distribution.TypeTCurve, Center: 0.3, Spread: 0.1, DegreesOfFreedom: 7},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var req searchRequest
			require.NoError(t, json.Unmarshal([]byte(tc.body), &req))
			got, err := req.distributionConfig(fallback)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("malformed config rejected", func(t *testing.T) {
		var req searchRequest
		require.NoError(t, json.Unmarshal([]byte(`{"distribution":"bogus"}`), &req))
		_, err := req.distributionConfig(fallback)
		assert.Error(t, err)
	})
}
