package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackbox-racing/blackboxd/api"
)

func TestUpdateConfigValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		config    api.UpdateConfig
		expectErr bool
	}{
		{
			name:      "Empty config",
			config:    api.UpdateConfig{},
			expectErr: false,
		},
		{
			name: "Valid config",
			config: api.UpdateConfig{
				GithubRepo:     "blackbox-racing/blackbox-driver",
				CheckFrequency: "6h",
			},
			expectErr: false,
		},
		{
			name: "Checks disabled",
			config: api.UpdateConfig{
				CheckFrequency: "never",
			},
			expectErr: false,
		},
		{
			name: "Repository without owner",
			config: api.UpdateConfig{
				GithubRepo: "/blackbox-driver",
			},
			expectErr: true,
		},
		{
			name: "Repository with extra separator",
			config: api.UpdateConfig{
				GithubRepo: "blackbox-racing/blackbox/driver",
			},
			expectErr: true,
		},
		{
			name: "Invalid frequency",
			config: api.UpdateConfig{
				CheckFrequency: "sometimes",
			},
			expectErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := tc.config.Validate()
			if tc.expectErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
