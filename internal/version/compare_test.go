package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

func TestCheckConfigCompatibility(t *testing.T) {
	tests := []struct {
		name          string
		toolVersion   string
		configVersion string
		expectError   bool
		errorContains string
	}{
		{
			name:          "exact match",
			toolVersion:   "1.2.0",
			configVersion: "1.2.0",
			expectError:   false,
		},
		{
			name:          "tool patch higher",
			toolVersion:   "1.2.1",
			configVersion: "1.2.0",
			expectError:   false,
		},
		{
			name:          "config patch higher",
			toolVersion:   "1.2.0",
			configVersion: "1.2.5",
			expectError:   false,
		},
		{
			name:          "tool minor higher",
			toolVersion:   "1.3.0",
			configVersion: "1.2.0",
			expectError:   true,
			errorContains: "minor version mismatch",
		},
		{
			name:          "major version differs",
			toolVersion:   "2.0.0",
			configVersion: "1.2.0",
			expectError:   true,
			errorContains: "major version mismatch",
		},
		{
			name:          "tool is main",
			toolVersion:   "main",
			configVersion: "1.3.0",
			expectError:   false,
		},
		{
			name:          "config is main",
			toolVersion:   "1.2.0",
			configVersion: "main",
			expectError:   false,
		},
		{
			name:          "v prefix",
			toolVersion:   "v1.2.0",
			configVersion: "1.2.0",
			expectError:   false,
		},
		{
			name:          "prerelease version",
			toolVersion:   "1.2.0-alpha",
			configVersion: "1.2.0",
			expectError:   false,
		},
		{
			name:          "invalid tool version",
			toolVersion:   "not-a-version",
			configVersion: "1.2.0",
			expectError:   true,
			errorContains: "invalid tool version",
		},
		{
			name:          "invalid config version",
			toolVersion:   "1.2.0",
			configVersion: "not-a-version",
			expectError:   true,
			errorContains: "invalid config version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckConfigCompatibility(tt.toolVersion, tt.configVersion)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
				assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetVersion(t *testing.T) {
	original := Version
	defer func() { Version = original }()

	assert.Equal(t, "main", GetVersion())

	Version = "1.0.0"
	assert.Equal(t, "1.0.0", GetVersion())
}
