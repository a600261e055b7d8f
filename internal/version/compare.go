package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/rxtech-lab/argo-quotes/pkg/errors"
)

// Development marks a build without a release version.
const Development = "main"

// CheckConfigCompatibility checks that a configuration file written for configVersion
// can be read by toolVersion.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major and minor versions must match exactly
//   - Patch versions can differ (e.g., a 1.2.0 file is read by 1.2.5)
func CheckConfigCompatibility(toolVersion, configVersion string) error {
	toolVersion = strings.TrimPrefix(toolVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if toolVersion == Development || configVersion == Development {
		return nil
	}

	tool, err := semver.NewVersion(toolVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid tool version '%s'", toolVersion)
	}

	config, err := semver.NewVersion(configVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid config version '%s'", configVersion)
	}

	if tool.Major() != config.Major() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"major version mismatch: quotes is %d.x.x but the config was written for %d.x.x",
			tool.Major(), config.Major())
	}

	if tool.Minor() != config.Minor() {
		return errors.Newf(errors.ErrCodeInvalidConfiguration,
			"minor version mismatch: quotes is %d.%d.x but the config was written for %d.%d.x",
			tool.Major(), tool.Minor(), config.Major(), config.Minor())
	}

	return nil
}
