package version

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ErrInvalidVersion is returned when a version string is not valid semver.
var ErrInvalidVersion = errors.New("invalid version")

// CheckConfigCompatibility checks if a configuration file written for
// configVersion can be read by a tool at toolVersion.
// Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - An empty config version is always accepted
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - The config may not require a newer minor version than the tool provides
//
// Examples:
//   - Tool 1.2.0, Config 1.2.0 -> OK
//   - Tool 1.3.0, Config 1.2.0 -> OK (older config, same major)
//   - Tool 1.2.0, Config 1.3.0 -> ERROR (config needs a newer tool)
//   - Tool 2.0.0, Config 1.2.0 -> ERROR (major differs)
func CheckConfigCompatibility(toolVersion, configVersion string) error {
	if configVersion == "" {
		return nil
	}

	toolVersion = strings.TrimPrefix(toolVersion, "v")
	configVersion = strings.TrimPrefix(configVersion, "v")

	if toolVersion == "main" || configVersion == "main" {
		return nil
	}

	toolSemver, err := semver.NewVersion(toolVersion)
	if err != nil {
		return fmt.Errorf("%w: tool version '%s': %w", ErrInvalidVersion, toolVersion, err)
	}

	configSemver, err := semver.NewVersion(configVersion)
	if err != nil {
		return fmt.Errorf("%w: config version '%s': %w", ErrInvalidVersion, configVersion, err)
	}

	if toolSemver.Major() != configSemver.Major() {
		return fmt.Errorf("major version mismatch: tool is %d.x.x but config requires %d.x.x",
			toolSemver.Major(), configSemver.Major())
	}

	if configSemver.Minor() > toolSemver.Minor() {
		return fmt.Errorf("config requires %d.%d.x but tool is %s",
			configSemver.Major(), configSemver.Minor(), toolSemver.String())
	}

	return nil
}
