// Package version reports the build version.
package version

import (
	"strings"

	"golang.org/x/mod/semver"
)

// Version is set at build time with -ldflags "-X .../version.Version=v1.2.3".
var Version = "dev"

// Normalize ensures version string has "v" prefix for semver compatibility.
// Examples: "1.2.3" -> "v1.2.3", "v1.2.3" -> "v1.2.3"
func Normalize(version string) string {
	if version == "" {
		return ""
	}
	version = strings.TrimSpace(version)
	if !strings.HasPrefix(version, "v") {
		return "v" + version
	}
	return version
}

// IsRelease reports whether the build carries a valid semantic version.
func IsRelease() bool {
	return semver.IsValid(Normalize(Version))
}

// Current returns the canonical version of a release build, or the raw
// build string otherwise.
func Current() string {
	if IsRelease() {
		return semver.Canonical(Normalize(Version))
	}
	return Version
}
