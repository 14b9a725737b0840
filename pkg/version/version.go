// Package version exposes the build version of the gr237 server binary.
package version

import "runtime/debug"

// version is overridable at build time:
// -ldflags "-X github.com/goldenstatedata/gr237/pkg/version.version=v1.2.3".
var version = "dev"

// Version reports the module version from embedded build info when present,
// falling back to the ldflags value.
func Version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}

// Set assigns the version at runtime for local development builds.
func Set(v string) {
	if v != "" {
		version = v
	}
}
