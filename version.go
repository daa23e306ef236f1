/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"runtime"
	"runtime/debug"
	"sort"
)

// Version information set by build flags
var (
	// Version is the semantic version of objectstore
	Version = "0.1.0"

	// GitCommit is the git commit hash (set by build flags)
	GitCommit = "unknown"

	// BuildDate is the build date (set by build flags)
	BuildDate = "unknown"

	// GoVersion is the Go version used to build
	GoVersion = "unknown"
)

// DriverModules are the backend driver modules reported by GetVersionInfo.
var DriverModules = []string{
	"go.mongodb.org/mongo-driver",
	"github.com/aws/aws-sdk-go-v2/service/dynamodb",
}

// VersionInfo contains version information
type VersionInfo struct {
	Version   string            `json:"version" yaml:"version"`
	GitCommit string            `json:"gitCommit" yaml:"gitCommit"`
	BuildDate string            `json:"buildDate" yaml:"buildDate"`
	GoVersion string            `json:"goVersion" yaml:"goVersion"`
	Drivers   map[string]string `json:"drivers,omitempty" yaml:"drivers,omitempty"`
}

// DriverNames returns the driver modules present in Drivers, sorted.
func (v VersionInfo) DriverNames() []string {
	names := make([]string, 0, len(v.Drivers))
	for name := range v.Drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetVersionInfo returns the version information. Values not set by build
// flags are taken from the binary's embedded build info.
func GetVersionInfo() VersionInfo {
	bi, _ := debug.ReadBuildInfo()
	return versionInfoFrom(bi)
}

func versionInfoFrom(bi *debug.BuildInfo) VersionInfo {
	info := VersionInfo{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: GoVersion,
	}
	if info.GoVersion == "unknown" {
		info.GoVersion = runtime.Version()
	}
	if bi == nil {
		return info
	}

	for _, s := range bi.Settings {
		switch {
		case s.Key == "vcs.revision" && info.GitCommit == "unknown":
			info.GitCommit = s.Value
		case s.Key == "vcs.time" && info.BuildDate == "unknown":
			info.BuildDate = s.Value
		}
	}

	for _, dep := range bi.Deps {
		for _, driver := range DriverModules {
			if dep.Path != driver {
				continue
			}
			if dep.Replace != nil {
				dep = dep.Replace
			}
			if info.Drivers == nil {
				info.Drivers = make(map[string]string)
			}
			info.Drivers[driver] = dep.Version
		}
	}
	return info
}
