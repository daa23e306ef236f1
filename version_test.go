/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package objectstore

import (
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersionInfoFromBuildInfo(t *testing.T) {
	bi := &debug.BuildInfo{
		Deps: []*debug.Module{
			{Path: "go.mongodb.org/mongo-driver", Version: "v1.14.0"},
			{Path: "github.com/aws/aws-sdk-go-v2/service/dynamodb", Version: "v1.30.0",
				Replace: &debug.Module{Path: "github.com/aws/aws-sdk-go-v2/service/dynamodb", Version: "v1.30.1"}},
			{Path: "github.com/rs/zerolog", Version: "v1.33.0"},
		},
		Settings: []debug.BuildSetting{
			{Key: "vcs.revision", Value: "abc123"},
			{Key: "vcs.time", Value: "2025-01-02T03:04:05Z"},
		},
	}

	info := versionInfoFrom(bi)
	assert.Equal(t, Version, info.Version)
	assert.Equal(t, runtime.Version(), info.GoVersion)
	assert.Equal(t, "abc123", info.GitCommit)
	assert.Equal(t, "2025-01-02T03:04:05Z", info.BuildDate)
	assert.Equal(t, map[string]string{
		"go.mongodb.org/mongo-driver":                   "v1.14.0",
		"github.com/aws/aws-sdk-go-v2/service/dynamodb": "v1.30.1",
	}, info.Drivers)
	assert.Equal(t, []string{
		"github.com/aws/aws-sdk-go-v2/service/dynamodb",
		"go.mongodb.org/mongo-driver",
	}, info.DriverNames())
}

func TestVersionInfoBuildFlagsWin(t *testing.T) {
	saved := GitCommit
	GitCommit = "from-flags"
	defer func() { GitCommit = saved }()

	info := versionInfoFrom(&debug.BuildInfo{
		Settings: []debug.BuildSetting{{Key: "vcs.revision", Value: "abc123"}},
	})
	assert.Equal(t, "from-flags", info.GitCommit)
	assert.Nil(t, info.Drivers)
	assert.Empty(t, info.DriverNames())
}

func TestVersionInfoWithoutBuildInfo(t *testing.T) {
	info := versionInfoFrom(nil)
	assert.Equal(t, Version, info.Version)
	assert.NotEqual(t, "unknown", info.GoVersion)

	assert.NotEmpty(t, GetVersionInfo().GoVersion)
}
