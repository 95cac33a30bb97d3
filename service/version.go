// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"fmt"
	"net/http"
	"runtime"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
)

// Set at build time through -ldflags "-X".
var (
	buildVersion string
	buildHash    string
	buildDate    string
)

type VersionInfo struct {
	BuildDate    string `json:"buildDate"`
	BuildVersion string `json:"buildVersion"`
	BuildHash    string `json:"buildHash"`
	GoVersion    string `json:"goVersion"`
	GoOS         string `json:"goOS"`
	GoArch       string `json:"goArch"`
}

func GetVersionInfo() VersionInfo {
	return VersionInfo{
		BuildDate:    buildDate,
		BuildVersion: buildVersion,
		BuildHash:    buildHash,
		GoVersion:    runtime.Version(),
		GoOS:         runtime.GOOS,
		GoArch:       runtime.GOARCH,
	}
}

func (v VersionInfo) String() string {
	version := v.BuildVersion
	if version == "" {
		version = "dev"
	}
	s := fmt.Sprintf("callgrid %s (%s/%s, %s)", version, v.GoOS, v.GoArch, v.GoVersion)
	if v.BuildHash != "" {
		s += " hash " + v.BuildHash
	}
	if v.BuildDate != "" {
		s += " built " + v.BuildDate
	}
	return s
}

func (v VersionInfo) logFields() []mlog.Field {
	return []mlog.Field{
		mlog.String("buildDate", v.BuildDate),
		mlog.String("buildVersion", v.BuildVersion),
		mlog.String("buildHash", v.BuildHash),
		mlog.String("goVersion", v.GoVersion),
		mlog.String("goOS", v.GoOS),
		mlog.String("goArch", v.GoArch),
	}
}

func (s *Service) getVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}
