// Copyright (c) 2022-present Mattermost, Inc. All Rights Reserved.
// See LICENSE.txt for license information.

package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/mattermost/mattermost/server/public/shared/mlog"
	"github.com/prometheus/procfs"
)

var cpuSampleDuration = time.Second

type SystemInfo struct {
	CPULoad float64 `json:"cpu_load"`
}

func cpuTimes(stat procfs.Stat) (idle, total float64) {
	c := stat.CPUTotal
	idle = c.Idle + c.Iowait
	total = idle + c.User + c.Nice + c.System + c.IRQ + c.SoftIRQ + c.Steal
	return idle, total
}

// cpuLoad samples the host CPU usage over the given duration. The result is
// in the [0, 1] range.
func cpuLoad(fs procfs.FS, sample time.Duration) (float64, error) {
	st1, err := fs.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to get cpu stat: %w", err)
	}
	time.Sleep(sample)
	st2, err := fs.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to get cpu stat: %w", err)
	}

	idle1, total1 := cpuTimes(st1)
	idle2, total2 := cpuTimes(st2)
	if total2 <= total1 {
		return 0, nil
	}

	return 1 - (idle2-idle1)/(total2-total1), nil
}

func (s *Service) getSystemInfo(w http.ResponseWriter, _ *http.Request) {
	var info SystemInfo

	fs, err := procfs.NewDefaultFS()
	if err != nil {
		s.log.Error("failed to open procfs", mlog.Err(err))
	} else if info.CPULoad, err = cpuLoad(fs, cpuSampleDuration); err != nil {
		s.log.Error("failed to get cpu load", mlog.Err(err))
	}

	s.writeJSON(w, http.StatusOK, info)
}
