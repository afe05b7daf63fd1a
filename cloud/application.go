/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloud

import (
	"encoding/json"
	"github.com/pkg/errors"
)

/**
Limits of the application instance
*/

type Limits struct {
	Mem  int `json:"mem"`
	Disk int `json:"disk"`
	FDs  int `json:"fds"`
}

/**
Application instance information parsed from VCAP_APPLICATION
*/

type ApplicationInfo struct {
	Name          string   `json:"application_name"`
	ID            string   `json:"application_id"`
	Version       string   `json:"application_version"`
	InstanceID    string   `json:"instance_id"`
	InstanceIndex int      `json:"instance_index"`
	URIs          []string `json:"application_uris"`
	SpaceName     string   `json:"space_name"`
	SpaceID       string   `json:"space_id"`
	Host          string   `json:"host"`
	Port          int      `json:"port"`
	Limits        Limits   `json:"limits"`
}

func parseApplication(content string) (*ApplicationInfo, error) {
	var holder struct {
		ApplicationInfo
		LegacyName string   `json:"name"`
		LegacyURIs []string `json:"uris"`
	}
	if err := json.Unmarshal([]byte(content), &holder); err != nil {
		return nil, errors.Wrapf(err, "malformed %s", ApplicationEnv)
	}
	app := holder.ApplicationInfo
	if app.Name == "" {
		app.Name = holder.LegacyName
	}
	if len(app.URIs) == 0 {
		app.URIs = holder.LegacyURIs
	}
	return &app, nil
}
