/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloud

import "os"

const (
	ApplicationEnv = "VCAP_APPLICATION"
	ServicesEnv    = "VCAP_SERVICES"
)

/**
Source of environment variables that describe the application and bound services
*/

type Environment interface {

	Getenv(key string) (string, bool)
}

/**
Process environment
*/

type OSEnvironment struct {
}

func (OSEnvironment) Getenv(key string) (string, bool) {
	return os.LookupEnv(key)
}

/**
Static environment, mostly for tests and local runs
*/

type MapEnvironment map[string]string

func (t MapEnvironment) Getenv(key string) (string, bool) {
	value, ok := t[key]
	return value, ok
}
