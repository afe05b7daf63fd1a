/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package cloud

import (
	"fmt"
	"github.com/pkg/errors"
)

/**
Cloud holds the application and bound services visible to the running instance.
*/

type Cloud struct {
	app      *ApplicationInfo
	bindings []*ServiceBinding
	infos    []ServiceInfo
}

/**
Parses VCAP_APPLICATION and VCAP_SERVICES from the environment.
Absent variables mean the application is not running in cloud, malformed ones are errors.
*/
func New(env Environment) (*Cloud, error) {
	t := new(Cloud)

	if content, ok := env.Getenv(ApplicationEnv); ok && content != "" {
		app, err := parseApplication(content)
		if err != nil {
			return nil, err
		}
		t.app = app
	}

	if content, ok := env.Getenv(ServicesEnv); ok && content != "" {
		bindings, err := parseServices(content)
		if err != nil {
			return nil, err
		}
		t.bindings = bindings
	}

	for _, b := range t.bindings {
		info, ok, err := createServiceInfo(b)
		if err != nil {
			return nil, errors.Wrapf(err, "service binding '%s'", b.Name)
		}
		if ok {
			t.infos = append(t.infos, info)
		}
	}

	return t, nil
}

/**
Returns cloud of the current process
*/
func Current() (*Cloud, error) {
	return New(OSEnvironment{})
}

func (t *Cloud) InCloud() bool {
	return t.app != nil
}

func (t *Cloud) Application() (*ApplicationInfo, bool) {
	return t.app, t.app != nil
}

func (t *Cloud) Bindings() []*ServiceBinding {
	return t.bindings
}

func (t *Cloud) ServiceInfos() []ServiceInfo {
	return t.infos
}

func (t *Cloud) ServiceInfosOfKind(kind ServiceKind) []ServiceInfo {
	var list []ServiceInfo
	for _, info := range t.infos {
		if info.Kind() == kind {
			list = append(list, info)
		}
	}
	return list
}

func (t *Cloud) ServiceInfo(name string) (ServiceInfo, bool) {
	for _, info := range t.infos {
		if info.ID() == name {
			return info, true
		}
	}
	return nil, false
}

func (t *Cloud) String() string {
	return fmt.Sprintf("Cloud{inCloud=%v,bindings=%d,services=%d}", t.InCloud(), len(t.bindings), len(t.infos))
}
