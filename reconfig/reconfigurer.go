/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const EnabledProperty = "cloud.reconfiguration.enabled"

/**
Reconfigurer is a bean factory post processor that swaps service client beans by clients of the bound cloud services.

	ctx, err := cloudglue.New(
		reconfig.New(c),
		db,
		&app.Repository{},
	)
*/

type Reconfigurer struct {

	/**
	Switch to turn off reconfiguration, cloud properties are registered anyway
	*/
	Enabled bool `value:"cloud.reconfiguration.enabled,default=true"`

	cloud       *cloud.Cloud
	configurers []Configurer
	log         *zap.Logger
	decisions   []Decision
}

type Option func(*Reconfigurer)

func WithLogger(log *zap.Logger) Option {
	return func(t *Reconfigurer) {
		t.log = log
	}
}

/**
Replaces default configurers
*/
func WithConfigurers(list ...Configurer) Option {
	return func(t *Reconfigurer) {
		t.configurers = list
	}
}

func New(c *cloud.Cloud, options ...Option) *Reconfigurer {
	t := &Reconfigurer{
		Enabled:     true,
		cloud:       c,
		configurers: DefaultConfigurers(),
		log:         zap.NewNop(),
	}
	for _, opt := range options {
		opt(t)
	}
	for _, c := range t.configurers {
		if aware, ok := c.(loggerAware); ok {
			aware.setLogger(t.log)
		}
	}
	return t
}

/**
Creates reconfigurer for the cloud of the current process
*/
func Auto(options ...Option) (*Reconfigurer, error) {
	c, err := cloud.Current()
	if err != nil {
		return nil, err
	}
	return New(c, options...), nil
}

func (t *Reconfigurer) PostProcessBeanFactory(registry cloudglue.BeanRegistry) error {

	if t.cloud == nil || !t.cloud.InCloud() {
		t.log.Info("Not running in cloud, skip reconfiguration")
		return nil
	}

	registry.Properties().Register(cloud.NewPropertyResolver(t.cloud))

	if !t.Enabled {
		t.log.Info("Reconfiguration is disabled", zap.String("property", EnabledProperty))
		return nil
	}

	var slots []Slot
	configurers := make(map[string]Configurer)
	for _, c := range t.configurers {
		configurers[c.Capability()] = c
		for _, b := range c.Slots(registry) {
			slots = append(slots, Slot{
				Name:       b.Name(),
				Capability: c.Capability(),
				Kind:       c.Kind(),
				Bean:       b,
			})
		}
	}

	t.decisions = Plan(slots, t.cloud.ServiceInfos())

	ambiguous := make(map[string][]string)
	for _, d := range t.decisions {
		if d.Outcome == SkipAmbiguousSlot {
			ambiguous[d.Slot.Capability] = append(ambiguous[d.Slot.Capability], d.Slot.Name)
		}
	}

	for _, d := range t.decisions {
		fields := []zap.Field{
			zap.String("bean", d.Slot.Name),
			zap.String("capability", d.Slot.Capability),
			zap.String("kind", string(d.Slot.Kind)),
		}
		switch d.Outcome {
		case Replace:
			obj, err := configurers[d.Slot.Capability].Create(d.Service, d.Slot.Bean)
			if err != nil {
				return errors.Wrapf(err, "create '%s' for bean '%s'", d.Slot.Capability, d.Slot.Name)
			}
			if _, err := registry.Replace(d.Slot.Bean, obj); err != nil {
				return errors.Wrapf(err, "replace bean '%s'", d.Slot.Name)
			}
			t.log.Info("Replaced bean by bound service", append(fields, zap.String("service", d.Service.ID()), zap.String("label", d.Service.Label()))...)
		case SkipNoService:
			t.log.Debug("No bound service for bean", fields...)
		case SkipAmbiguousService:
			t.log.Info("More than one bound service for bean, skip reconfiguration", append(fields, zap.Int("services", d.Services))...)
		case SkipAmbiguousSlot:
			if names, ok := ambiguous[d.Slot.Capability]; ok {
				t.log.Info("More than one bean of the type, skip reconfiguration",
					zap.String("capability", d.Slot.Capability),
					zap.String("kind", string(d.Slot.Kind)),
					zap.Strings("beans", names))
				delete(ambiguous, d.Slot.Capability)
			}
		}
	}

	return nil
}

/**
Returns decisions made on the last run
*/
func (t *Reconfigurer) Decisions() []Decision {
	return t.decisions
}
