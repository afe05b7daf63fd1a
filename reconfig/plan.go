/*
 * Copyright (c) 2023 Zander Schwid & Co. LLC.
 * SPDX-License-Identifier: BUSL-1.1
 */

package reconfig

import (
	"fmt"
	"github.com/codeallergy/cloudglue"
	"github.com/codeallergy/cloudglue/cloud"
)

type Outcome int

const (
	Replace Outcome = iota
	SkipNoService
	SkipAmbiguousService
	SkipAmbiguousSlot
)

func (t Outcome) String() string {
	switch t {
	case Replace:
		return "Replace"
	case SkipNoService:
		return "SkipNoService"
	case SkipAmbiguousService:
		return "SkipAmbiguousService"
	case SkipAmbiguousSlot:
		return "SkipAmbiguousSlot"
	default:
		return "Unknown"
	}
}

/**
Slot is a declared bean that requires connection to the service of the kind.
Capability groups slots of the same client type.
*/

type Slot struct {
	Name       string
	Capability string
	Kind       cloud.ServiceKind
	Bean       cloudglue.Bean
}

type Decision struct {
	Slot    Slot
	Outcome Outcome

	/**
	Matched service for Replace outcome
	*/
	Service cloud.ServiceInfo

	/**
	Number of slots with the same capability and number of compatible services
	*/
	Slots    int
	Services int
}

func (t Decision) String() string {
	if t.Service != nil {
		return fmt.Sprintf("%s %s(%s) <- %s", t.Outcome, t.Slot.Name, t.Slot.Capability, t.Service.ID())
	}
	return fmt.Sprintf("%s %s(%s) slots=%d services=%d", t.Outcome, t.Slot.Name, t.Slot.Capability, t.Slots, t.Services)
}

/**
Plan makes decision for each slot in the given order.
Slot is replaced only if it is the single slot of its capability and exactly one service of its kind is bound.
*/
func Plan(slots []Slot, services []cloud.ServiceInfo) []Decision {

	capabilities := make(map[string]int)
	for _, s := range slots {
		capabilities[s.Capability]++
	}

	byKind := make(map[cloud.ServiceKind][]cloud.ServiceInfo)
	for _, info := range services {
		byKind[info.Kind()] = append(byKind[info.Kind()], info)
	}

	decisions := make([]Decision, 0, len(slots))
	for _, s := range slots {
		compatible := byKind[s.Kind]
		d := Decision{
			Slot:     s,
			Slots:    capabilities[s.Capability],
			Services: len(compatible),
		}
		switch {
		case d.Slots > 1:
			d.Outcome = SkipAmbiguousSlot
		case d.Services == 0:
			d.Outcome = SkipNoService
		case d.Services > 1:
			d.Outcome = SkipAmbiguousService
		default:
			d.Outcome = Replace
			d.Service = compatible[0]
		}
		decisions = append(decisions, d)
	}
	return decisions
}
