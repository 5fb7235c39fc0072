package model

import (
	"fmt"
	"math"
)

// MaxHourlyRuntime is the largest credible runtime for one hour of data,
// in minutes. Samples above it indicate corrupt telemetry.
const MaxHourlyRuntime = 60.0

// interpolationLimit is the maximum run of consecutive missing temperature
// hours filled linearly on construction.
const interpolationLimit = 1

// ContractError is an input-contract violation attributable to a single
// thermostat. It aborts that thermostat's processing only; data-quality
// conditions are recorded on records instead, never raised as errors.
type ContractError struct {
	ThermostatID string
	Reason       string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("thermostat %s: %s", e.ThermostatID, e.Reason)
}

// Thermostat is one connected thermostat's identity, equipment and hourly
// telemetry. Immutable once constructed; all core components read it only.
type Thermostat struct {
	ID        string
	HeatType  HeatType
	HeatStage Stage
	CoolType  CoolType
	CoolStage Stage

	Zipcode     string
	ClimateZone string

	// Hourly channels, all on an identical grid. Temperatures in °F,
	// runtimes in minutes per hour. Absent equipment channels are empty.
	IndoorTemp       Series
	OutdoorTemp      Series
	CoolRuntime      Series
	HeatRuntime      Series
	AuxiliaryRuntime Series
	EmergencyRuntime Series
}

// NewThermostat validates the importer contract and returns an immutable
// thermostat. Temperature gaps of up to one hour are interpolated linearly;
// longer gaps stay missing and count against data quality downstream.
func NewThermostat(
	id string,
	heatType HeatType, heatStage Stage,
	coolType CoolType, coolStage Stage,
	zipcode, climateZone string,
	indoorTemp, outdoorTemp, coolRuntime, heatRuntime, auxRuntime, emergencyRuntime Series,
) (*Thermostat, error) {
	t := &Thermostat{
		ID:               id,
		HeatType:         heatType,
		HeatStage:        heatStage,
		CoolType:         coolType,
		CoolStage:        coolStage,
		Zipcode:          zipcode,
		ClimateZone:      climateZone,
		IndoorTemp:       indoorTemp.Interpolated(interpolationLimit),
		OutdoorTemp:      outdoorTemp.Interpolated(interpolationLimit),
		CoolRuntime:      coolRuntime,
		HeatRuntime:      heatRuntime,
		AuxiliaryRuntime: auxRuntime,
		EmergencyRuntime: emergencyRuntime,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate checks the importer contract: known equipment types, channels
// present for the declared equipment, all non-empty channels on one grid,
// and credible runtime samples.
func (t *Thermostat) Validate() error {
	if t.ID == "" {
		return &ContractError{ThermostatID: "(unknown)", Reason: "empty thermostat id"}
	}
	if !t.HeatType.Valid() {
		return t.contractErr("unknown heat type %q", t.HeatType)
	}
	if !t.CoolType.Valid() {
		return t.contractErr("unknown cool type %q", t.CoolType)
	}
	if !t.HeatType.HasHeating() && !t.CoolType.HasCooling() {
		return t.contractErr("no heating or cooling equipment declared")
	}
	if t.HeatType.HasHeating() && t.HeatRuntime.IsEmpty() {
		return t.contractErr("heat type %s requires heat runtime data", t.HeatType)
	}
	if t.CoolType.HasCooling() && t.CoolRuntime.IsEmpty() {
		return t.contractErr("cool type %s requires cool runtime data", t.CoolType)
	}
	if t.HeatType.HasAuxiliary() && (t.AuxiliaryRuntime.IsEmpty() || t.EmergencyRuntime.IsEmpty()) {
		return t.contractErr(
			"heat type %s requires auxiliary and emergency runtime data; "+
				"use %s or provide columns of zeros", t.HeatType, HeatPumpNoElectricBackup)
	}

	channels := []struct {
		name string
		s    Series
	}{
		{"indoor temperature", t.IndoorTemp},
		{"outdoor temperature", t.OutdoorTemp},
		{"cool runtime", t.CoolRuntime},
		{"heat runtime", t.HeatRuntime},
		{"auxiliary runtime", t.AuxiliaryRuntime},
		{"emergency runtime", t.EmergencyRuntime},
	}
	var ref Series
	for _, c := range channels {
		if c.s.IsEmpty() {
			continue
		}
		if ref.IsEmpty() {
			ref = c.s
			continue
		}
		if !c.s.Start.Equal(ref.Start) || c.s.Len() != ref.Len() {
			return t.contractErr("%s series is not aligned with the other channels", c.name)
		}
	}
	if ref.IsEmpty() {
		return t.contractErr("no telemetry provided")
	}

	for _, c := range channels[2:] {
		for i, v := range c.s.Values {
			if math.IsNaN(v) {
				continue
			}
			if v < 0 || v > MaxHourlyRuntime {
				return t.contractErr("%s of %.1f min at %s exceeds one hour",
					c.name, v, c.s.TimeAt(i).Format("2006-01-02T15:04"))
			}
		}
	}
	return nil
}

// ObservationWindow returns the common hourly grid shared by all channels.
func (t *Thermostat) ObservationWindow() Series {
	for _, s := range []Series{t.IndoorTemp, t.OutdoorTemp, t.CoolRuntime, t.HeatRuntime} {
		if !s.IsEmpty() {
			return s
		}
	}
	return Series{}
}

func (t *Thermostat) contractErr(format string, args ...interface{}) error {
	return &ContractError{ThermostatID: t.ID, Reason: fmt.Sprintf(format, args...)}
}
