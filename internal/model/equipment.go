package model

// HeatType identifies the heating equipment controlled by a thermostat.
type HeatType string

const (
	HeatPumpElectricBackup   HeatType = "heat_pump_electric_backup"
	HeatPumpNoElectricBackup HeatType = "heat_pump_no_electric_backup"
	FurnaceOrBoiler          HeatType = "furnace_or_boiler"
	OtherHeat                HeatType = "other_heat"
	NoHeat                   HeatType = "none"
)

// CoolType identifies the cooling equipment controlled by a thermostat.
type CoolType string

const (
	CentralAC       CoolType = "central_ac"
	HeatPumpCooling CoolType = "heat_pump_cooling"
	OtherCool       CoolType = "other_cool"
	NoCool          CoolType = "none"
)

// Stage identifies the staging of a heating or cooling system.
type Stage string

const (
	StageNone        Stage = ""
	StageSingle      Stage = "single_stage"
	StageTwo         Stage = "two_stage"
	StageVariable    Stage = "variable"
	StageSingleSpeed Stage = "single_speed"
	StageTwoSpeed    Stage = "two_speed"
)

var validHeatTypes = map[HeatType]bool{
	HeatPumpElectricBackup:   true,
	HeatPumpNoElectricBackup: true,
	FurnaceOrBoiler:          true,
	OtherHeat:                true,
	NoHeat:                   true,
}

var validCoolTypes = map[CoolType]bool{
	CentralAC:       true,
	HeatPumpCooling: true,
	OtherCool:       true,
	NoCool:          true,
}

// Valid reports whether h is a known heat type.
func (h HeatType) Valid() bool { return validHeatTypes[h] }

// Valid reports whether c is a known cool type.
func (c CoolType) Valid() bool { return validCoolTypes[c] }

// HasHeating reports whether the heat type controls any heating equipment.
func (h HeatType) HasHeating() bool {
	return h != NoHeat && h != ""
}

// HasCooling reports whether the cool type controls any cooling equipment.
func (c CoolType) HasCooling() bool {
	return c != NoCool && c != ""
}

// HasAuxiliary reports whether the heat type has auxiliary resistance strips.
func (h HeatType) HasAuxiliary() bool {
	return h == HeatPumpElectricBackup
}

// HasEmergency reports whether the heat type has an emergency heat mode.
func (h HeatType) HasEmergency() bool {
	return h == HeatPumpElectricBackup
}

// HasResistanceHeat reports whether the heat type can run electric
// resistance heat alongside or instead of the compressor.
func (h HeatType) HasResistanceHeat() bool {
	return h == HeatPumpElectricBackup
}
