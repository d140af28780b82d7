package acpartner

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire codes for the lumi.acpartner.mcn02 state string. The device reports
// five positional tokens joined by "_", e.g. "P0_M0_T28_S1_D0": power,
// operation mode, target temperature, fan speed, swing.

type OperationMode string

const (
	ModeCool       OperationMode = "M0"
	ModeHeat       OperationMode = "M1"
	ModeAuto       OperationMode = "M2"
	ModeVentilate  OperationMode = "M3"
	ModeDehumidify OperationMode = "M4"
)

func (m OperationMode) String() string {
	switch m {
	case ModeCool:
		return "Cool"
	case ModeHeat:
		return "Heat"
	case ModeAuto:
		return "Auto"
	case ModeVentilate:
		return "Ventilate"
	case ModeDehumidify:
		return "Dehumidify"
	}
	return string(m)
}

func operationModeFromCode(code string) (OperationMode, bool) {
	switch mode := OperationMode(code); mode {
	case ModeCool, ModeHeat, ModeAuto, ModeVentilate, ModeDehumidify:
		return mode, true
	}
	return "", false
}

type FanSpeed string

const (
	FanAuto   FanSpeed = "S0"
	FanLow    FanSpeed = "S1"
	FanMedium FanSpeed = "S2"
	FanHigh   FanSpeed = "S3"
)

func (f FanSpeed) String() string {
	switch f {
	case FanAuto:
		return "Auto"
	case FanLow:
		return "Low"
	case FanMedium:
		return "Medium"
	case FanHigh:
		return "High"
	}
	return string(f)
}

func fanSpeedFromCode(code string) (FanSpeed, bool) {
	switch speed := FanSpeed(code); speed {
	case FanAuto, FanLow, FanMedium, FanHigh:
		return speed, true
	}
	return "", false
}

type SwingMode string

const (
	SwingOn  SwingMode = "D0"
	SwingOff SwingMode = "D999"
)

func (s SwingMode) String() string {
	switch s {
	case SwingOn:
		return "On"
	case SwingOff:
		return "Off"
	}
	return string(s)
}

func swingModeFromCode(code string) (SwingMode, bool) {
	switch mode := SwingMode(code); mode {
	case SwingOn, SwingOff:
		return mode, true
	}
	return "", false
}

type Power string

const (
	PowerOn  Power = "P0"
	PowerOff Power = "P1"
)

// Fixed token positions within the state string.
const (
	tokenPower = iota
	tokenMode
	tokenTemperature
	tokenFanSpeed
	tokenSwing

	stateTokenCount
)

// Status is an immutable snapshot of one get_prop response. Derived fields
// are computed on access, never stored; a missing or unrecognized token
// degrades that field to nil without invalidating the rest of the record.
type Status struct {
	RawState  []string
	LoadPower float64
}

// ParseStatusResult decodes the raw RPC result for
// get_prop(["ac_state","load_power"]): a two-element array of the state
// string and the load power in watts.
func ParseStatusResult(raw json.RawMessage) (Status, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return Status{}, fmt.Errorf("decode status response: %w", err)
	}
	if len(elements) < 2 {
		return Status{}, fmt.Errorf("decode status response: expected 2 elements, got %d", len(elements))
	}

	var state string
	if err := json.Unmarshal(elements[0], &state); err != nil {
		return Status{}, fmt.Errorf("decode ac_state: %w", err)
	}
	var loadPower float64
	if err := json.Unmarshal(elements[1], &loadPower); err != nil {
		return Status{}, fmt.Errorf("decode load_power: %w", err)
	}

	return Status{
		RawState:  strings.Split(state, "_"),
		LoadPower: loadPower,
	}, nil
}

func (s Status) token(index int) (string, bool) {
	if index < 0 || index >= len(s.RawState) {
		return "", false
	}
	return s.RawState[index], true
}

// Power reports "on" iff the power token is the on code; anything else,
// including a malformed token, reads as "off".
func (s Status) Power() string {
	if token, ok := s.token(tokenPower); ok && token == string(PowerOn) {
		return "on"
	}
	return "off"
}

func (s Status) IsOn() bool {
	return s.Power() == "on"
}

// TargetTemperature is the integer after the unit letter of the temperature
// token ("T28" -> 28). Absent, short, or unparseable tokens yield nil.
func (s Status) TargetTemperature() *int {
	token, ok := s.token(tokenTemperature)
	if !ok || len(token) < 2 {
		return nil
	}
	value, err := strconv.Atoi(token[1:])
	if err != nil {
		return nil
	}
	return &value
}

func (s Status) Mode() *OperationMode {
	token, ok := s.token(tokenMode)
	if !ok {
		return nil
	}
	mode, ok := operationModeFromCode(token)
	if !ok {
		return nil
	}
	return &mode
}

func (s Status) FanSpeed() *FanSpeed {
	token, ok := s.token(tokenFanSpeed)
	if !ok {
		return nil
	}
	speed, ok := fanSpeedFromCode(token)
	if !ok {
		return nil
	}
	return &speed
}

func (s Status) SwingMode() *SwingMode {
	token, ok := s.token(tokenSwing)
	if !ok {
		return nil
	}
	mode, ok := swingModeFromCode(token)
	if !ok {
		return nil
	}
	return &mode
}

// LoadPowerWatts truncates the reported load toward zero for display.
func (s Status) LoadPowerWatts() int {
	return int(s.LoadPower)
}

func (s Status) String() string {
	return fmt.Sprintf("<ACPartnerStatus power=%s, load_power=%d, target_temperature=%s, swing_mode=%s, fan_speed=%s, mode=%s>",
		s.Power(),
		s.LoadPowerWatts(),
		formatOptionalInt(s.TargetTemperature()),
		formatOptional(s.SwingMode()),
		formatOptional(s.FanSpeed()),
		formatOptional(s.Mode()),
	)
}

// Snapshot is the serialized form served over HTTP, published to MQTT, and
// archived to blob storage.
type Snapshot struct {
	Power             string    `json:"power"`
	IsOn              bool      `json:"is_on"`
	LoadPowerWatts    int       `json:"load_power_w"`
	TargetTemperature *int      `json:"target_temperature_c,omitempty"`
	Mode              *string   `json:"mode,omitempty"`
	FanSpeed          *string   `json:"fan_speed,omitempty"`
	SwingMode         *string   `json:"swing_mode,omitempty"`
	RawState          []string  `json:"raw_state"`
	CollectedAt       time.Time `json:"collected_at"`
}

func (s Status) Snapshot(collectedAt time.Time) Snapshot {
	snapshot := Snapshot{
		Power:             s.Power(),
		IsOn:              s.IsOn(),
		LoadPowerWatts:    s.LoadPowerWatts(),
		TargetTemperature: s.TargetTemperature(),
		RawState:          append([]string(nil), s.RawState...),
		CollectedAt:       collectedAt,
	}
	if mode := s.Mode(); mode != nil {
		name := mode.String()
		snapshot.Mode = &name
	}
	if speed := s.FanSpeed(); speed != nil {
		name := speed.String()
		snapshot.FanSpeed = &name
	}
	if swing := s.SwingMode(); swing != nil {
		name := swing.String()
		snapshot.SwingMode = &name
	}
	return snapshot
}

func formatOptional[T fmt.Stringer](value *T) string {
	if value == nil {
		return "None"
	}
	return (*value).String()
}

func formatOptionalInt(value *int) string {
	if value == nil {
		return "None"
	}
	return strconv.Itoa(*value)
}
