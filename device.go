package currentflow

import (
	"strings"

	"github.com/pkg/errors"
)

// DeviceKind classifies a building attached to a wire cell.
type DeviceKind int

const (
	NoDevice DeviceKind = iota
	Consumer
	Generator
	Battery
)

func (k DeviceKind) String() string {
	switch k {
	case Consumer:
		return "consumer"
	case Generator:
		return "generator"
	case Battery:
		return "battery"
	}
	return "none"
}

func ParseDeviceKind(s string) (DeviceKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NoDevice, nil
	case "consumer":
		return Consumer, nil
	case "generator":
		return Generator, nil
	case "battery":
		return Battery, nil
	}
	return NoDevice, errors.Errorf("unknown device kind %q", s)
}

func (k DeviceKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *DeviceKind) UnmarshalText(text []byte) error {
	kind, err := ParseDeviceKind(string(text))
	if err != nil {
		return err
	}
	*k = kind
	return nil
}

// Device is a building plugged into the network at Cell.
type Device struct {
	Kind          DeviceKind
	Cell          int
	WattsUsed     float64 // consumers and batteries
	WattageRating float64 // generators
	ChargeWattage float64 // batteries
}

// Profile converts the device into the draw/generation pair used by the
// linear model. A battery's charge wattage stands in for generation.
func (d Device) Profile() PowerProfile {
	switch d.Kind {
	case Generator:
		return PowerProfile{Generation: d.WattageRating}
	case Consumer:
		return PowerProfile{Draw: d.WattsUsed}
	case Battery:
		return PowerProfile{Draw: d.WattsUsed, Generation: d.ChargeWattage}
	}
	return PowerProfile{}
}

// DeviceLookup answers which device, if any, sits on a cell.
type DeviceLookup interface {
	DeviceAt(cell int) (Device, bool)
}

// DeviceSnapshot is an immutable device index for one network, captured
// before a solve. When several devices share a cell the generator wins, then
// the consumer, then the battery; within a kind the first one listed wins.
type DeviceSnapshot struct {
	byCell map[int]Device
	counts map[DeviceKind]int
}

var devicePrecedence = map[DeviceKind]int{
	Generator: 3,
	Consumer:  2,
	Battery:   1,
}

func NewDeviceSnapshot(devices ...Device) DeviceSnapshot {
	s := DeviceSnapshot{
		byCell: make(map[int]Device, len(devices)),
		counts: make(map[DeviceKind]int),
	}
	for _, d := range devices {
		if d.Kind == NoDevice {
			continue
		}
		s.counts[d.Kind]++
		if held, ok := s.byCell[d.Cell]; ok && devicePrecedence[held.Kind] >= devicePrecedence[d.Kind] {
			continue
		}
		s.byCell[d.Cell] = d
	}
	return s
}

func (s DeviceSnapshot) DeviceAt(cell int) (Device, bool) {
	d, ok := s.byCell[cell]
	return d, ok
}

// Count returns how many devices of kind were captured, including ones
// shadowed by a higher-precedence device on the same cell.
func (s DeviceSnapshot) Count(kind DeviceKind) int {
	return s.counts[kind]
}
