// Package tmp117 drives the TI TMP117 digital temperature sensor.
// Register layout follows the TMP117 datasheet (SNOS764).
package tmp117

import (
	"math"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

// Address is the default bus address (ADD0 tied to GND).
const Address hal.BusAddress = 0x48

// Resolution is the temperature LSB in degrees Celsius.
const Resolution = 0.0078125

// DeviceIDValue is the device id field of a genuine TMP117.
const DeviceIDValue = 0x117

const (
	regTemperature hal.RegAddress = 0x00
	regConfig      hal.RegAddress = 0x01
	regHighLimit   hal.RegAddress = 0x02
	regLowLimit    hal.RegAddress = 0x03
	regEEPROMUL    hal.RegAddress = 0x04
	regEEPROM1     hal.RegAddress = 0x05
	regEEPROM2     hal.RegAddress = 0x06
	regTempOffset  hal.RegAddress = 0x07
	regEEPROM3     hal.RegAddress = 0x08
	regDeviceID    hal.RegAddress = 0x0f
)

// Celsius is a temperature in degrees Celsius.
type Celsius float64

func decodeCelsius(raw hal.Raw) Celsius {
	return Celsius(float64(int16(uint16(raw))) * Resolution)
}

// encodeCelsius rounds to the nearest LSB and saturates at the int16 range.
func encodeCelsius(c Celsius) hal.Raw {
	lsb := math.Round(float64(c) / Resolution)
	switch {
	case math.IsNaN(lsb):
		lsb = 0
	case lsb > math.MaxInt16:
		lsb = math.MaxInt16
	case lsb < math.MinInt16:
		lsb = math.MinInt16
	}
	return hal.Raw(uint16(int16(lsb)))
}

type word struct{}

func (word) Width() hal.Width { return 2 }

type celsiusCodec struct{ word }

func (celsiusCodec) Decode(raw hal.Raw) Celsius { return decodeCelsius(raw) }
func (celsiusCodec) Encode(c Celsius) hal.Raw   { return encodeCelsius(c) }

type rawCodec struct{ word }

func (rawCodec) Decode(raw hal.Raw) uint16 { return uint16(raw) }
func (rawCodec) Encode(v uint16) hal.Raw   { return hal.Raw(v) }

// Temperature holds the last conversion result.
type Temperature struct {
	hal.Readable
	celsiusCodec
}

func (Temperature) Address() hal.RegAddress { return regTemperature }

// HighLimit is the high alert threshold.
type HighLimit struct {
	hal.ReadWrite
	celsiusCodec
}

func (HighLimit) Address() hal.RegAddress { return regHighLimit }

// LowLimit is the low alert threshold.
type LowLimit struct {
	hal.ReadWrite
	celsiusCodec
}

func (LowLimit) Address() hal.RegAddress { return regLowLimit }

// TemperatureOffset is added to every conversion result.
type TemperatureOffset struct {
	hal.ReadWrite
	celsiusCodec
}

func (TemperatureOffset) Address() hal.RegAddress { return regTempOffset }

// EEPROM1, EEPROM2 and EEPROM3 are general purpose scratch words.
type EEPROM1 struct {
	hal.ReadWrite
	rawCodec
}

func (EEPROM1) Address() hal.RegAddress { return regEEPROM1 }

type EEPROM2 struct {
	hal.ReadWrite
	rawCodec
}

func (EEPROM2) Address() hal.RegAddress { return regEEPROM2 }

type EEPROM3 struct {
	hal.ReadWrite
	rawCodec
}

func (EEPROM3) Address() hal.RegAddress { return regEEPROM3 }

// Mode is the conversion mode.
type Mode uint8

const (
	ModeContinuous Mode = 0b00
	ModeShutdown   Mode = 0b01
	ModeOneShot    Mode = 0b11
)

func (m Mode) String() string {
	switch m {
	case ModeContinuous:
		return "continuous"
	case ModeShutdown:
		return "shutdown"
	case ModeOneShot:
		return "one-shot"
	}
	return "reserved"
}

// Averaging is the number of conversions averaged per result.
type Averaging uint8

const (
	AverageNone Averaging = iota
	Average8
	Average32
	Average64
)

var (
	fieldHighAlert  = hal.Bit(15)
	fieldLowAlert   = hal.Bit(14)
	fieldDataReady  = hal.Bit(13)
	fieldEEPROMBusy = hal.Bit(12)
	fieldMode       = hal.Field{Shift: 10, Bits: 2}
	fieldCycle      = hal.Field{Shift: 7, Bits: 3}
	fieldAveraging  = hal.Field{Shift: 5, Bits: 2}
	fieldTherm      = hal.Bit(4)
	fieldPolarity   = hal.Bit(3)
	fieldDRAlert    = hal.Bit(2)
	fieldSoftReset  = hal.Bit(1)
)

// Config is the decoded configuration register. The alert, data ready and
// EEPROM busy flags are status bits: the device ignores them on write.
type Config struct {
	HighAlert        bool      `yaml:"high_alert"`
	LowAlert         bool      `yaml:"low_alert"`
	DataReady        bool      `yaml:"data_ready"`
	EEPROMBusy       bool      `yaml:"eeprom_busy"`
	Mode             Mode      `yaml:"mode"`
	Cycle            uint8     `yaml:"cycle"`
	Averaging        Averaging `yaml:"averaging"`
	ThermAlert       bool      `yaml:"therm_alert"`
	ActiveHigh       bool      `yaml:"active_high"`
	DataReadyOnAlert bool      `yaml:"data_ready_on_alert"`
	SoftReset        bool      `yaml:"soft_reset"`
}

// Configuration is the configuration register.
type Configuration struct {
	hal.ReadWrite
	word
}

func (Configuration) Address() hal.RegAddress { return regConfig }

// Decode maps the reserved mode pattern 0b10 to ModeContinuous, which is
// how the device treats it.
func (Configuration) Decode(raw hal.Raw) Config {
	mode := Mode(fieldMode.Get(raw))
	if mode == 0b10 {
		mode = ModeContinuous
	}
	return Config{
		HighAlert:        fieldHighAlert.Flag(raw),
		LowAlert:         fieldLowAlert.Flag(raw),
		DataReady:        fieldDataReady.Flag(raw),
		EEPROMBusy:       fieldEEPROMBusy.Flag(raw),
		Mode:             mode,
		Cycle:            uint8(fieldCycle.Get(raw)),
		Averaging:        Averaging(fieldAveraging.Get(raw)),
		ThermAlert:       fieldTherm.Flag(raw),
		ActiveHigh:       fieldPolarity.Flag(raw),
		DataReadyOnAlert: fieldDRAlert.Flag(raw),
		SoftReset:        fieldSoftReset.Flag(raw),
	}
}

func (Configuration) Encode(c Config) hal.Raw {
	var raw hal.Raw
	raw = fieldHighAlert.SetFlag(raw, c.HighAlert)
	raw = fieldLowAlert.SetFlag(raw, c.LowAlert)
	raw = fieldDataReady.SetFlag(raw, c.DataReady)
	raw = fieldEEPROMBusy.SetFlag(raw, c.EEPROMBusy)
	raw = fieldMode.Set(raw, hal.Raw(c.Mode))
	raw = fieldCycle.Set(raw, hal.Raw(c.Cycle))
	raw = fieldAveraging.Set(raw, hal.Raw(c.Averaging))
	raw = fieldTherm.SetFlag(raw, c.ThermAlert)
	raw = fieldPolarity.SetFlag(raw, c.ActiveHigh)
	raw = fieldDRAlert.SetFlag(raw, c.DataReadyOnAlert)
	raw = fieldSoftReset.SetFlag(raw, c.SoftReset)
	return raw
}

// EEPROMControl is the decoded EEPROM unlock register.
type EEPROMControl struct {
	Unlocked bool `yaml:"unlocked"`
	Busy     bool `yaml:"busy"`
}

var (
	fieldUnlock = hal.Bit(15)
	fieldBusy   = hal.Bit(14)
)

// EEPROMUnlock gates programming of the EEPROM backed registers.
type EEPROMUnlock struct {
	hal.ReadWrite
	word
}

func (EEPROMUnlock) Address() hal.RegAddress { return regEEPROMUL }

func (EEPROMUnlock) Decode(raw hal.Raw) EEPROMControl {
	return EEPROMControl{Unlocked: fieldUnlock.Flag(raw), Busy: fieldBusy.Flag(raw)}
}

func (EEPROMUnlock) Encode(c EEPROMControl) hal.Raw {
	return fieldBusy.SetFlag(fieldUnlock.SetFlag(0, c.Unlocked), c.Busy)
}

// ID is the decoded device id register.
type ID struct {
	Revision uint8  `yaml:"revision"`
	Device   uint16 `yaml:"device"`
}

// DeviceID identifies the part and its revision.
type DeviceID struct {
	hal.Readable
	word
}

func (DeviceID) Address() hal.RegAddress { return regDeviceID }

func (DeviceID) Decode(raw hal.Raw) ID {
	return ID{Revision: uint8(raw >> 12 & 0xf), Device: uint16(raw & 0x0fff)}
}

func (DeviceID) Encode(id ID) hal.Raw {
	return hal.Raw(id.Revision&0xf)<<12 | hal.Raw(id.Device&0x0fff)
}
