package tmp117

import (
	"errors"
	"fmt"

	"github.com/mbalug7/go-regmap/pkg/hal"
)

var (
	ErrUnexpectedDevice = errors.New("unexpected device id")
	ErrInvalidLimits    = errors.New("low limit above high limit")
)

// Device is a TMP117 on a bus.
type Device struct {
	dev *hal.Device
}

// New wraps the sensor at addr. No bus traffic is generated.
func New(t hal.Transport, addr hal.BusAddress, opts ...hal.Option) *Device {
	return &Device{dev: hal.NewDevice(t, addr, opts...)}
}

// Temperature returns the last conversion result.
func (d *Device) Temperature() (Celsius, error) {
	return hal.Read(d.dev, Temperature{})
}

// CheckID verifies that the device answers with the TMP117 device id.
func (d *Device) CheckID() (ID, error) {
	id, err := hal.Read(d.dev, DeviceID{})
	if err != nil {
		return id, err
	}
	if id.Device != DeviceIDValue {
		return id, fmt.Errorf("%w: 0x%03x", ErrUnexpectedDevice, id.Device)
	}
	return id, nil
}

func (d *Device) Config() (Config, error) {
	return hal.Read(d.dev, Configuration{})
}

// Configure writes the conversion settings in c. Status flags in c are
// ignored by the device.
func (d *Device) Configure(c Config) error {
	return hal.Write(d.dev, Configuration{}, c)
}

// SoftReset triggers a device reset. The other configuration bits are
// written as zero; the reset restores them from EEPROM.
func (d *Device) SoftReset() error {
	return hal.Write(d.dev, Configuration{}, Config{SoftReset: true})
}

// AlertLimits returns the low and high alert thresholds.
func (d *Device) AlertLimits() (low, high Celsius, err error) {
	low, err = hal.Read(d.dev, LowLimit{})
	if err != nil {
		return 0, 0, err
	}
	high, err = hal.Read(d.dev, HighLimit{})
	if err != nil {
		return 0, 0, err
	}
	return low, high, nil
}

// SetAlertLimits writes both alert thresholds, low first.
func (d *Device) SetAlertLimits(low, high Celsius) error {
	if low > high {
		return fmt.Errorf("%w: %.4f > %.4f", ErrInvalidLimits, low, high)
	}
	if err := hal.Write(d.dev, LowLimit{}, low); err != nil {
		return err
	}
	return hal.Write(d.dev, HighLimit{}, high)
}

func (d *Device) Offset() (Celsius, error) {
	return hal.Read(d.dev, TemperatureOffset{})
}

func (d *Device) SetOffset(c Celsius) error {
	return hal.Write(d.dev, TemperatureOffset{}, c)
}

// Snapshot is the content of every readable register.
type Snapshot struct {
	Temperature Celsius       `yaml:"temperature"`
	Config      Config        `yaml:"config"`
	HighLimit   Celsius       `yaml:"high_limit"`
	LowLimit    Celsius       `yaml:"low_limit"`
	EEPROM      EEPROMControl `yaml:"eeprom"`
	EEPROM1     uint16        `yaml:"eeprom1"`
	EEPROM2     uint16        `yaml:"eeprom2"`
	EEPROM3     uint16        `yaml:"eeprom3"`
	Offset      Celsius       `yaml:"offset"`
	ID          ID            `yaml:"id"`
}

// Snapshot reads every readable register, one transaction each.
func (d *Device) Snapshot() (Snapshot, error) {
	var s Snapshot
	var err error
	if s.Temperature, err = hal.Read(d.dev, Temperature{}); err != nil {
		return s, err
	}
	if s.Config, err = hal.Read(d.dev, Configuration{}); err != nil {
		return s, err
	}
	if s.HighLimit, err = hal.Read(d.dev, HighLimit{}); err != nil {
		return s, err
	}
	if s.LowLimit, err = hal.Read(d.dev, LowLimit{}); err != nil {
		return s, err
	}
	if s.EEPROM, err = hal.Read(d.dev, EEPROMUnlock{}); err != nil {
		return s, err
	}
	if s.EEPROM1, err = hal.Read(d.dev, EEPROM1{}); err != nil {
		return s, err
	}
	if s.EEPROM2, err = hal.Read(d.dev, EEPROM2{}); err != nil {
		return s, err
	}
	if s.EEPROM3, err = hal.Read(d.dev, EEPROM3{}); err != nil {
		return s, err
	}
	if s.Offset, err = hal.Read(d.dev, TemperatureOffset{}); err != nil {
		return s, err
	}
	if s.ID, err = hal.Read(d.dev, DeviceID{}); err != nil {
		return s, err
	}
	return s, nil
}

// Close releases and closes the transport.
func (d *Device) Close() error {
	return d.dev.Close()
}
