package e22

import (
	"errors"
	"fmt"
)

// ConfigBuilder object that is used to build eByte E22 config
// it is possible to reconfigure only one  parameter
type ConfigBuilder struct {
	module *Module
	staged Config
	crypt  *uint16
	err    error
}

// NewConfigBuilder constructs ConfigBuilder, starting from the config
// currently stored on the module
func NewConfigBuilder(module *Module) *ConfigBuilder {
	cfg, err := module.Configuration()
	return &ConfigBuilder{
		module: module,
		staged: cfg,
		err:    err,
	}
}

// Address set module address
func (obj *ConfigBuilder) Address(addressHigh uint8, addressLow uint8) *ConfigBuilder {
	obj.staged.Address = uint16(addressHigh)<<8 | uint16(addressLow)
	return obj
}

// REG0 params
// SerialBaudRate set module baud rate
func (obj *ConfigBuilder) SerialBaudRate(br BaudRate) *ConfigBuilder {
	obj.staged.Serial.BaudRate = br
	return obj
}

// SerialParityBit set module serial parity bit
func (obj *ConfigBuilder) SerialParityBit(parityBit Parity) *ConfigBuilder {
	obj.staged.Serial.Parity = parityBit
	return obj
}

// AirDataRate module data rate
func (obj *ConfigBuilder) AirDataRate(adRate AirDataRate) *ConfigBuilder {
	obj.staged.Serial.AirDataRate = adRate
	return obj
}

// REG1 params
// SubPacketLength set module data packet length
func (obj *ConfigBuilder) SubPacketLength(subPacketLength SubPacket) *ConfigBuilder {
	obj.staged.Radio.SubPacket = subPacketLength
	return obj
}

// RSSIAmbientNoiseState set rssi ambient noise state
func (obj *ConfigBuilder) RSSIAmbientNoiseState(state RSSIAmbientNoise) *ConfigBuilder {
	obj.staged.Radio.AmbientNoiseRSSI = state
	return obj
}

// TransmittingPower set transmitting power
func (obj *ConfigBuilder) TransmittingPower(power TransmittingPower) *ConfigBuilder {
	obj.staged.Radio.Power = power
	return obj
}

// REG2 params

// Channel sets chip channel, range 0-80, Actual frequency = 850.125 + CH *1M
func (obj *ConfigBuilder) Channel(channel Channel) *ConfigBuilder {
	// chip supports 80 channels
	if channel > MaxChannel {
		channel = MaxChannel
	}
	obj.staged.Channel = channel
	return obj
}

// REG 3
// RSSIState enable rssi value in received message
func (obj *ConfigBuilder) RSSIState(state EnableRSSI) *ConfigBuilder {
	obj.staged.Transmission.RSSI = state
	return obj
}

// TransmissionMethod select transparent or fixed method
func (obj *ConfigBuilder) TransmissionMethod(method TransmissionMethod) *ConfigBuilder {
	obj.staged.Transmission.Method = method
	return obj
}

// LBTState set lbt state
func (obj *ConfigBuilder) LBTState(state LBT) *ConfigBuilder {
	obj.staged.Transmission.LBT = state
	return obj
}

// set wake on receive cycle
func (obj *ConfigBuilder) WORCycle(wor WORCycle) *ConfigBuilder {
	obj.staged.Transmission.WOR = wor
	return obj
}

// Crypt set encryption key that is not readable, make sure that other side uses the same key
func (obj *ConfigBuilder) Crypt(cryptHigh uint8, cryptLow uint8) *ConfigBuilder {
	key := uint16(cryptHigh)<<8 | uint16(cryptLow)
	obj.crypt = &key
	return obj
}

// Staged returns the config that will be written.
func (obj *ConfigBuilder) Staged() Config {
	return obj.staged
}

// WritePermanentConfig writes new config to the chip
func (obj *ConfigBuilder) WritePermanentConfig() error {
	return obj.write(false)
}

// WriteTemporaryConfig writes new config to the chip but, on chip reboot config is lost
func (obj *ConfigBuilder) WriteTemporaryConfig() error {
	return obj.write(true)
}

func (obj *ConfigBuilder) write(temporary bool) error {
	if obj.err != nil {
		return fmt.Errorf("failed to read current config: %w", obj.err)
	}
	err := obj.module.WriteConfig(obj.staged, temporary)
	if err != nil && !(obj.crypt != nil && errors.Is(err, ErrConfigUnchanged)) {
		return err
	}
	if obj.crypt != nil {
		return obj.module.SetCryptKey(*obj.crypt, temporary)
	}
	return nil
}
