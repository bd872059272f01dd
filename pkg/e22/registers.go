package e22

import "github.com/mbalug7/go-regmap/pkg/hal"

const (
	ADD_H hal.RegAddress = iota
	ADD_L
	REG0
	REG1
	REG2
	REG3
	CRYPT_H
	CRYPT_L
)

type byteReg struct{}

func (byteReg) Width() hal.Width { return 1 }

// ADD_H:ADD_L layout

// AddressReg is the module address, ADD_H followed by ADD_L.
type AddressReg struct{ hal.ReadWrite }

func (AddressReg) Address() hal.RegAddress    { return ADD_H }
func (AddressReg) Width() hal.Width           { return 2 }
func (AddressReg) Decode(raw hal.Raw) uint16  { return uint16(raw) }
func (AddressReg) Encode(addr uint16) hal.Raw { return hal.Raw(addr) }

// REG0 layout

type BaudRate uint8

const (
	BAUD_1200   BaudRate = 0x00
	BAUD_2400   BaudRate = 0x20
	BAUD_4800   BaudRate = 0x40
	BAUD_9600   BaudRate = 0x60
	BAUD_19200  BaudRate = 0x80
	BAUD_38400  BaudRate = 0xA0
	BAUD_57600  BaudRate = 0xC0
	BAUD_115200 BaudRate = 0xE0
)

type Parity uint8

const (
	PARITY_8N1 Parity = 0x00
	PARITY_8O1 Parity = 0x08
	PARITY_8E1 Parity = 0x10
)

type AirDataRate uint8

const (
	ADR_2400_0 AirDataRate = iota
	ADR_2400_1
	ADR_2400
	ADR_4800
	ADR_9600
	ADR_19200
	ADR_38400
	ADR_62500
)

type SerialConfig struct {
	BaudRate    BaudRate    `yaml:"baud_rate"`
	Parity      Parity      `yaml:"parity"`
	AirDataRate AirDataRate `yaml:"air_data_rate"`
}

// SerialReg holds the UART and air data rate settings.
type SerialReg struct {
	hal.ReadWrite
	byteReg
}

func (SerialReg) Address() hal.RegAddress { return REG0 }

// Decode maps parity pattern 0x18 to 8N1, as the module does.
func (SerialReg) Decode(raw hal.Raw) SerialConfig {
	parity := Parity(raw & 0x18) // bit 3 and 4
	if parity == 0x18 {
		parity = PARITY_8N1
	}
	return SerialConfig{
		BaudRate:    BaudRate(raw & 0xE0), // upper 3 bits
		Parity:      parity,
		AirDataRate: AirDataRate(raw & 0x07), // lower 3 bits
	}
}

func (SerialReg) Encode(c SerialConfig) hal.Raw {
	return hal.Raw(uint8(c.BaudRate)&0xE0 | uint8(c.Parity)&0x18 | uint8(c.AirDataRate)&0x07)
}

// REG1 layout

type SubPacket uint8

const (
	BYTES_200 SubPacket = 0x00
	BYTES_128 SubPacket = 0x40
	BYTES_64  SubPacket = 0x80
	BYTES_32  SubPacket = 0xC0
)

type RSSIAmbientNoise uint8

const (
	RSSI_AMBIENT_NOISE_DISABLE RSSIAmbientNoise = 0x00
	RSSI_AMBIENT_NOISE_ENABLE  RSSIAmbientNoise = 0x20
)

type TransmittingPower uint8

const (
	TP_22_DBM TransmittingPower = iota
	TP_17_DBM
	TP_13_DBM
	TP_10_DBM
)

type RadioConfig struct {
	SubPacket        SubPacket         `yaml:"sub_packet"`
	AmbientNoiseRSSI RSSIAmbientNoise  `yaml:"ambient_noise_rssi"`
	Power            TransmittingPower `yaml:"power"`
}

// RadioReg holds packet length, ambient noise RSSI and output power.
// Bits 4:2 are reserved and read back as zero.
type RadioReg struct {
	hal.ReadWrite
	byteReg
}

func (RadioReg) Address() hal.RegAddress { return REG1 }

func (RadioReg) Decode(raw hal.Raw) RadioConfig {
	return RadioConfig{
		SubPacket:        SubPacket(raw & 0xC0),
		AmbientNoiseRSSI: RSSIAmbientNoise(raw & 0x20),
		Power:            TransmittingPower(raw & 0x03),
	}
}

func (RadioReg) Encode(c RadioConfig) hal.Raw {
	return hal.Raw(uint8(c.SubPacket)&0xC0 | uint8(c.AmbientNoiseRSSI)&0x20 | uint8(c.Power)&0x03)
}

// REG2 layout

// MaxChannel is the highest channel the module supports.
const MaxChannel Channel = 80

// Channel is the radio channel. Actual frequency = 850.125 + CH * 1M
type Channel uint8

// Valid reports whether the module supports c.
func (c Channel) Valid() bool {
	return c <= MaxChannel
}

// Frequency returns the carrier frequency in MHz.
func (c Channel) Frequency() float64 {
	return 850.125 + float64(c)
}

// ChannelReg holds the radio channel. Out of range values are decoded as
// they are; use Channel.Valid to check them.
type ChannelReg struct {
	hal.ReadWrite
	byteReg
}

func (ChannelReg) Address() hal.RegAddress        { return REG2 }
func (ChannelReg) Decode(raw hal.Raw) Channel     { return Channel(raw) }
func (ChannelReg) Encode(channel Channel) hal.Raw { return hal.Raw(channel) }

// REG3 layout

type EnableRSSI uint8

const (
	RSSI_DISABLE EnableRSSI = 0x00
	RSSI_ENABLE  EnableRSSI = 0x80
)

type TransmissionMethod uint8

const (
	TRANSMISSION_TRANSPARENT TransmissionMethod = 0x00
	TRANSMISSION_FIXED       TransmissionMethod = 0x40
)

type LBT uint8

const (
	LBT_DISABLE LBT = 0x00
	LBT_ENABLE  LBT = 0x08
)

type WORCycle uint8

const (
	WOR_500_MS WORCycle = iota
	WOR_1000_MS
	WOR_1500_MS
	WOR_2000_MS
	WOR_2500_MS
	WOR_3000_MS
	WOR_3500_MS
	WOR_4000_MS
)

type TransmissionConfig struct {
	RSSI   EnableRSSI         `yaml:"rssi"`
	Method TransmissionMethod `yaml:"method"`
	LBT    LBT                `yaml:"lbt"`
	WOR    WORCycle           `yaml:"wor_cycle"`
}

// TransmissionReg holds RSSI reporting, addressing mode, LBT and the
// wake on radio cycle. Bits 5 and 4 are dropped.
type TransmissionReg struct {
	hal.ReadWrite
	byteReg
}

func (TransmissionReg) Address() hal.RegAddress { return REG3 }

func (TransmissionReg) Decode(raw hal.Raw) TransmissionConfig {
	return TransmissionConfig{
		RSSI:   EnableRSSI(raw & 0x80),
		Method: TransmissionMethod(raw & 0x40),
		LBT:    LBT(raw & 0x08),
		WOR:    WORCycle(raw & 0x07),
	}
}

func (TransmissionReg) Encode(c TransmissionConfig) hal.Raw {
	return hal.Raw(uint8(c.RSSI)&0x80 | uint8(c.Method)&0x40 | uint8(c.LBT)&0x08 | uint8(c.WOR)&0x07)
}

// CRYPT_H:CRYPT_L layout

// CryptReg is the encryption key. The module never returns it, so the
// register is write-only.
type CryptReg struct{ hal.Writable }

func (CryptReg) Address() hal.RegAddress   { return CRYPT_H }
func (CryptReg) Width() hal.Width          { return 2 }
func (CryptReg) Decode(raw hal.Raw) uint16 { return uint16(raw) }
func (CryptReg) Encode(key uint16) hal.Raw { return hal.Raw(key) }
