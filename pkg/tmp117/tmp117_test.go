package tmp117_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbalug7/go-regmap/pkg/hal"
	"github.com/mbalug7/go-regmap/pkg/tmp117"
	"github.com/mbalug7/go-regmap/pkg/transports"
)

func newSensor(t *testing.T) (*tmp117.Device, *transports.Mock) {
	t.Helper()
	mock := transports.NewMock()
	return tmp117.New(mock, tmp117.Address), mock
}

func TestTemperature(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want tmp117.Celsius
	}{
		{"0x0190", []byte{0x01, 0x90}, 3.125},
		{"five degrees", []byte{0x02, 0x80}, 5.0},
		{"zero", []byte{0x00, 0x00}, 0},
		{"one lsb", []byte{0x00, 0x01}, 0.0078125},
		{"negative", []byte{0xff, 0x80}, -1.0},
		{"minimum", []byte{0x80, 0x00}, -256.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sensor, mock := newSensor(t)
			mock.Set(0x00, tt.data...)

			got, err := sensor.Temperature()
			require.NoError(t, err)
			assert.InDelta(t, float64(tt.want), float64(got), 1e-9)
			assert.Equal(t, 1, mock.TransactCalls)
			assert.Equal(t, tmp117.Address, mock.Last().Addr)
			assert.Equal(t, []byte{0x00}, mock.Last().Write)
		})
	}
}

func TestTemperatureTransportError(t *testing.T) {
	sensor, mock := newSensor(t)
	mock.TransactErr = hal.ErrNoAck

	_, err := sensor.Temperature()
	assert.ErrorIs(t, err, hal.ErrNoAck)
	accessErr, ok := hal.GetAccessError(err)
	require.True(t, ok)
	assert.Equal(t, hal.RegAddress(0x00), accessErr.Register)
}

func TestCheckID(t *testing.T) {
	sensor, mock := newSensor(t)
	mock.Set(0x0f, 0x01, 0x17)

	id, err := sensor.CheckID()
	require.NoError(t, err)
	assert.Equal(t, tmp117.ID{Revision: 0, Device: 0x117}, id)

	mock.Set(0x0f, 0x20, 0x75)
	id, err = sensor.CheckID()
	assert.ErrorIs(t, err, tmp117.ErrUnexpectedDevice)
	assert.Equal(t, tmp117.ID{Revision: 2, Device: 0x075}, id)
}

func TestConfigure(t *testing.T) {
	sensor, mock := newSensor(t)

	cfg := tmp117.Config{Mode: tmp117.ModeOneShot, Cycle: 4, Averaging: tmp117.Average32, ActiveHigh: true}
	require.NoError(t, sensor.Configure(cfg))
	assert.Equal(t, []byte{0x01, 0x0e, 0x48}, mock.Last().Write)
	assert.Equal(t, 1, mock.WriteCalls)

	got, err := sensor.Config()
	require.NoError(t, err)
	assert.Equal(t, cfg, got)
}

func TestConfigDecodesPowerOnDefault(t *testing.T) {
	sensor, mock := newSensor(t)
	mock.Set(0x01, 0x02, 0x20)

	got, err := sensor.Config()
	require.NoError(t, err)
	assert.Equal(t, tmp117.Config{Mode: tmp117.ModeContinuous, Cycle: 4, Averaging: tmp117.Average8}, got)
}

func TestSoftReset(t *testing.T) {
	sensor, mock := newSensor(t)
	require.NoError(t, sensor.SoftReset())
	assert.Equal(t, []byte{0x01, 0x00, 0x02}, mock.Last().Write)
}

func TestSetAlertLimits(t *testing.T) {
	sensor, mock := newSensor(t)

	require.NoError(t, sensor.SetAlertLimits(-10, 30.5))
	require.Len(t, mock.Frames, 2)
	assert.Equal(t, []byte{0x03, 0xfb, 0x00}, mock.Frames[0].Write)
	assert.Equal(t, []byte{0x02, 0x0f, 0x40}, mock.Frames[1].Write)

	low, high, err := sensor.AlertLimits()
	require.NoError(t, err)
	assert.Equal(t, tmp117.Celsius(-10), low)
	assert.Equal(t, tmp117.Celsius(30.5), high)
}

func TestSetAlertLimitsRejectsInvertedRange(t *testing.T) {
	sensor, mock := newSensor(t)

	err := sensor.SetAlertLimits(40, 20)
	assert.ErrorIs(t, err, tmp117.ErrInvalidLimits)
	assert.Empty(t, mock.Frames)
}

func TestOffset(t *testing.T) {
	sensor, mock := newSensor(t)

	require.NoError(t, sensor.SetOffset(-0.25))
	assert.Equal(t, []byte{0x07, 0xff, 0xe0}, mock.Last().Write)

	got, err := sensor.Offset()
	require.NoError(t, err)
	assert.Equal(t, tmp117.Celsius(-0.25), got)
}

func TestSnapshot(t *testing.T) {
	sensor, mock := newSensor(t)
	mock.Set(0x00, 0x0c, 0x80)
	mock.Set(0x01, 0x22, 0x20)
	mock.Set(0x02, 0x30, 0x00)
	mock.Set(0x03, 0x00, 0x00)
	mock.Set(0x04, 0x00, 0x00)
	mock.Set(0x05, 0x12, 0x34)
	mock.Set(0x06, 0x00, 0x00)
	mock.Set(0x07, 0x00, 0x00)
	mock.Set(0x08, 0xab, 0xcd)
	mock.Set(0x0f, 0x01, 0x17)

	s, err := sensor.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, tmp117.Celsius(25), s.Temperature)
	assert.True(t, s.Config.DataReady)
	assert.Equal(t, tmp117.Celsius(96), s.HighLimit)
	assert.Equal(t, uint16(0x1234), s.EEPROM1)
	assert.Equal(t, uint16(0xabcd), s.EEPROM3)
	assert.Equal(t, uint16(0x117), s.ID.Device)
	assert.Equal(t, 10, mock.TransactCalls)
	assert.Equal(t, 0, mock.WriteCalls)
}

func TestClose(t *testing.T) {
	sensor, mock := newSensor(t)
	require.NoError(t, sensor.Close())
	assert.True(t, mock.Closed)

	_, err := sensor.Temperature()
	assert.ErrorIs(t, err, hal.ErrReleased)
}

func TestConfigurationRoundTrip(t *testing.T) {
	reg := tmp117.Configuration{}
	for r := 0; r <= math.MaxUint16; r++ {
		decoded := reg.Decode(hal.Raw(r))
		encoded := reg.Encode(decoded)
		require.Equal(t, decoded, reg.Decode(encoded), "raw 0x%04x", r)
	}
}

func TestConfigurationReservedMode(t *testing.T) {
	reg := tmp117.Configuration{}
	cfg := reg.Decode(0x0800)
	assert.Equal(t, tmp117.ModeContinuous, cfg.Mode)
	assert.Equal(t, hal.Raw(0x0000), reg.Encode(cfg), "reserved mode is normalised on encode")
	assert.Equal(t, "reserved", tmp117.Mode(0b10).String())
}

func TestTemperatureRoundTrip(t *testing.T) {
	for r := 0; r <= math.MaxUint16; r++ {
		c := tmp117.Temperature{}.Decode(hal.Raw(r))
		require.Equal(t, hal.Raw(r), tmp117.HighLimit{}.Encode(c), "raw 0x%04x", r)
	}
}

func TestCelsiusEncodeSaturates(t *testing.T) {
	assert.Equal(t, hal.Raw(0x7fff), tmp117.HighLimit{}.Encode(1000))
	assert.Equal(t, hal.Raw(0x8000), tmp117.LowLimit{}.Encode(-1000))
	assert.Equal(t, hal.Raw(0x0000), tmp117.LowLimit{}.Encode(tmp117.Celsius(math.NaN())))
	assert.Equal(t, hal.Raw(0x0001), tmp117.LowLimit{}.Encode(0.005), "rounds to nearest lsb")
}

func TestDeviceIDRoundTrip(t *testing.T) {
	reg := tmp117.DeviceID{}
	for r := 0; r <= math.MaxUint16; r++ {
		require.Equal(t, hal.Raw(r), reg.Encode(reg.Decode(hal.Raw(r))))
	}
}

func TestEEPROMUnlock(t *testing.T) {
	reg := tmp117.EEPROMUnlock{}
	assert.Equal(t, tmp117.EEPROMControl{Unlocked: true, Busy: true}, reg.Decode(0xc000))
	assert.Equal(t, hal.Raw(0x8000), reg.Encode(tmp117.EEPROMControl{Unlocked: true}))
	assert.Equal(t, tmp117.EEPROMControl{}, reg.Decode(0x3fff), "reserved bits are dropped")
}
