package main

import "github.com/mbalug7/go-regmap/pkg/hal"

type command struct{ hal.Writable }

func (command) Address() hal.RegAddress  { return 0x0b }
func (command) Width() hal.Width         { return 1 }
func (command) Decode(raw hal.Raw) uint8 { return uint8(raw) }
func (command) Encode(v uint8) hal.Raw   { return hal.Raw(v) }

func main() {
	dev := hal.NewDevice(nil, 0x48)
	_, _ = hal.Read[uint8](dev, command{})
}
