package main

import "github.com/mbalug7/go-regmap/pkg/hal"

type status struct{ hal.Readable }

func (status) Address() hal.RegAddress  { return 0x0a }
func (status) Width() hal.Width         { return 1 }
func (status) Decode(raw hal.Raw) uint8 { return uint8(raw) }
func (status) Encode(v uint8) hal.Raw   { return hal.Raw(v) }

func main() {
	dev := hal.NewDevice(nil, 0x48)
	_ = hal.Write[uint8](dev, status{}, 1)
}
