package main

import (
	"github.com/mbalug7/go-regmap/pkg/e22"
	"github.com/mbalug7/go-regmap/pkg/hal"
)

func main() {
	dev := hal.NewDevice(nil, 0)
	_, _ = hal.Read[uint16](dev, e22.CryptReg{})
}
