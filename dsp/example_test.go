package dsp_test

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp"
)

func ExampleLinearRamp() {
	var r dsp.LinearRamp[float64]
	r.Reset(0, 1, 4)
	for i := 0; i < 6; i++ {
		fmt.Printf("%.2f ", r.Next())
	}
	fmt.Println()
	// Output: 0.00 0.25 0.50 0.75 1.00 1.00
}

func ExampleDelayLine() {
	d := dsp.NewDelayLine(8)
	for _, x := range []float32{1, 2, 3} {
		d.Write(x)
	}
	fmt.Println(d.Read(3), d.Read(1), d.Read(1.5))
	// Output: 1 3 2.5
}
