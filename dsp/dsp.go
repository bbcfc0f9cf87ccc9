// Package dsp holds the small allocation-free building blocks shared by the
// synthesizer stages: control ramps, delay lines and numeric helpers.
package dsp

import "github.com/cwbudde/algo-approx"

// FlushDenormals converts denormal numbers to zero to avoid performance issues
func FlushDenormals(x float32) float32 {
	const epsilon = 1e-30
	if x > -epsilon && x < epsilon {
		return 0.0
	}
	return x
}

// DBToGain converts decibels to a linear amplitude factor.
func DBToGain(db float32) float32 {
	const ln10Over20 = 0.11512925464970229
	return approx.FastExp(db * ln10Over20)
}
