// Package eq implements the four-band console equalizer engine.
//
// The signal path for every block is fixed:
//
//	oversample up -> HPF (2 sections) -> LF -> LM -> HM -> HF -> LPF
//	  -> saturation -> oversample down -> output gain
//
// All filters and the saturator run at the oversampled rate. Parameters
// arrive as a Params snapshot per block; coefficients are redesigned once at
// the start of a block and only for bands whose inputs changed.
package eq
