// Package statedict models parameter mappings (state dicts) as handed over
// by checkpoint loaders.
//
// A StateDict maps parameter names to opaque values. Detection only cares
// about key presence, exact key names and one level of nesting, so values
// are kept as `any`. Values that describe a tensor (TensorInfo, or anything
// implementing Shaped) expose their shape to architecture constructors.
//
// Example:
//
//	sd := statedict.StateDict{
//	    "params_ema": statedict.StateDict{
//	        "body.0.weight": statedict.NewTensorInfo(statedict.F32, 64, 3, 3, 3),
//	    },
//	}
//	inner := statedict.Normalize(sd) // unwraps "params_ema"
//
// A StateDict is never mutated by this module.
package statedict
