// Package detect identifies which architecture family produced a parameter
// mapping and constructs the matching model.
//
// Detection runs in three steps:
//  1. Normalize: strip one wrapper container ("params_ema", "params-ema",
//     "params").
//  2. Match: evaluate the ordered Registry, first match wins.
//  3. Construct: call the matched family's constructor, or the fallback
//     family (ESRGAN) when nothing matched.
//
// Failure modes are explicit. A matched rule whose constructor rejects the
// mapping yields a MatchedConstructionFailed error carrying the
// constructor's error. A failed fallback yields ErrUnsupportedModel.
//
// Example:
//
//	res, err := detect.DetectAndLoad(sd)
//	switch {
//	case detect.IsUnsupported(err):
//	    // not a known architecture
//	case err != nil:
//	    // known architecture, broken checkpoint
//	default:
//	    fmt.Println(res.Tag, res.Model.Scale)
//	}
package detect
