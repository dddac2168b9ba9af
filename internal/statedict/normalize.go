package statedict

// WrapperKeys lists the outer keys some training frameworks nest the real
// parameter mapping under, in lookup order.
var WrapperKeys = []string{"params_ema", "params-ema", "params"}

// Normalize strips one level of wrapper container.
//
// The first wrapper key present decides: if its value is a mapping, that
// mapping is returned; otherwise sd is returned unchanged and the remaining
// wrapper keys are not consulted. Normalize never fails and never modifies sd.
func Normalize(sd StateDict) StateDict {
	inner, _ := Unwrap(sd)
	return inner
}

// Unwrap is Normalize that also reports which wrapper key was stripped.
// The key is empty when sd is returned as is.
func Unwrap(sd StateDict) (StateDict, string) {
	for _, key := range WrapperKeys {
		v, ok := sd[key]
		if !ok {
			continue
		}
		if inner, ok := AsStateDict(v); ok {
			return inner, key
		}
		return sd, ""
	}
	return sd, ""
}
