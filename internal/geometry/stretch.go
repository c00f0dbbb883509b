package geometry

// PPM is the denominator of epsilon.
const PPM = 1_000_000

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// StretchOK reports whether a squared length newSq stays within epsilon ppm of
// origSq, i.e. |newSq/origSq - 1| <= epsilon/1e6, using only integers.
func StretchOK(origSq, newSq, epsilon int64) bool {
	return abs64(PPM*(newSq-origSq)) <= epsilon*origSq
}

// StretchExcess is the raw amount by which newSq violates the stretch
// tolerance, or zero when StretchOK holds.
func StretchExcess(origSq, newSq, epsilon int64) int64 {
	return max(0, abs64(PPM*(newSq-origSq))-epsilon*origSq)
}
