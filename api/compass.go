package api

// compassPoints in clockwise order, one per 45° sector
var compassPoints = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// NormalizeBearing maps any integer bearing into [0,360)
func NormalizeBearing(deg int) int {
	d := deg % 360
	if d < 0 {
		d += 360
	}
	return d
}

// Compass returns the 8-point compass direction for a bearing in degrees.
//
// Sectors are half-open, closed at the lower edge:
//
//	N  [338,360) ∪ [0,23)
//	NE [23,68)
//	E  [68,113)
//	SE [113,158)
//	S  [158,203)
//	SW [203,248)
//	W  [248,293)
//	NW [293,338)
func Compass(deg int) string {
	d := NormalizeBearing(deg)
	// Shifting by 22 puts every lower edge on a multiple of 45
	return compassPoints[((d+22)/45)%8]
}
