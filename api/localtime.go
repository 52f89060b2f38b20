package api

import "time"

// TimeOfDayLayout is the layout used for sunrise and sunset
const TimeOfDayLayout = "3:04 PM"

// LocalTimeOfDay formats a Unix timestamp as a time of day in loc.
// A nil loc means UTC.
func LocalTimeOfDay(epoch int64, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return time.Unix(epoch, 0).In(loc).Format(TimeOfDayLayout)
}

// RecordLocation returns a fixed zone for the record's reported offset, or
// fallback when the provider sent none.
func RecordLocation(rec WeatherRecord, fallback *time.Location) *time.Location {
	offset, ok := rec.Timezone()
	if !ok {
		return fallback
	}
	return time.FixedZone(formatOffset(offset), offset)
}

// formatOffset renders an offset in seconds as "UTC+05:30"
func formatOffset(offset int) string {
	sign := byte('+')
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	h, m := offset/3600, (offset%3600)/60
	return "UTC" + string(sign) + twoDigits(h) + ":" + twoDigits(m)
}

func twoDigits(n int) string {
	return string([]byte{byte('0' + n/10%10), byte('0' + n%10)})
}
