package cfbf

import "time"

// filetimeEpochOffset100ns is the number of 100-nanosecond ticks between
// the FILETIME epoch (1601-01-01 UTC) and the Unix epoch (1970-01-01
// UTC).
const filetimeEpochOffset100ns = 116444736000000000

// filetimeToTime converts a FILETIME value (100ns ticks since 1601-01-01
// UTC) to a time.Time, or reports false for the null value 0. Grounded
// on the epoch-arithmetic style of yamitzky-xlrd-go/xlrd/xldate.go and
// soypat-fat's datetime.Time(), both of which build a time.Time from raw
// integer timestamp fields via stdlib time.
func filetimeToTime(ft uint64) (time.Time, bool) {
	if ft == 0 {
		return time.Time{}, false
	}
	micros := int64(ft-filetimeEpochOffset100ns) / 10
	return time.UnixMicro(micros).UTC(), true
}

// timeToFILETIME is the inverse of filetimeToTime, kept for a future
// writable-timestamp feature; the current writer hard-codes FILETIMEs to
// zero and never calls this.
func timeToFILETIME(t time.Time) uint64 {
	micros := t.UTC().UnixMicro()
	return uint64(micros*10 + filetimeEpochOffset100ns)
}
