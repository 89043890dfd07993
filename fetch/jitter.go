package fetch

import "time"

// JitterMS derives a value in [0, rangeMS) from the current clock
// reading. Not cryptographic; it only spreads retry timing so repeated
// ladders do not hit a host in lockstep.
func JitterMS(rangeMS uint64) uint64 {
	if rangeMS == 0 {
		return 0
	}
	now := time.Now()
	nanos := uint64(now.UnixNano())
	micros := uint64(now.UnixMicro()) & 0xFFFF
	return (nanos ^ (micros << 5)) % rangeMS
}
