package fetch

import "testing"

func TestJitterMSZeroRange(t *testing.T) {
	if got := JitterMS(0); got != 0 {
		t.Errorf("JitterMS(0) = %d, want 0", got)
	}
}

func TestJitterMSStaysInRange(t *testing.T) {
	for _, rangeMS := range []uint64{1, 50, 1000} {
		for i := 0; i < 1000; i++ {
			if got := JitterMS(rangeMS); got >= rangeMS {
				t.Fatalf("JitterMS(%d) = %d, want < %d", rangeMS, got, rangeMS)
			}
		}
	}
}
