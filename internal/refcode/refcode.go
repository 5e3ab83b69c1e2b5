package refcode

import (
	"crypto/rand"
	"fmt"
	"time"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

const suffixLength = 4

// New builds an import reference of the form PREFIX-YYYYMM-XXXX where XXXX is
// a random upper-case base-36 suffix.
func New(prefix string, now time.Time) string {
	buf := make([]byte, suffixLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand does not fail on supported platforms; a time-derived
		// suffix keeps the reference well-formed if it ever does.
		stamp := uint64(now.UnixNano())
		for i := range buf {
			buf[i] = byte(stamp >> (8 * uint(i)))
		}
	}

	suffix := make([]byte, suffixLength)
	for i, b := range buf {
		suffix[i] = alphabet[int(b)%len(alphabet)]
	}
	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("200601"), suffix)
}
