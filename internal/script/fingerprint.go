package script

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Fingerprint hashes an ordered list of step ids. Two plans share a
// fingerprint exactly when they resolve to the same order.
func Fingerprint(ids []string) string {
	d := xxhash.New()
	for _, id := range ids {
		_, _ = d.WriteString(id)
		_, _ = d.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", d.Sum64())
}
