package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint(t *testing.T) {
	t.Parallel()

	base := Fingerprint([]string{"scan", "pair", "done"})
	assert.Len(t, base, 16)
	assert.Equal(t, base, Fingerprint([]string{"scan", "pair", "done"}))
	assert.NotEqual(t, base, Fingerprint([]string{"pair", "scan", "done"}), "order matters")
	assert.NotEqual(t, Fingerprint([]string{"ab", "c"}), Fingerprint([]string{"a", "bc"}), "ids are delimited")
	assert.Len(t, Fingerprint(nil), 16)
}
