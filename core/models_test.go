package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFingerprintOf_Deterministic(t *testing.T) {
	a := FingerprintOf("Sara bought tomatoes at the market.")
	b := FingerprintOf("Sara bought tomatoes at the market.")
	assert.Equal(t, a, b)
	assert.Len(t, string(a), 64) // 256 bits, hex encoded
}

func TestFingerprintOf_DistinctContent(t *testing.T) {
	a := FingerprintOf("alpha")
	b := FingerprintOf("beta")
	assert.NotEqual(t, a, b)
}

func TestFingerprint_Short(t *testing.T) {
	fp := FingerprintOf("content")
	assert.Len(t, fp.Short(), 12)
	assert.Equal(t, "abc", Fingerprint("abc").Short())
}

func TestEntity_NodeID_SharedAcrossDocuments(t *testing.T) {
	first := Entity{Name: "Sara", Type: "person"}
	second := Entity{Name: "Sara", Type: "person"}
	assert.Equal(t, first.NodeID(), second.NodeID())

	other := Entity{Name: "Sara", Type: "place"}
	assert.NotEqual(t, first.NodeID(), other.NodeID())
}

func TestEntity_Tuple(t *testing.T) {
	e := Entity{Name: "market", Type: "place"}
	assert.Equal(t, "(place,market)", e.Tuple())
}

func TestIDFromContent_Deterministic(t *testing.T) {
	require.Equal(t, IDFromContent("(person,Sara)"), IDFromContent("(person,Sara)"))
	require.NotEqual(t, IDFromContent("(person,Sara)"), IDFromContent("(person,sara)"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abc", 2))
	// Rune-safe: two-rune string of multi-byte characters
	assert.Equal(t, "éè", Truncate("éèê", 2))
}
