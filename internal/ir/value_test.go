package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEqual_SameVariant(t *testing.T) {
	assert.True(t, Equal(Int(5), Int(5)))
	assert.False(t, Equal(Int(5), Int(6)))
	assert.True(t, Equal(OctetString("abc"), OctetString("abc")))
	assert.False(t, Equal(OctetString("abc"), OctetString("abd")))
	assert.True(t, Equal(Bool(true), Bool(true)))
	assert.True(t, Equal(ObjectRef{Group: "~//a", Number: 1}, ObjectRef{Group: "~//a", Number: 1}))
}

func TestEqual_DifferentVariantsNeverEqual(t *testing.T) {
	assert.False(t, Equal(Int(1), Bool(true)))
	assert.False(t, Equal(OctetString("x"), ContentRef("x")))
	assert.False(t, Equal(Int(0), nil))
	assert.True(t, Equal(nil, nil))
}

func TestValues_TaggedRoundTripKeepsVariant(t *testing.T) {
	vals := []Value{Int(42), OctetString("42"), ContentRef("~//img"), Bool(false), ObjectRef{Group: "~//a", Number: 2}}

	data, err := MarshalValues(vals)
	require.NoError(t, err)

	got, err := UnmarshalValues(data)
	require.NoError(t, err)
	assert.Equal(t, vals, got)
}

func TestUnmarshalValues_RejectsEmptyEntry(t *testing.T) {
	_, err := UnmarshalValues([]byte(`[{}]`))
	assert.Error(t, err)
}

func TestZero(t *testing.T) {
	assert.Equal(t, Int(0), Zero(KindInt))
	assert.Equal(t, OctetString(""), Zero(KindOctetString))
	assert.Nil(t, Zero(Kind(99)))
}
