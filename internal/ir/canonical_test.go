package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"type":   "UserInput",
		"async":  true,
		"data":   int64(15),
		"source": "~//main:0",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"async":true,"data":15,"source":"~//main:0","type":"UserInput"}`, string(out))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(out))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	// "e" + combining acute accent normalizes to U+00E9
	out, err := MarshalCanonical("cafe\u0301")
	require.NoError(t, err)
	assert.Equal(t, "\"caf\u00e9\"", string(out))
}

func TestMarshalCanonical_LineSeparatorsUnescaped(t *testing.T) {
	out, err := MarshalCanonical("a\u2028b")
	require.NoError(t, err)
	assert.Equal(t, "\"a\u2028b\"", string(out))
}

func TestMarshalCanonical_Values(t *testing.T) {
	out, err := MarshalCanonical([]any{Int(7), Bool(true), OctetString("x"), ObjectRef{Group: "~//a", Number: 3}})
	require.NoError(t, err)
	assert.Equal(t, `[7,true,"x",{"group":"~//a","number":3}]`, string(out))
}

func TestMarshalCanonical_RejectsNullAndFloats(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"f": 1.5})
	assert.Error(t, err)
}
