package irmaseal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testIdentity() *Identity {
	value := "w.geraedts@sarif.nl"
	return &Identity{
		Timestamp:      1566722350,
		AttributeType:  "pbdf.pbdf.email.email",
		AttributeValue: &value,
	}
}

func TestIdentity_MarshalUnmarshalRoundTrip(t *testing.T) {
	id := testIdentity()
	blob, err := id.marshal()
	require.NoError(t, err)

	got, err := unmarshalIdentity(blob)
	require.NoError(t, err)
	assert.Equal(t, *id, got)
}

func TestIdentity_MarshalUnmarshal_NilValue(t *testing.T) {
	id := &Identity{Timestamp: 42, AttributeType: "pbdf.pbdf.mobilenumber.mobilenumber"}
	blob, err := id.marshal()
	require.NoError(t, err)

	got, err := unmarshalIdentity(blob)
	require.NoError(t, err)
	assert.Nil(t, got.AttributeValue)
	assert.Equal(t, id.AttributeType, got.AttributeType)
	assert.Equal(t, id.Timestamp, got.Timestamp)
}

func TestIdentity_Derive_IsDeterministic(t *testing.T) {
	id := testIdentity()
	assert.Equal(t, id.Derive(), id.Derive())
}

func TestIdentity_Derive_DiffersByValue(t *testing.T) {
	id1 := testIdentity()
	other := "someone.else@sarif.nl"
	id2 := testIdentity()
	id2.AttributeValue = &other

	assert.NotEqual(t, id1.Derive(), id2.Derive())
}

func TestIdentity_Derive_PresentVsAbsentValue(t *testing.T) {
	withValue := testIdentity()
	withoutValue := testIdentity()
	withoutValue.AttributeValue = nil

	assert.NotEqual(t, withValue.Derive(), withoutValue.Derive())
}

func TestIdentity_Marshal_RejectsOversizedType(t *testing.T) {
	id := &Identity{AttributeType: string(make([]byte, 256))}
	_, err := id.marshal()
	assert.Error(t, err)
}

func TestUnmarshalIdentity_TruncatedBlob(t *testing.T) {
	_, err := unmarshalIdentity([]byte{0, 0, 0, 0, 0, 0, 0, 1})
	assert.Error(t, err)
}
