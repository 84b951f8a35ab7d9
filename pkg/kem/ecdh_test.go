package kem

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestECDHScheme_RoundTrip(t *testing.T) {
	pk, sk, err := GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)

	scheme := NewECDHScheme()
	ct, sharedSealer, err := scheme.Encapsulate(pk, []byte("irma-demo.gemeente.personalData.fullname"), rand.Reader)
	require.NoError(t, err)

	sharedOpener, err := scheme.Decapsulate(sk, ct)
	require.NoError(t, err)

	assert.Equal(t, sharedSealer, sharedOpener)
}

func TestECDHScheme_DecapsulateWrongKeyFails(t *testing.T) {
	pk, _, err := GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)
	_, wrongSK, err := GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)

	scheme := NewECDHScheme()
	ct, _, err := scheme.Encapsulate(pk, []byte("id"), rand.Reader)
	require.NoError(t, err)

	_, err = scheme.Decapsulate(wrongSK, ct)
	assert.Error(t, err)
}

func TestECDHScheme_EncapsulationIsRandomized(t *testing.T) {
	pk, _, err := GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)

	scheme := NewECDHScheme()
	ct1, shared1, err := scheme.Encapsulate(pk, []byte("id"), rand.Reader)
	require.NoError(t, err)
	ct2, shared2, err := scheme.Encapsulate(pk, []byte("id"), rand.Reader)
	require.NoError(t, err)

	assert.NotEqual(t, ct1, ct2)
	assert.NotEqual(t, shared1, shared2)
}

func TestECDHScheme_RejectsMalformedPublicKey(t *testing.T) {
	scheme := NewECDHScheme()
	_, _, err := scheme.Encapsulate(PublicKey([]byte{1, 2, 3}), []byte("id"), rand.Reader)
	assert.Error(t, err)
}

func TestGenerateMasterKeypair_Distinct(t *testing.T) {
	pk1, sk1, err := GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)
	pk2, sk2, err := GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)

	assert.NotEqual(t, pk1, pk2)
	assert.NotEqual(t, sk1, sk2)
}
