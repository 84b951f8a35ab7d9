package irmaseal

import (
	"bytes"
	"context"
	"crypto/rand"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/privacybydesign/irmaseal-go/pkg/kem"
)

func sealAndOpen(t *testing.T, plaintext []byte, identity *Identity, capacity int) (opened []byte, macValid bool) {
	t.Helper()

	pk, sk, err := kem.GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)
	scheme := kem.NewECDHScheme()

	sealer, err := NewSealerWithCapacity(identity, pk, scheme, rand.Reader, capacity)
	require.NoError(t, err)

	var sealed bytes.Buffer
	require.NoError(t, sealer.Seal(context.Background(), bytes.NewReader(plaintext), &sealed))

	gotIdentity, opener, err := NewOpenerWithCapacity(bytes.NewReader(sealed.Bytes()), scheme, capacity)
	require.NoError(t, err)
	assert.Equal(t, *identity, gotIdentity)

	var out bytes.Buffer
	valid, err := opener.Unseal(context.Background(), sk, &out)
	require.NoError(t, err)
	return out.Bytes(), valid
}

func testIdentityForCodec() *Identity {
	value := "w.geraedts@sarif.nl"
	return &Identity{
		Timestamp:      1566722350,
		AttributeType:  "pbdf.pbdf.email.email",
		AttributeValue: &value,
	}
}

func TestSealOpen_RoundTrip_VariousLengths(t *testing.T) {
	lengths := []int{0, 1, 511, 512, 1008, 1023, 60000}
	for _, n := range lengths {
		n := n
		t.Run(fmt.Sprintf("length=%d", n), func(t *testing.T) {
			plaintext := make([]byte, n)
			_, err := rand.Read(plaintext)
			require.NoError(t, err)

			out, valid := sealAndOpen(t, plaintext, testIdentityForCodec(), BlockSize)
			assert.True(t, valid)
			assert.Equal(t, plaintext, out)
		})
	}
}

func TestSealOpen_RoundTrip_CustomCapacity(t *testing.T) {
	plaintext := make([]byte, 10000)
	_, err := rand.Read(plaintext)
	require.NoError(t, err)

	out, valid := sealAndOpen(t, plaintext, testIdentityForCodec(), 2*MACSize+1)
	assert.True(t, valid)
	assert.Equal(t, plaintext, out)
}

func TestSeal_PeerKeyMustMatchRecipient(t *testing.T) {
	_, wrongSK, err := kem.GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)

	pk, _, err := kem.GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)
	scheme := kem.NewECDHScheme()

	sealer, err := NewSealer(testIdentityForCodec(), pk, scheme, rand.Reader)
	require.NoError(t, err)

	var sealed bytes.Buffer
	require.NoError(t, sealer.Seal(context.Background(), bytes.NewReader([]byte("hello")), &sealed))

	_, opener, err := NewOpener(bytes.NewReader(sealed.Bytes()), scheme)
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = opener.Unseal(context.Background(), wrongSK, &out)
	assert.Error(t, err)
}

func sealMessage(t *testing.T, plaintext []byte) ([]byte, kem.UserSecretKey, kem.Scheme) {
	t.Helper()
	pk, sk, err := kem.GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)
	scheme := kem.NewECDHScheme()

	sealer, err := NewSealer(testIdentityForCodec(), pk, scheme, rand.Reader)
	require.NoError(t, err)

	var sealed bytes.Buffer
	require.NoError(t, sealer.Seal(context.Background(), bytes.NewReader(plaintext), &sealed))
	return sealed.Bytes(), sk, scheme
}

func TestUnseal_DetectsBodyTamper(t *testing.T) {
	sealed, sk, scheme := sealMessage(t, bytes.Repeat([]byte("A"), 2000))

	sealed[1000] ^= 0x02

	_, opener, err := NewOpener(bytes.NewReader(sealed), scheme)
	require.NoError(t, err)

	var out bytes.Buffer
	valid, err := opener.Unseal(context.Background(), sk, &out)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestUnseal_DetectsMACTamper(t *testing.T) {
	sealed, sk, scheme := sealMessage(t, bytes.Repeat([]byte("A"), 2000))

	sealed[len(sealed)-5] ^= 0x02

	_, opener, err := NewOpener(bytes.NewReader(sealed), scheme)
	require.NoError(t, err)

	var out bytes.Buffer
	valid, err := opener.Unseal(context.Background(), sk, &out)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestNewOpener_RejectsNonIRMASEALStream(t *testing.T) {
	junk := make([]byte, 14)
	scheme := kem.NewECDHScheme()

	_, _, err := NewOpener(bytes.NewReader(junk), scheme)
	require.Error(t, err)

	var sealErr *Error
	require.ErrorAs(t, err, &sealErr)
	assert.Equal(t, KindNotIRMASEAL, sealErr.Kind)
}

func TestNewOpener_RejectsWrongVersion(t *testing.T) {
	header := append(append([]byte{}, Prelude[:]...), 0x01)
	header = append(header, make([]byte, 9)...)
	scheme := kem.NewECDHScheme()

	_, _, err := NewOpener(bytes.NewReader(header), scheme)
	require.Error(t, err)

	var sealErr *Error
	require.ErrorAs(t, err, &sealErr)
	assert.Equal(t, KindIncorrectVersion, sealErr.Kind)
}

func TestNewOpenerWithCapacity_RejectsSmallCapacity(t *testing.T) {
	scheme := kem.NewECDHScheme()

	_, _, err := NewOpenerWithCapacity(bytes.NewReader(nil), scheme, MACSize)
	assert.Error(t, err)

	_, _, err = NewOpenerWithCapacity(bytes.NewReader(nil), scheme, 2*MACSize)
	assert.Error(t, err, "capacity == 2*MACSize can never satisfy drainBody's flush condition")
}

func TestSeal_ContextCancellation(t *testing.T) {
	pk, _, err := kem.GenerateMasterKeypair(rand.Reader)
	require.NoError(t, err)
	scheme := kem.NewECDHScheme()

	sealer, err := NewSealer(testIdentityForCodec(), pk, scheme, rand.Reader)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var sealed bytes.Buffer
	err = sealer.Seal(ctx, bytes.NewReader(make([]byte, 10000)), &sealed)
	assert.Error(t, err)
}
