package sealed

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(b byte) []byte {
	return bytes.Repeat([]byte{b}, 32)
}

func TestNewBox_InvalidKeySize(t *testing.T) {
	_, err := NewBox([]byte("too-short"))
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestBox_SealOpen_RoundTrip(t *testing.T) {
	box, err := NewBox(testKey(1))
	require.NoError(t, err)
	assert.True(t, box.Sealing())

	envelope, err := box.Seal([]byte(`{"formData":{"fullName":"Kim"}}`))
	require.NoError(t, err)
	assert.NotContains(t, envelope, "fullName")

	plaintext, err := box.Open(envelope)
	require.NoError(t, err)
	assert.Equal(t, `{"formData":{"fullName":"Kim"}}`, string(plaintext))
}

func TestBox_Open_WrongKey(t *testing.T) {
	box1, err := NewBox(testKey(1))
	require.NoError(t, err)
	box2, err := NewBox(testKey(2))
	require.NoError(t, err)

	envelope, err := box1.Seal([]byte("secret"))
	require.NoError(t, err)

	_, err = box2.Open(envelope)
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestBox_Open_Malformed(t *testing.T) {
	box, err := NewBox(testKey(1))
	require.NoError(t, err)

	_, err = box.Open("not base64!!!")
	assert.ErrorIs(t, err, ErrMalformedEnvelope)

	// Valid base64 but shorter than a nonce.
	_, err = box.Open("c2hvcnQ=")
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
}

func TestBox_NilKey_Passthrough(t *testing.T) {
	box, err := NewBox(nil)
	require.NoError(t, err)
	assert.False(t, box.Sealing())

	envelope, err := box.Seal([]byte("plain"))
	require.NoError(t, err)

	plaintext, err := box.Open(envelope)
	require.NoError(t, err)
	assert.Equal(t, "plain", string(plaintext))
}

func TestBox_Seal_UniqueNonces(t *testing.T) {
	box, err := NewBox(testKey(1))
	require.NoError(t, err)

	a, err := box.Seal([]byte("same input"))
	require.NoError(t, err)
	b, err := box.Seal([]byte("same input"))
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}
