package oracle

import (
	"bytes"
	"testing"

	"vrf-flip-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSigner(t *testing.T, fill byte) *Signer {
	t.Helper()
	s, err := NewSigner("fn", bytes.Repeat([]byte{fill}, 32))
	require.NoError(t, err)
	return s
}

func TestSignVerifyRoundTrip(t *testing.T) {
	s := testSigner(t, 1)
	counter, err := models.ParseRoundID("340282366920938463463374607431768211455")
	require.NoError(t, err)

	token, err := s.Sign(Response{Request: "req", Player: "player", Function: "fn", Counter: counter, Words: []uint32{7, 9}})
	require.NoError(t, err)

	resp, err := Verify(token, s.PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "req", resp.Request)
	assert.Equal(t, "player", resp.Player)
	assert.Equal(t, "fn", resp.Function)
	assert.True(t, counter.Equal(resp.Counter))
	assert.Equal(t, []uint32{7, 9}, resp.Words)
}

func TestVerifyRejectsOtherSigner(t *testing.T) {
	token, err := testSigner(t, 1).Sign(Response{Request: "req", Counter: models.NewRoundID(1), Words: []uint32{1}})
	require.NoError(t, err)

	_, err = Verify(token, testSigner(t, 2).PublicKey())
	assert.Error(t, err)

	_, err = Verify(token, "not-base64!")
	assert.Error(t, err)
}

func TestVerifyRejectsTamperedPayload(t *testing.T) {
	s := testSigner(t, 3)
	token, err := s.Sign(Response{Request: "req", Counter: models.NewRoundID(1), Words: []uint32{1}})
	require.NoError(t, err)

	other, err := s.Sign(Response{Request: "req", Counter: models.NewRoundID(1), Words: []uint32{2}})
	require.NoError(t, err)

	// header.payload of one token with the signature of another
	a := bytes.Split([]byte(token), []byte("."))
	b := bytes.Split([]byte(other), []byte("."))
	forged := string(bytes.Join([][]byte{a[0], b[1], a[2]}, []byte(".")))

	_, err = Verify(forged, s.PublicKey())
	assert.Error(t, err)
}

func TestVerifyRejectsSymmetricAlgorithm(t *testing.T) {
	s := testSigner(t, 4)
	claims := ResponseClaims{Words: []uint32{1}}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.PublicKey()))
	require.NoError(t, err)

	_, err = Verify(token, s.PublicKey())
	assert.Error(t, err)
}

func TestNewSignerFromHex(t *testing.T) {
	_, err := NewSignerFromHex("fn", "abcd")
	assert.Error(t, err)

	fixed, err := NewSignerFromHex("fn", "0101010101010101010101010101010101010101010101010101010101010101")
	require.NoError(t, err)
	assert.Equal(t, testSigner(t, 1).PublicKey(), fixed.PublicKey())

	random, err := NewSignerFromHex("fn", "")
	require.NoError(t, err)
	assert.NotEqual(t, fixed.PublicKey(), random.PublicKey())
}
