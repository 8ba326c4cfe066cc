package oracle

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"time"

	"vrf-flip-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ResponseClaims is the signed payload. Issuer is the function, Subject is
// the request resource.
type ResponseClaims struct {
	Player  string         `json:"player"`
	Counter models.RoundID `json:"counter"`
	Words   []uint32       `json:"words"`
	jwt.RegisteredClaims
}

// Signer holds the enclave key of one oracle function.
type Signer struct {
	function string
	key      ed25519.PrivateKey
}

func NewSigner(function string, seed []byte) (*Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("signer seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &Signer{function: function, key: ed25519.NewKeyFromSeed(seed)}, nil
}

// NewSignerFromHex accepts a hex seed, or generates a fresh key when empty.
func NewSignerFromHex(function, seedHex string) (*Signer, error) {
	if seedHex == "" {
		seed := make([]byte, ed25519.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			return nil, errors.Wrap(err, "generate signer seed")
		}
		return NewSigner(function, seed)
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, fmt.Errorf("invalid signer seed: %v", err)
	}
	return NewSigner(function, seed)
}

func (s *Signer) Function() string {
	return s.function
}

// PublicKey is the base64 form registered on the house as OracleSigner.
func (s *Signer) PublicKey() string {
	return base64.StdEncoding.EncodeToString(s.key.Public().(ed25519.PublicKey))
}

func (s *Signer) Sign(resp Response) (string, error) {
	claims := ResponseClaims{
		Player:  resp.Player,
		Counter: resp.Counter,
		Words:   resp.Words,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   resp.Function,
			Subject:  resp.Request,
			ID:       uuid.New().String(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(s.key)
}

// Verify checks the token against the registered signer key and returns the
// response it carries.
func Verify(tokenString, publicKey string) (*Response, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKey)
	if err != nil || len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("invalid oracle signer key")
	}

	claims := &ResponseClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return ed25519.PublicKey(raw), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if err != nil {
		return nil, errors.Wrap(err, "verify oracle response")
	}

	return &Response{
		Request:  claims.Subject,
		Player:   claims.Player,
		Function: claims.Issuer,
		Counter:  claims.Counter,
		Words:    claims.Words,
	}, nil
}
