// Package signature provides the authorization tokens carried by
// transactions. Two signers exist: a placeholder that produces the
// deterministic, non-cryptographic token the ledger uses by default, and an
// ECDSA signer for deployments that want tokens that can be verified.
package signature

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidSignature is returned when a token fails verification.
var ErrInvalidSignature = errors.New("invalid signature")

// placeholderPrefix starts every placeholder token.
const placeholderPrefix = "SIG_"

// Signer represents the behavior required to produce and check the
// authorization token for a transaction.
type Signer interface {
	Sign(from string, now int64, data []byte) (string, error)
	Verify(token string, data []byte) error
}

// =============================================================================

// PlaceholderToken returns the token SIG_<from>_<now>. It is NOT a signature:
// anyone can produce it and it proves nothing about who created the data.
func PlaceholderToken(from string, now int64) string {
	return fmt.Sprintf("%s%s_%d", placeholderPrefix, from, now)
}

// Placeholder implements Signer with the placeholder token. Verify only
// checks the shape of the token.
type Placeholder struct{}

// Sign returns the placeholder token, the data is ignored.
func (Placeholder) Sign(from string, now int64, data []byte) (string, error) {
	return PlaceholderToken(from, now), nil
}

// Verify checks the token looks like a placeholder token.
func (Placeholder) Verify(token string, data []byte) error {
	if !strings.HasPrefix(token, placeholderPrefix) || len(token) == len(placeholderPrefix) {
		return fmt.Errorf("%w: not a placeholder token: %q", ErrInvalidSignature, token)
	}

	return nil
}

// =============================================================================

// ECDSA implements Signer using a secp256k1 private key.
type ECDSA struct {
	privateKey *ecdsa.PrivateKey
	address    string
}

// NewECDSA constructs a signer for the specified private key.
func NewECDSA(privateKey *ecdsa.PrivateKey) *ECDSA {
	return &ECDSA{
		privateKey: privateKey,
		address:    crypto.PubkeyToAddress(privateKey.PublicKey).String(),
	}
}

// GenerateECDSA constructs a signer with a brand new private key.
func GenerateECDSA() (*ECDSA, error) {
	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}

	return NewECDSA(privateKey), nil
}

// LoadECDSA constructs a signer from a hex encoded private key file.
func LoadECDSA(path string) (*ECDSA, error) {
	privateKey, err := crypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("loading key %s: %w", path, err)
	}

	return NewECDSA(privateKey), nil
}

// Save writes the private key to the specified file as hex.
func (e *ECDSA) Save(path string) error {
	if err := crypto.SaveECDSA(path, e.privateKey); err != nil {
		return fmt.Errorf("saving key %s: %w", path, err)
	}

	return nil
}

// Address returns the account address for the signer's public key.
func (e *ECDSA) Address() string {
	return e.address
}

// Sign produces a hex encoded 65 byte [R|S|V] signature of the data.
func (e *ECDSA) Sign(from string, now int64, data []byte) (string, error) {
	sig, err := crypto.Sign(stamp(data), e.privateKey)
	if err != nil {
		return "", err
	}

	return hexutil.Encode(sig), nil
}

// Verify checks the token is a signature of the data made by this
// signer's private key.
func (e *ECDSA) Verify(token string, data []byte) error {
	sig, err := hexutil.Decode(token)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	if len(sig) != crypto.SignatureLength {
		return fmt.Errorf("%w: got %d bytes, exp %d", ErrInvalidSignature, len(sig), crypto.SignatureLength)
	}

	hash := stamp(data)

	// Extract the public key from the data and the signature.
	publicKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}

	rs := sig[:crypto.RecoveryIDOffset]
	if !crypto.VerifySignature(crypto.FromECDSAPub(publicKey), hash, rs) {
		return ErrInvalidSignature
	}

	if addr := crypto.PubkeyToAddress(*publicKey).String(); addr != e.address {
		return fmt.Errorf("%w: signed by %s, exp %s", ErrInvalidSignature, addr, e.address)
	}

	return nil
}

// stamp returns a hash of 32 bytes that represents this data with
// the ledger stamp embedded into the final hash.
func stamp(data []byte) []byte {

	// Hash the data into a 32 byte array. This will provide
	// a data length consistency with all data.
	txHash := crypto.Keccak256(data)

	// This stamp is used so signatures we produce when signing data
	// are always unique to this ledger.
	stamp := []byte("\x19Powledger Signed Message:\n32")

	return crypto.Keccak256(stamp, txHash)
}
