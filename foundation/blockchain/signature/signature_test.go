package signature_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardanlabs/powledger/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/crypto"
)

const (
	pkHexKey = "fae85851bdf5c9f49923722ce38f3c1defcfd3619ef5453230a58ad805499959"
	from     = "0xdd6B972ffcc631a62CAE1BB9d80b7ff429c8ebA4"
)

// =============================================================================

func Test_Placeholder(t *testing.T) {
	var signer signature.Signer = signature.Placeholder{}

	sig, err := signer.Sign("Bob", 1700000000, []byte("ignored"))
	if err != nil {
		t.Fatalf("Should be able to produce a placeholder token: %s", err)
	}

	if exp := "SIG_Bob_1700000000"; sig != exp {
		t.Logf("got: %s", sig)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should get back the placeholder token.")
	}

	if sig != signature.PlaceholderToken("Bob", 1700000000) {
		t.Fatalf("Should get the same token from PlaceholderToken.")
	}

	if err := signer.Verify(sig, nil); err != nil {
		t.Fatalf("Should be able to verify a placeholder token: %s", err)
	}

	if err := signer.Verify("0xdeadbeef", nil); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should reject a token that is not a placeholder: %v", err)
	}
}

func Test_ECDSA(t *testing.T) {
	pk, err := crypto.HexToECDSA(pkHexKey)
	if err != nil {
		t.Fatalf("Should be able to generate a private key: %s", err)
	}

	signer := signature.NewECDSA(pk)
	if signer.Address() != from {
		t.Logf("got: %s", signer.Address())
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}

	data := []byte(`{"from":"Bob","to":"Linda","amount":10}`)

	sig, err := signer.Sign("Bob", 1700000000, data)
	if err != nil {
		t.Fatalf("Should be able to sign data: %s", err)
	}

	if err := signer.Verify(sig, data); err != nil {
		t.Fatalf("Should be able to verify the signature: %s", err)
	}

	if err := signer.Verify(sig, []byte("changed")); err == nil {
		t.Fatalf("Should not be able to verify the signature against different data.")
	}

	other, err := signature.GenerateECDSA()
	if err != nil {
		t.Fatalf("Should be able to generate a signer: %s", err)
	}

	if err := other.Verify(sig, data); !errors.Is(err, signature.ErrInvalidSignature) {
		t.Fatalf("Should not be able to verify a signature from another key: %v", err)
	}
}

func Test_LoadECDSA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bob.ecdsa")
	if err := os.WriteFile(path, []byte(pkHexKey), 0600); err != nil {
		t.Fatalf("Should be able to write the key file: %s", err)
	}

	signer, err := signature.LoadECDSA(path)
	if err != nil {
		t.Fatalf("Should be able to load the key file: %s", err)
	}

	if signer.Address() != from {
		t.Logf("got: %s", signer.Address())
		t.Logf("exp: %s", from)
		t.Fatalf("Should get back the right address.")
	}

	saved := filepath.Join(t.TempDir(), "copy.ecdsa")
	if err := signer.Save(saved); err != nil {
		t.Fatalf("Should be able to save the key file: %s", err)
	}

	reloaded, err := signature.LoadECDSA(saved)
	if err != nil {
		t.Fatalf("Should be able to load the saved key file: %s", err)
	}

	if reloaded.Address() != from {
		t.Fatalf("Should get back the same address from the saved key, got %s.", reloaded.Address())
	}

	if _, err := signature.LoadECDSA(filepath.Join(t.TempDir(), "missing.ecdsa")); err == nil {
		t.Fatalf("Should not be able to load a missing key file.")
	}
}
