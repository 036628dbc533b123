package verify

import (
	"errors"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// sign produces a code the way a wallet does, with v in {27, 28}.
func sign(t *testing.T, msg string) (code, address string) {
	t.Helper()
	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	sig, err := crypto.Sign(accounts.TextHash([]byte(msg)), key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), crypto.PubkeyToAddress(key.PublicKey).Hex()
}

func TestCheckInCode(t *testing.T) {
	t.Parallel()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	addr := crypto.PubkeyToAddress(key.PublicKey).Hex()
	sig, err := crypto.Sign(accounts.TextHash([]byte(Payload(7, addr))), key)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	code := hexutil.Encode(sig)

	tests := []struct {
		name        string
		eventID     int64
		participant string
		code        string
		want        bool
	}{
		{"own signature", 7, addr, code, true},
		{"lower-case address", 7, strings.ToLower(addr), code, true},
		{"without 0x prefix", 7, addr, strings.TrimPrefix(code, "0x"), true},
		{"other event", 8, addr, code, false},
		{"other wallet", 7, "0x000000000000000000000000000000000000dEaD", code, false},
		{"not a wallet", 7, "participant-42", code, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CheckInCode(tt.eventID, tt.participant, tt.code)
			if err != nil {
				t.Fatalf("CheckInCode: %v", err)
			}
			if got != tt.want {
				t.Fatalf("CheckInCode = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSignerAcceptsWalletRecoveryID(t *testing.T) {
	t.Parallel()

	code, addr := sign(t, "hello")
	got, err := Signer("hello", code)
	if err != nil {
		t.Fatalf("Signer: %v", err)
	}
	if got.Hex() != addr {
		t.Fatalf("Signer = %s, want %s", got.Hex(), addr)
	}
}

func TestSignerRejectsMalformedCodes(t *testing.T) {
	t.Parallel()

	for _, code := range []string{"", "0x", "zz", "0x1234", "0x" + strings.Repeat("00", 64) + "09"} {
		if _, err := Signer("hello", code); !errors.Is(err, ErrBadSignature) {
			t.Errorf("Signer(%q) = %v, want ErrBadSignature", code, err)
		}
	}
}
