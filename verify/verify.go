// Package verify checks signed check-in codes.
//
// A code is the participant wallet's EIP-191 personal_sign signature over
// Payload(eventID, participantID), rendered as hex. Scanning it at the door
// proves the holder of the wallet produced it for this event.
package verify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrBadSignature means the code is not a well-formed recoverable signature.
var ErrBadSignature = errors.New("verify: bad signature")

// Payload is the message a participant signs for eventID.
func Payload(eventID int64, participantID string) string {
	return fmt.Sprintf("eventscout check-in\nevent: %d\nparticipant: %s", eventID, strings.ToLower(participantID))
}

// Signer recovers the address that signed msg.
func Signer(msg, code string) (common.Address, error) {
	if !strings.HasPrefix(code, "0x") && !strings.HasPrefix(code, "0X") {
		code = "0x" + code
	}
	sig, err := hexutil.Decode(code)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: want %d bytes, got %d", ErrBadSignature, crypto.SignatureLength, len(sig))
	}
	// Wallets emit v as 27/28.
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}
	if sig[crypto.RecoveryIDOffset] > 1 {
		return common.Address{}, fmt.Errorf("%w: recovery id %d", ErrBadSignature, sig[crypto.RecoveryIDOffset])
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(msg)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// CheckInCode reports whether code was signed for eventID by the wallet
// participantID names. A participant id that is not a hex address never
// verifies.
func CheckInCode(eventID int64, participantID, code string) (bool, error) {
	if !common.IsHexAddress(participantID) {
		return false, nil
	}
	signer, err := Signer(Payload(eventID, participantID), code)
	if err != nil {
		return false, err
	}
	return signer == common.HexToAddress(participantID), nil
}
