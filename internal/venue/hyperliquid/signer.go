package hyperliquid

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// EIP-712 type hashes (pre-computed keccak256 of the type strings).
var (
	// keccak256("EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)")
	eip712DomainTypeHash = crypto.Keccak256Hash([]byte(
		"EIP712Domain(string name,string version,uint256 chainId,address verifyingContract)",
	))

	// keccak256("Agent(string source,bytes32 connectionId)")
	agentTypeHash = crypto.Keccak256Hash([]byte(
		"Agent(string source,bytes32 connectionId)",
	))
)

// The venue signs L1 actions under a fixed "Exchange" domain with chain id
// 1337 and a zero verifying contract, regardless of network.
var exchangeDomainHash = crypto.Keccak256Hash(
	eip712DomainTypeHash.Bytes(),
	crypto.Keccak256([]byte("Exchange")),
	crypto.Keccak256([]byte("1")),
	common.LeftPadBytes(big.NewInt(1337).Bytes(), 32),
	common.LeftPadBytes(common.Address{}.Bytes(), 32),
)

// rsvSignature is the signature encoding the venue expects.
type rsvSignature struct {
	R string `json:"r" msgpack:"r"`
	S string `json:"s" msgpack:"s"`
	V uint8  `json:"v" msgpack:"v"`
}

// Signer produces venue action signatures. The private key lives in a
// memguard Enclave, encrypted at rest and opened momentarily per signature.
type Signer struct {
	enclave *memguard.Enclave
	address common.Address
	source  string // agent source: "a" mainnet, "b" testnet
}

// NewSigner seals the given hex-encoded private key into an enclave and
// derives the account address. The key material passed in is wiped by
// memguard when sealed.
func NewSigner(privateKeyHex string, testnet bool) (*Signer, error) {
	keyBytes, err := hex.DecodeString(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}

	// Derive the address before sealing the key.
	privKey, err := crypto.ToECDSA(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	addr := crypto.PubkeyToAddress(privKey.PublicKey)

	source := "a"
	if testnet {
		source = "b"
	}

	return &Signer{
		enclave: memguard.NewEnclave(keyBytes),
		address: addr,
		source:  source,
	}, nil
}

// Address returns the account address derived from the signing key.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignAction signs the msgpack-encoded action for the given nonce. The
// digest is the EIP-712 hash of a phantom Agent struct whose connectionId
// commits to the action bytes and nonce.
func (s *Signer) SignAction(actionPack []byte, nonce uint64) (rsvSignature, error) {
	connectionID := actionHash(actionPack, nonce)
	digest := eip712Digest(exchangeDomainHash, hashAgent(s.source, connectionID))

	buf, err := s.enclave.Open()
	if err != nil {
		return rsvSignature{}, fmt.Errorf("open enclave: %w", err)
	}

	privKey, err := crypto.ToECDSA(buf.Bytes())
	buf.Destroy()
	if err != nil {
		return rsvSignature{}, fmt.Errorf("parse private key: %w", err)
	}

	sig, err := crypto.Sign(digest[:], privKey)
	if err != nil {
		return rsvSignature{}, fmt.Errorf("ecdsa sign: %w", err)
	}

	return rsvSignature{
		R: "0x" + hex.EncodeToString(sig[:32]),
		S: "0x" + hex.EncodeToString(sig[32:64]),
		V: sig[64] + 27, // 0/1 → 27/28
	}, nil
}

// actionHash computes keccak256(actionPack || nonce || vault flag). This
// terminal never signs on behalf of a vault, so the flag is always 0x00.
func actionHash(actionPack []byte, nonce uint64) common.Hash {
	var nonceBytes [8]byte
	binary.BigEndian.PutUint64(nonceBytes[:], nonce)
	return crypto.Keccak256Hash(actionPack, nonceBytes[:], []byte{0x00})
}

// hashAgent computes the EIP-712 struct hash for the phantom Agent.
func hashAgent(source string, connectionID common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		agentTypeHash.Bytes(),
		crypto.Keccak256([]byte(source)),
		connectionID.Bytes(),
	)
}

// eip712Digest computes the final EIP-712 signing digest:
// keccak256("\x19\x01" || domainSeparator || structHash)
func eip712Digest(domainHash, structHash common.Hash) common.Hash {
	return crypto.Keccak256Hash(
		[]byte{0x19, 0x01},
		domainHash.Bytes(),
		structHash.Bytes(),
	)
}
