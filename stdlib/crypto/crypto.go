// Package crypto provides cryptographic primitives for the Lattice
// standard library: content hashing, post-quantum signature
// verification, and secp256k1 recovery.
//
//   - Falcon-512 (lattice-based signatures) — unsupported, see Falcon512Verify
//   - ML-DSA / Dilithium (lattice-based signatures)
//   - SLH-DSA / SPHINCS+ (hash-based signatures)
//   - SHAKE256 and SHA-3 hash functions
package crypto

import (
	"errors"

	"github.com/btcsuite/btcd/btcec"
	"github.com/cloudflare/circl/sign/schemes"
	"golang.org/x/crypto/sha3"
)

// ErrUnsupportedScheme is returned by signature operations this package
// has no implementation for.
var ErrUnsupportedScheme = errors.New("crypto: unsupported signature scheme")

// Hash computes SHA3-256 of the input.
func Hash(data []byte) [32]byte {
	return sha3.Sum256(data)
}

// SHAKE256 computes a variable-length SHAKE256 hash.
func SHAKE256(data []byte, outputLen int) []byte {
	out := make([]byte, outputLen)
	sha3.ShakeSum256(out, data)
	return out
}

// Falcon512Verify verifies a Falcon-512 signature. No library reachable
// from this module implements Falcon, so it always fails with
// ErrUnsupportedScheme rather than silently reporting an invalid
// signature.
func Falcon512Verify(msg, sig, pubkey []byte) (bool, error) {
	return false, ErrUnsupportedScheme
}

// MLDSAVerify verifies an ML-DSA (Dilithium2) signature.
func MLDSAVerify(msg, sig, pubkey []byte) bool {
	return schemeVerify("Dilithium2", msg, sig, pubkey)
}

// SLHDSAVerify verifies an SLH-DSA (SPHINCS+ SHA2-128s-simple) signature.
func SLHDSAVerify(msg, sig, pubkey []byte) bool {
	return schemeVerify("SPHINCS+-SHA2-128s-simple", msg, sig, pubkey)
}

// schemeVerify looks up a registered circl signature scheme by name and
// verifies sig over msg against pubkey. Every scheme this package uses
// (Dilithium, SPHINCS+) shares circl's unified sign.Scheme interface,
// so one helper covers both.
func schemeVerify(name string, msg, sig, pubkey []byte) bool {
	scheme := schemes.ByName(name)
	if scheme == nil {
		return false
	}
	pk, err := scheme.UnmarshalBinaryPublicKey(pubkey)
	if err != nil {
		return false
	}
	return scheme.Verify(pk, msg, sig, nil)
}

// Secp256k1Recover recovers the 20-byte address of the public key that
// produced a 65-byte recoverable signature over hash.
func Secp256k1Recover(hash [32]byte, sig [65]byte) ([20]byte, error) {
	var addr [20]byte
	pub, _, err := btcec.RecoverCompact(btcec.S256(), sig[:], hash[:])
	if err != nil {
		return addr, err
	}
	sum := sha3.Sum256(pub.SerializeUncompressed()[1:])
	copy(addr[:], sum[len(sum)-20:])
	return addr, nil
}
