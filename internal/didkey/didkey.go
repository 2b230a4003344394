// Package didkey implements the key and signature primitives behind DIDs and
// credential proofs: ECDSA P-256 keypairs, did:key derivation, canonical-JSON
// signing and verification, content-hash identifiers, and the selective
// disclosure commitment.
//
// Everything here is a pure function over its inputs (plus crypto/rand
// consumption); no state, no storage.
package didkey

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
)

// DIDPrefix is the fixed prefix of every derived identifier.
const DIDPrefix = "did:key:z"

// Method is the DID method tag for identifiers minted by this service.
const Method = "key"

// didHashLen is the number of hex characters of the public key hash kept in
// the identifier. The format is fixed for compatibility: changing it would
// orphan every previously derived DID.
const didHashLen = 32

// cidHashLen is the number of hex characters in a fabricated content ID.
const cidHashLen = 44

// GenerateKeyPair produces a fresh ECDSA P-256 keypair. Both halves are
// returned as opaque hex-encoded DER strings (PKIX for the public key, SEC 1
// for the private key) so stores and transports never handle raw key types.
func GenerateKeyPair() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate p-256 key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return "", "", fmt.Errorf("marshal public key: %w", err)
	}
	privDER, err := x509.MarshalECPrivateKey(key)
	if err != nil {
		return "", "", fmt.Errorf("marshal private key: %w", err)
	}

	return hex.EncodeToString(pubDER), hex.EncodeToString(privDER), nil
}

// DeriveDID computes the identifier string for a serialized public key:
// "did:key:z" followed by the first 32 hex characters of SHA-256 over the
// serialized key. Deterministic: the same public key always yields the same
// DID, so a hash collision surfaces as a uniqueness violation at the store.
func DeriveDID(publicKey string) string {
	sum := sha256.Sum256([]byte(publicKey))
	return DIDPrefix + hex.EncodeToString(sum[:])[:didHashLen]
}

// Sign canonicalizes payload to JSON, hashes it with SHA-256, and signs the
// digest with the serialized private key. The signature is returned as
// hex-encoded ASN.1 DER.
func Sign(payload any, privateKey string) (string, error) {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}

	privDER, err := hex.DecodeString(privateKey)
	if err != nil {
		return "", fmt.Errorf("decode private key: %w", err)
	}
	key, err := x509.ParseECPrivateKey(privDER)
	if err != nil {
		return "", fmt.Errorf("parse private key: %w", err)
	}

	digest := sha256.Sum256(canonical)
	sig, err := ecdsa.SignASN1(rand.Reader, key, digest[:])
	if err != nil {
		return "", fmt.Errorf("sign payload: %w", err)
	}
	return hex.EncodeToString(sig), nil
}

// Verify re-canonicalizes payload exactly as Sign does and checks the
// hex-encoded signature against the serialized public key.
//
// Verify is total: malformed hex, malformed key material, a non-ECDSA key, a
// wrong curve, and a bad signature all degrade to false. Every input gets a
// verdict, never a panic or an error.
func Verify(payload any, signatureHex, publicKey string) bool {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return false
	}

	sig, err := hex.DecodeString(signatureHex)
	if err != nil {
		return false
	}

	pubDER, err := hex.DecodeString(publicKey)
	if err != nil {
		return false
	}
	parsed, err := x509.ParsePKIXPublicKey(pubDER)
	if err != nil {
		return false
	}
	key, ok := parsed.(*ecdsa.PublicKey)
	if !ok {
		return false
	}

	digest := sha256.Sum256(canonical)
	return ecdsa.VerifyASN1(key, digest[:], sig)
}

// ContentHash produces a CID-shaped identifier for a payload: "Qm" followed
// by the first 44 hex characters of SHA-256 over the canonical JSON. The
// value is illustrative, not a real content-addressed identifier, but the
// shape is relied on by consumers and must not change.
func ContentHash(payload any) (string, error) {
	canonical, err := CanonicalJSON(payload)
	if err != nil {
		return "", fmt.Errorf("canonicalize payload: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return "Qm" + hex.EncodeToString(sum[:])[:cidHashLen], nil
}
