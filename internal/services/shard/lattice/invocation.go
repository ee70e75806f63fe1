package lattice

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrClaimsInvalid indicates the claims token could not be parsed or its
	// signature does not verify against the issuer key.
	ErrClaimsInvalid = errors.New("invocation claims invalid")
	// ErrClaimsMismatch indicates the claims do not describe this invocation.
	ErrClaimsMismatch = errors.New("invocation claims mismatch")
	// ErrHashMismatch indicates the payload digest differs from the signed one.
	ErrHashMismatch = errors.New("invocation hash mismatch")
)

// Invocation is a signed request from one entity to another.
type Invocation struct {
	Origin        Entity `msgpack:"origin"`
	Target        Entity `msgpack:"target"`
	Operation     string `msgpack:"operation"`
	Msg           []byte `msgpack:"msg"`
	ID            string `msgpack:"id"`
	EncodedClaims string `msgpack:"encoded_claims"`
	HostID        string `msgpack:"host_id"`
}

// InvocationResponse answers an Invocation. Error is nil on success.
type InvocationResponse struct {
	Msg          []byte  `msgpack:"msg"`
	Error        *string `msgpack:"error"`
	InvocationID string  `msgpack:"invocation_id"`
}

// InvocationClaims is the signed portion of an invocation.
type InvocationClaims struct {
	jwt.RegisteredClaims
	Invocation InvocationDetails `json:"invocation"`
}

// InvocationDetails binds the claims to one origin, target and payload.
type InvocationDetails struct {
	TargetURL string `json:"target_url"`
	OriginURL string `json:"origin_url"`
	Hash      string `json:"hash"`
}

// TargetURL returns the target address with the operation appended.
func TargetURL(target Entity, operation string) string {
	return target.Address() + "/" + operation
}

// InvocationHash returns the upper-case hex SHA-256 of originURL, targetURL
// and msg concatenated in that order.
func InvocationHash(originURL, targetURL string, msg []byte) string {
	h := sha256.New()
	h.Write([]byte(originURL))
	h.Write([]byte(targetURL))
	h.Write(msg)
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

// NewInvocation builds an invocation with a fresh UUIDv4 id and claims signed
// by key.
func NewInvocation(key *HostKey, origin, target Entity, operation string, msg []byte) (Invocation, error) {
	return newInvocation(key, origin, target, operation, msg, time.Now())
}

func newInvocation(key *HostKey, origin, target Entity, operation string, msg []byte, now time.Time) (Invocation, error) {
	if key == nil {
		return Invocation{}, errors.New("host key is required")
	}
	id := uuid.NewString()
	originURL := origin.Address()
	targetURL := TargetURL(target, operation)
	claims := InvocationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   key.PublicKey(),
			Subject:  id,
			IssuedAt: jwt.NewNumericDate(now),
			ID:       uuid.NewString(),
		},
		Invocation: InvocationDetails{
			TargetURL: targetURL,
			OriginURL: originURL,
			Hash:      InvocationHash(originURL, targetURL, msg),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(key.private)
	if err != nil {
		return Invocation{}, fmt.Errorf("sign invocation claims: %w", err)
	}
	return Invocation{
		Origin:        origin,
		Target:        target,
		Operation:     operation,
		Msg:           msg,
		ID:            id,
		EncodedClaims: token,
		HostID:        key.PublicKey(),
	}, nil
}

// Verify checks that inv carries claims signed by its host and that those
// claims describe exactly this origin, target, operation and payload.
func Verify(inv Invocation) (*InvocationClaims, error) {
	issuerKey, err := issuerPublicKey(inv.HostID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	}
	claims := &InvocationClaims{}
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}))
	if _, err := parser.ParseWithClaims(inv.EncodedClaims, claims, func(*jwt.Token) (any, error) {
		return issuerKey, nil
	}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClaimsInvalid, err)
	}

	switch {
	case claims.Issuer != inv.HostID:
		return nil, fmt.Errorf("%w: issuer %q, host %q", ErrClaimsMismatch, claims.Issuer, inv.HostID)
	case claims.Subject != inv.ID:
		return nil, fmt.Errorf("%w: subject %q, id %q", ErrClaimsMismatch, claims.Subject, inv.ID)
	case claims.Invocation.OriginURL != inv.Origin.Address():
		return nil, fmt.Errorf("%w: origin %q", ErrClaimsMismatch, claims.Invocation.OriginURL)
	case claims.Invocation.TargetURL != TargetURL(inv.Target, inv.Operation):
		return nil, fmt.Errorf("%w: target %q", ErrClaimsMismatch, claims.Invocation.TargetURL)
	}
	if InvocationHash(claims.Invocation.OriginURL, claims.Invocation.TargetURL, inv.Msg) != claims.Invocation.Hash {
		return nil, ErrHashMismatch
	}
	return claims, nil
}

// Respond builds a successful response to inv.
func Respond(inv Invocation, msg []byte) InvocationResponse {
	return InvocationResponse{Msg: msg, InvocationID: inv.ID}
}

// RespondError builds a failed response to inv.
func RespondError(inv Invocation, message string) InvocationResponse {
	return InvocationResponse{Msg: []byte{}, Error: &message, InvocationID: inv.ID}
}
