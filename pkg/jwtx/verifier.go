package jwtx

import (
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verifier validates a JWT and gives you back the claims if it's legit.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// VerifyOptions captures common expectations used by verifiers.
type VerifyOptions struct {
	// Issuer the token must have (claims.iss). Empty means "don't care".
	Issuer string

	// Audience values the token must contain (claims.aud). Empty means "don't care".
	Audience []string

	// Leeway allows small clock skew when validating exp/nbf/iat.
	Leeway time.Duration
}

var (
	ErrMalformed   = errors.New("jwtx: malformed token")
	ErrAlgMismatch = errors.New("jwtx: algorithm mismatch")
	ErrUnknownKID  = errors.New("jwtx: unknown kid")
	ErrInvalidSig  = errors.New("jwtx: invalid signature")

	ErrIssuer       = errors.New("jwtx: issuer mismatch")
	ErrAudience     = errors.New("jwtx: audience mismatch")
	ErrExpired      = errors.New("jwtx: token expired")
	ErrNotYetValid  = errors.New("jwtx: token not yet valid")
	ErrInvalidClaim = errors.New("jwtx: invalid claims")
)

// ProviderVerifier checks tokens minted by the auth provider. Asymmetric
// tokens (ES256, RS256, EdDSA) are checked against the JWKS loaded into keys.
// Projects still on the legacy shared secret sign with HS256, which is only
// accepted when a secret was configured.
type ProviderVerifier struct {
	opts   VerifyOptions
	keys   *KeySet
	secret []byte
	parser *jwt.Parser
}

var _ Verifier = (*ProviderVerifier)(nil)

// NewVerifier builds a ProviderVerifier. keys may be nil when only a shared
// secret is in use, secret may be nil when only JWKS is in use. Both nil
// means every token is rejected.
func NewVerifier(opts VerifyOptions, keys *KeySet, secret []byte) *ProviderVerifier {
	methods := []string{
		jwt.SigningMethodES256.Alg(),
		jwt.SigningMethodRS256.Alg(),
		jwt.SigningMethodEdDSA.Alg(),
	}
	if len(secret) > 0 {
		methods = append(methods, jwt.SigningMethodHS256.Alg())
	}

	return &ProviderVerifier{
		opts:   opts,
		keys:   keys,
		secret: secret,
		parser: jwt.NewParser(
			jwt.WithValidMethods(methods),
			jwt.WithLeeway(opts.Leeway),
			jwt.WithExpirationRequired(),
		),
	}
}

// Verify validates tokenStr and returns its claims.
func (v *ProviderVerifier) Verify(tokenStr string) (Claims, error) {
	claims := &Claims{}
	token, err := v.parser.ParseWithClaims(tokenStr, claims, v.keyFunc)
	if err != nil {
		return Claims{}, mapParseError(err)
	}
	if !token.Valid {
		return Claims{}, ErrInvalidClaim
	}

	if err := claims.ValidateIssuer(v.opts.Issuer); err != nil {
		return Claims{}, err
	}
	if err := claims.ValidateAudience(v.opts.Audience); err != nil {
		return Claims{}, err
	}
	if claims.Subject == "" {
		return Claims{}, fmt.Errorf("%w: missing sub", ErrInvalidClaim)
	}

	return *claims, nil
}

func (v *ProviderVerifier) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); ok {
		if len(v.secret) == 0 {
			return nil, ErrAlgMismatch
		}
		return v.secret, nil
	}

	if v.keys == nil {
		return nil, ErrUnknownKID
	}

	kid, _ := t.Header["kid"].(string)
	if kid == "" {
		return nil, fmt.Errorf("%w: missing kid", ErrUnknownKID)
	}
	pub, err := v.keys.Get(kid)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrUnknownKID, kid)
	}

	// The key type has to line up with the alg in the header, otherwise an
	// attacker could pick the verification path.
	switch t.Method.(type) {
	case *jwt.SigningMethodECDSA:
		if k, ok := pub.(*ecdsa.PublicKey); ok {
			return k, nil
		}
	case *jwt.SigningMethodRSA:
		if k, ok := pub.(*rsa.PublicKey); ok {
			return k, nil
		}
	case *jwt.SigningMethodEd25519:
		if k, ok := pub.(ed25519.PublicKey); ok {
			return k, nil
		}
	}
	return nil, ErrAlgMismatch
}

func mapParseError(err error) error {
	switch {
	case errors.Is(err, ErrAlgMismatch), errors.Is(err, ErrUnknownKID):
		return err
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpired
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return ErrNotYetValid
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSig
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrAlgMismatch
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing), errors.Is(err, jwt.ErrTokenInvalidClaims):
		return fmt.Errorf("%w: %v", ErrInvalidClaim, err)
	default:
		return fmt.Errorf("jwtx: parse or verify: %w", err)
	}
}
