package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Outcome is the result of verifying a token.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomeExpired Outcome = "expired"
	OutcomeInvalid Outcome = "invalid"
)

// Token purposes. A token issued for one purpose never verifies under
// another because the signing key is derived from the purpose string.
const (
	PurposeMagicLink    = "magic-link"
	PurposeStaffSession = "staff-session"
)

// Magic-link lifetimes used by the two patient-facing call sites.
const (
	FormLinkMaxAge       = 1 * time.Hour
	RescheduleLinkMaxAge = 48 * time.Hour
)

const issuedAtClaim = "iat"

// Codec issues and verifies signed, time-limited, payload-carrying tokens.
// Validity is fully determined by the signature and elapsed time; there is
// no server-side state and no revocation.
type Codec struct {
	secret []byte
	now    func() time.Time
}

func NewCodec(secret string) *Codec {
	return &Codec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// signingKey scopes the server secret by purpose so token classes cannot be
// replayed across call sites.
func (c *Codec) signingKey(purpose string) []byte {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(purpose))
	return mac.Sum(nil)
}

// Issue serializes payload together with the issuance time and signs it with
// the purpose-scoped key. The result is URL-safe.
func (c *Codec) Issue(payload map[string]string, purpose string) (string, error) {
	claims := jwt.MapClaims{}
	for k, v := range payload {
		if k == issuedAtClaim {
			return "", fmt.Errorf("payload key %q is reserved", k)
		}
		claims[k] = v
	}
	claims[issuedAtClaim] = jwt.NewNumericDate(c.now())

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.signingKey(purpose))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks the signature and then the age of the token. The signature
// check always runs first and is independent of maxAge, so a forged token is
// reported invalid, never expired. A payload that is not a flat mapping of
// string values is invalid.
func (c *Codec) Verify(tok, purpose string, maxAge time.Duration) (map[string]string, Outcome) {
	parsed, err := jwt.Parse(tok,
		func(*jwt.Token) (interface{}, error) { return c.signingKey(purpose), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil || !parsed.Valid {
		return nil, OutcomeInvalid
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, OutcomeInvalid
	}
	issued, err := claims.GetIssuedAt()
	if err != nil || issued == nil {
		return nil, OutcomeInvalid
	}

	payload := make(map[string]string, len(claims)-1)
	for k, v := range claims {
		if k == issuedAtClaim {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return nil, OutcomeInvalid
		}
		payload[k] = s
	}

	if c.now().Sub(issued.Time) > maxAge {
		return nil, OutcomeExpired
	}
	return payload, OutcomeOK
}
