// Package token implements the stateless session state codec: progress is
// never stored server-side, it travels as a signed, versioned, opaque
// token the caller echoes back each round trip.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rendis/intake/pkg/schema"
)

// Version is the current token payload version. Tokens carrying any other
// version are rejected outright.
const Version = 1

const issuer = "intake"

// State is the payload of one round trip: which interview, the seed
// context supplied at start, and the consumed answer history. Everything
// else is recomputed by replay.
type State struct {
	Interview string               `json:"interview"`
	Seed      map[string]any       `json:"seed,omitempty"`
	History   schema.AnswerHistory `json:"history"`
}

type stateClaims struct {
	Version   int                  `json:"v"`
	Interview string               `json:"interview"`
	Seed      map[string]any       `json:"seed,omitempty"`
	History   schema.AnswerHistory `json:"history"`
	jwt.RegisteredClaims
}

// Codec signs and verifies state tokens with a server-held secret.
type Codec struct {
	secret []byte
	ttl    time.Duration
}

// NewCodec creates a Codec. The secret must not be empty; ttl bounds how
// long an abandoned interview can be resumed.
func NewCodec(secret []byte, ttl time.Duration) (*Codec, error) {
	if len(secret) == 0 {
		return nil, schema.NewError(schema.ErrCodeDefinition, "token secret is empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Codec{secret: secret, ttl: ttl}, nil
}

// Encode signs a state into an opaque token string.
func (c *Codec) Encode(st *State) (string, error) {
	now := time.Now()
	claims := stateClaims{
		Version:   Version,
		Interview: st.Interview,
		Seed:      st.Seed,
		History:   st.History,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", schema.NewError(schema.ErrCodeIntegrity, "sign state token").WithCause(err)
	}
	return signed, nil
}

// Decode verifies a token and returns its state. Any signature, version,
// or expiry failure is an INTEGRITY_ERROR; no field of an unverified
// payload is ever returned.
func (c *Codec) Decode(s string) (*State, error) {
	var claims stateClaims
	parsed, err := jwt.ParseWithClaims(s, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return c.secret, nil
	}, jwt.WithIssuer(issuer))

	switch {
	case err != nil && errors.Is(err, jwt.ErrTokenExpired):
		return nil, schema.NewError(schema.ErrCodeIntegrity, "state token has expired; restart the interview").
			WithCause(err)
	case err != nil:
		return nil, schema.NewError(schema.ErrCodeIntegrity, "state token is invalid").WithCause(err)
	case !parsed.Valid:
		return nil, schema.NewError(schema.ErrCodeIntegrity, "state token is invalid")
	}

	if claims.Version != Version {
		return nil, schema.NewErrorf(schema.ErrCodeIntegrity, "unsupported state token version %d", claims.Version)
	}

	history := claims.History
	if history == nil {
		history = schema.AnswerHistory{}
	}
	return &State{
		Interview: claims.Interview,
		Seed:      claims.Seed,
		History:   history,
	}, nil
}
