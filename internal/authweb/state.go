package authweb

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	stateIssuer = "clawgram"
	stateTTL    = 10 * time.Minute
)

var errInvalidState = errors.New("invalid state")

// stateClaims bind a login link to the chat that requested it.
type stateClaims struct {
	jwt.RegisteredClaims
}

func (c *stateClaims) chatID() (int64, error) {
	chatID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse subject: %w", err)
	}

	return chatID, nil
}

type stateSigner struct {
	secret []byte
	now    func() time.Time
}

func newStateSigner(secret string) *stateSigner {
	return &stateSigner{
		secret: []byte(secret),
		now:    time.Now,
	}
}

func (s *stateSigner) issue(chatID int64) (string, error) {
	now := s.now()

	claims := stateClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(chatID, 10),
			Issuer:    stateIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(stateTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign state: %w", err)
	}

	return signed, nil
}

func (s *stateSigner) verify(state string) (*stateClaims, error) {
	token, err := jwt.ParseWithClaims(state, &stateClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithIssuer(stateIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("parse state: %w", err)
	}

	claims, ok := token.Claims.(*stateClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, errInvalidState
	}

	return claims, nil
}
