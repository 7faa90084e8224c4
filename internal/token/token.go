package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Report links are signed so the public report endpoint can trust the
// {userId, challengeId, date} triple without a session.

const reportTokenTTL = 48 * time.Hour

type ReportClaims struct {
	ChallengeID string `json:"cid"`
	Date        string `json:"date"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret)}
}

func (s *Signer) SignReport(userID, challengeID, date string, now time.Time) (string, error) {
	claims := ReportClaims{
		ChallengeID: challengeID,
		Date:        date,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(reportTokenTTL)),
		},
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign report token: %w", err)
	}
	return signed, nil
}

// VerifyReport validates the signature and expiry and returns the bound
// {userID, challengeID, date}.
func (s *Signer) VerifyReport(tokenString string) (userID, challengeID, date string, err error) {
	claims := &ReportClaims{}
	_, err = jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", "", "", fmt.Errorf("invalid report token: %w", err)
	}
	return claims.Subject, claims.ChallengeID, claims.Date, nil
}
