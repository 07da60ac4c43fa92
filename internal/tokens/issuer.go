package tokens

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer signs HS256 access and refresh tokens.
type Issuer struct {
	AccessSecret  []byte
	RefreshSecret []byte
	Now           func() time.Time
}

type Pair struct {
	AccessToken  string
	RefreshToken string
	RefreshJTI   string
	AccessExp    time.Time
	RefreshExp   time.Time
}

func (i *Issuer) now() time.Time {
	if i.Now != nil {
		return i.Now()
	}
	return time.Now().UTC()
}

func (i *Issuer) CreateAccessToken(subject, role string, exp time.Time) (string, error) {
	claims := AccessClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.AccessSecret)
}

func (i *Issuer) CreateRefreshToken(subject, role, jti string, exp time.Time) (string, error) {
	claims := RefreshClaims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(i.now()),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.RefreshSecret)
}

func (i *Issuer) IssuePair(subject, role string) (*Pair, error) {
	now := i.now()
	accessExp := now.Add(AccessTTL)
	refreshExp := now.Add(RefreshTTL)

	access, err := i.CreateAccessToken(subject, role, accessExp)
	if err != nil {
		return nil, err
	}
	jti := NewJTI()
	refresh, err := i.CreateRefreshToken(subject, role, jti, refreshExp)
	if err != nil {
		return nil, err
	}

	return &Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		RefreshJTI:   jti,
		AccessExp:    accessExp,
		RefreshExp:   refreshExp,
	}, nil
}
