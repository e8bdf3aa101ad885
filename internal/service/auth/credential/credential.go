package service_credential

import (
	"errors"
	"fmt"
	"os"
	"time"

	jwt "github.com/dgrijalva/jwt-go"
	"github.com/humanbelnik/storypoker/internal/model"
)

var (
	ErrInvalidCredential = errors.New("invalid credential")
	ErrNoSecret          = errors.New("credential secret is not configured")
)

type claims struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
	jwt.StandardClaims
}

// Service mints and checks member access credentials. A credential never expires:
// it lives as long as the member does.
type Service struct {
	secret []byte
	now    func() time.Time
}

func New(
	secret *string,
) *Service {
	if secret == nil {
		secret = func() *string {
			secret := os.Getenv("AUTH_SECRET")
			return &secret
		}()
	}

	return &Service{
		secret: []byte(*secret),
		now:    time.Now,
	}
}

func (s *Service) Mint(memberID, name, roomID string) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrNoSecret
	}
	if memberID == "" || roomID == "" {
		return "", fmt.Errorf("%w: member and room are required", ErrInvalidCredential)
	}

	c := &claims{
		ID:     memberID,
		Name:   name,
		RoomID: roomID,
		StandardClaims: jwt.StandardClaims{
			IssuedAt: s.now().Unix(),
			Subject:  memberID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	return token.SignedString(s.secret)
}

func (s *Service) Parse(credential string) (model.Viewer, error) {
	if credential == "" {
		return model.Viewer{}, ErrInvalidCredential
	}
	if len(s.secret) == 0 {
		return model.Viewer{}, errors.Join(ErrInvalidCredential, ErrNoSecret)
	}

	c := &claims{}
	token, err := jwt.ParseWithClaims(credential, c, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return model.Viewer{}, errors.Join(ErrInvalidCredential, err)
	}
	if !token.Valid || c.ID == "" || c.RoomID == "" {
		return model.Viewer{}, ErrInvalidCredential
	}

	return model.Viewer{
		MemberID: c.ID,
		Name:     c.Name,
		RoomID:   c.RoomID,
	}, nil
}
