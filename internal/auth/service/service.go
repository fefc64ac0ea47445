package service

import (
	"time"

	"leadline_backend/platform/apperr"
	"leadline_backend/platform/config"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when the device secret does not match.
var ErrInvalidCredentials = apperr.Unauthorized("invalid credentials")

const deviceTokenType = "device"

// Service issues device bearer tokens. Devices are provisioned out of band
// with a shared secret; only the bcrypt hash of that secret is configured
// server-side.
type Service struct {
	cfg config.DeviceAuthConfig
}

func New(cfg config.DeviceAuthConfig) *Service {
	return &Service{cfg: cfg}
}

// IssueToken verifies the device secret and returns a signed JWT plus its
// expiry time.
func (s *Service) IssueToken(deviceID, deviceSecret string) (string, time.Time, error) {
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.GetDeviceSecretHash()), []byte(deviceSecret)); err != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.GetDeviceTokenTTL())

	claims := jwt.MapClaims{
		"sub":  deviceID,
		"type": deviceTokenType,
		"exp":  expiresAt.Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tokenObj.SignedString([]byte(s.cfg.GetDeviceJWTSecret()))
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindInternal, "sign device token", err)
	}

	return signed, expiresAt, nil
}
