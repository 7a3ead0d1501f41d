package models

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
	"time"
)

const (
	privateKeyPrefix  = "EBee_"
	privateKeyLength  = 32
	privateKeyCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// User is an account created by a face scan login
type User struct {
	ID          string    `json:"id"`
	FaceKey     string    `json:"-"` // Never serialize
	PrivateKey  string    `json:"privateKey"`
	FaceScanned bool      `json:"faceScanned"`
	Profile     Profile   `json:"profile"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Profile holds the user-editable profile fields
type Profile struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	ProfileImage string    `json:"profileImage"`
	JoinedDate   time.Time `json:"joinedDate"`
}

// MaskedPrivateKey returns the key prefix for logging
func (u *User) MaskedPrivateKey() string {
	if len(u.PrivateKey) < 10 {
		return "***"
	}
	return u.PrivateKey[:10] + "..."
}

// Session is a login session bound to a user
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// IsExpired checks if the session TTL has elapsed
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// TimeRemaining returns the duration until expiry (0 if expired)
func (s *Session) TimeRemaining() time.Duration {
	remaining := time.Until(s.ExpiresAt)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GenerateSessionToken creates a cryptographically random 48-char hex token
func GenerateSessionToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// GeneratePrivateKey creates an "EBee_" prefixed key with 32 alphanumeric chars
func GeneratePrivateKey() (string, error) {
	buf := make([]byte, privateKeyLength)
	max := big.NewInt(int64(len(privateKeyCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = privateKeyCharset[n.Int64()]
	}
	return privateKeyPrefix + string(buf), nil
}

// ThemeMode is the UI colour scheme persisted per user
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// Valid reports whether m is a known theme
func (m ThemeMode) Valid() bool {
	return m == ThemeLight || m == ThemeDark
}

// LoginRequest is the body of a face login
type LoginRequest struct {
	FaceData string `json:"faceData"`
}

// LoginResponse is returned after a successful login
type LoginResponse struct {
	PrivateKey string    `json:"privateKey"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expiresAt"`
	User       *User     `json:"user"`
	NewUser    bool      `json:"newUser"`
}

// UpdateProfileRequest carries profile edits; nil fields are left unchanged
type UpdateProfileRequest struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Bio          *string `json:"bio,omitempty"`
	ProfileImage *string `json:"profileImage,omitempty"`
}

// ThemeRequest is the body of a theme update
type ThemeRequest struct {
	Mode ThemeMode `json:"mode"`
}
