package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/convene-events/convene/internal/snowflake"
	"gorm.io/gorm"
)

// A Token is a bearer token issued by the session layer. The federation
// core only reads tokens; issuing and revoking them belongs to the
// authentication service.
type Token struct {
	AccessToken string `gorm:"size:64;primarykey"`
	CreatedAt   time.Time
	AccountID   snowflake.ID `gorm:"not null"`
	Account     *Account     `gorm:"constraint:OnDelete:CASCADE;<-:create;"`
}

type Tokens struct {
	db *gorm.DB
}

func NewTokens(db *gorm.DB) *Tokens {
	return &Tokens{db: db}
}

// Create issues a new bearer token for the account.
func (t *Tokens) Create(account *Account) (*Token, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	token := &Token{
		AccessToken: hex.EncodeToString(buf),
		AccountID:   account.ID,
		Account:     account,
	}
	return token, t.db.Create(token).Error
}

// FindByAccessToken returns the token and its account.
func (t *Tokens) FindByAccessToken(accessToken string) (*Token, error) {
	var token Token
	return &token, t.db.Joins("Account").Take(&token, "access_token = ?", accessToken).Error
}
