package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/convene-events/convene/internal/snowflake"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// An Account is an authenticated end user. Its actor form is a Person; a
// person acts as an editor of one or more calendars.
type Account struct {
	ID                snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Name              string `gorm:"size:16;uniqueIndex:idx_account_name_domain;not null"`
	Domain            string `gorm:"size:64;uniqueIndex:idx_account_name_domain;not null"`
	Email             string `gorm:"size:64;not null"`
	EncryptedPassword []byte `gorm:"size:60;not null"`
	Admin             bool   `gorm:"not null;default:false"`
}

// ActorURI returns the dereferenceable URI identifying this account's
// person actor. Actor equality is by URI.
func (a *Account) ActorURI() string {
	return fmt.Sprintf("https://%s/users/%s", a.Domain, a.Name)
}

// IsPersonActorURI reports whether uri has the shape of a person actor.
// The decision is by URI shape, not by a database lookup.
func IsPersonActorURI(uri string) bool {
	return strings.Contains(uri, "/users/")
}

type Accounts struct {
	db *gorm.DB
}

func NewAccounts(db *gorm.DB) *Accounts {
	return &Accounts{db: db}
}

// Create creates a local account with a bcrypt hashed password.
func (a *Accounts) Create(name, domain, email, password string) (*Account, error) {
	passwd, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	account := &Account{
		ID:                snowflake.Now(),
		Name:              name,
		Domain:            domain,
		Email:             email,
		EncryptedPassword: passwd,
	}
	return account, a.db.Create(account).Error
}

// FindByActorURI returns the account whose person actor has the given URI.
func (a *Accounts) FindByActorURI(uri string) (*Account, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, err
	}
	name, ok := strings.CutPrefix(u.Path, "/users/")
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	var account Account
	return &account, a.db.Where("name = ? AND domain = ?", name, u.Host).Take(&account).Error
}
