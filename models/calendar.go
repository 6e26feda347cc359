package models

import (
	"crypto/rsa"
	"fmt"
	"time"

	"github.com/convene-events/convene/internal/crypto"
	"github.com/convene-events/convene/internal/snowflake"
	"gorm.io/gorm"
)

// A Calendar is a locally hosted calendar. Each calendar is a Group actor
// with its own keypair; remote servers follow the calendar, not its editors.
type Calendar struct {
	ID         snowflake.ID `gorm:"primarykey;autoIncrement:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Name       string     `gorm:"size:64;not null"`
	URLName    string     `gorm:"size:16;uniqueIndex:idx_calendar_urlname_domain;not null"`
	Domain     string     `gorm:"size:64;uniqueIndex:idx_calendar_urlname_domain;not null"`
	PublicKey  []byte     `gorm:"not null"`
	PrivateKey []byte     `gorm:"not null"`
	Editors    []*Account `gorm:"many2many:calendar_editors;"`
}

// ActorURI returns the dereferenceable URI identifying this calendar's
// Group actor.
func (c *Calendar) ActorURI() string {
	return fmt.Sprintf("https://%s/calendars/%s", c.Domain, c.URLName)
}

func (c *Calendar) InboxURL() string {
	return c.ActorURI() + "/inbox"
}

func (c *Calendar) OutboxURL() string {
	return c.ActorURI() + "/outbox"
}

func (c *Calendar) FollowersURL() string {
	return c.ActorURI() + "/followers"
}

// EditorsURL returns the URI of the calendar's editors collection.
func (c *Calendar) EditorsURL() string {
	return c.ActorURI() + "/editors"
}

// PublicKeyID returns the id under which the calendar's key is published.
func (c *Calendar) PublicKeyID() string {
	return c.ActorURI() + "#main-key"
}

// PrivKey returns the calendar's parsed private key for request signing.
func (c *Calendar) PrivKey() (*rsa.PrivateKey, error) {
	_, priv, err := crypto.ParseRSAPrivateKey(c.PrivateKey)
	return priv, err
}

type Calendars struct {
	db *gorm.DB
}

func NewCalendars(db *gorm.DB) *Calendars {
	return &Calendars{db: db}
}

// Create creates a calendar with a fresh keypair, owned by the given
// account as its first editor.
func (c *Calendars) Create(owner *Account, name, urlName, domain string) (*Calendar, error) {
	keypair, err := crypto.GenerateRSAKeypair()
	if err != nil {
		return nil, err
	}
	calendar := &Calendar{
		ID:         snowflake.Now(),
		Name:       name,
		URLName:    urlName,
		Domain:     domain,
		PublicKey:  keypair.PublicKey,
		PrivateKey: keypair.PrivateKey,
		Editors:    []*Account{owner},
	}
	return calendar, c.db.Create(calendar).Error
}

// Find finds a calendar by its url name and domain.
func (c *Calendars) Find(urlName, domain string) (*Calendar, error) {
	var calendar Calendar
	return &calendar, c.db.Where("url_name = ? AND domain = ?", urlName, domain).Take(&calendar).Error
}

// FindByID finds a calendar by its id.
func (c *Calendars) FindByID(id snowflake.ID) (*Calendar, error) {
	var calendar Calendar
	return &calendar, c.db.Take(&calendar, "id = ?", id).Error
}

// IsEditor reports whether the account has edit rights on the calendar.
func (c *Calendars) IsEditor(calendar *Calendar, account *Account) (bool, error) {
	var editors []Account
	if err := c.db.Model(calendar).Association("Editors").Find(&editors, "accounts.id = ?", account.ID); err != nil {
		return false, err
	}
	return len(editors) > 0, nil
}

// AddEditor grants the account edit rights on the calendar.
func (c *Calendars) AddEditor(calendar *Calendar, account *Account) error {
	return c.db.Model(calendar).Association("Editors").Append(account)
}
