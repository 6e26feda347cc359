// Package webfinger resolves short handles of the form name@domain to
// canonical actor profile URLs.
//
// Two handle shapes are recognised: a person handle carries a leading @
// (@alice@example.com), a calendar handle does not (music@example.com).
package webfinger

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/carlmjohnson/requests"
)

// Kind classifies the shape of a parsed handle.
type Kind int

const (
	KindUnknown Kind = iota
	KindPerson
	KindCalendar
)

func (k Kind) String() string {
	switch k {
	case KindPerson:
		return "person"
	case KindCalendar:
		return "calendar"
	default:
		return "unknown"
	}
}

var (
	nameRE   = regexp.MustCompile(`^[a-z0-9_]{3,16}$`)
	domainRE = regexp.MustCompile(`^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,}$`)
)

// ValidName reports whether name is an acceptable handle name.
func ValidName(name string) bool {
	return nameRE.MatchString(name)
}

// ValidDomain reports whether domain matches the DNS label grammar.
func ValidDomain(domain string) bool {
	return domainRE.MatchString(strings.ToLower(domain))
}

// Valid reports whether identifier is a well formed name@domain pair.
func Valid(identifier string) bool {
	name, domain, ok := strings.Cut(identifier, "@")
	return ok && ValidName(name) && ValidDomain(domain)
}

// An Acct is a parsed webfinger handle.
type Acct struct {
	Kind   Kind
	Name   string
	Domain string
}

// Parse parses a webfinger resource query into an Acct. Parse never fails;
// malformed input yields an Acct with KindUnknown so that callers can map it
// to a client error.
func Parse(resource string) Acct {
	resource = strings.TrimPrefix(resource, "acct:")

	// the handle may arrive URL encoded
	if unescaped, err := url.QueryUnescape(resource); err == nil {
		resource = unescaped
	}

	kind := KindCalendar
	if strings.HasPrefix(resource, "@") {
		kind = KindPerson
		resource = resource[1:]
	}
	name, domain, ok := strings.Cut(resource, "@")
	if !ok || !ValidName(name) || !ValidDomain(domain) {
		return Acct{Kind: KindUnknown}
	}
	return Acct{Kind: kind, Name: name, Domain: domain}
}

// String returns the canonical acct: form of the handle.
func (a *Acct) String() string {
	if a.Kind == KindPerson {
		return "acct:@" + a.Name + "@" + a.Domain
	}
	return "acct:" + a.Name + "@" + a.Domain
}

// Webfinger returns the URL of the webfinger resource for this Acct.
func (a *Acct) Webfinger() string {
	return "https://" + a.Domain + "/.well-known/webfinger?resource=" + url.QueryEscape(a.String())
}

// ID returns the actor URI for this Acct.
func (a *Acct) ID() string {
	if a.Kind == KindPerson {
		return "https://" + a.Domain + "/users/" + a.Name
	}
	return "https://" + a.Domain + "/calendars/" + a.Name
}

// Inbox returns the inbox URL for this Acct.
func (a *Acct) Inbox() string {
	return a.ID() + "/inbox"
}

// Outbox returns the outbox URL for this Acct.
func (a *Acct) Outbox() string {
	return a.ID() + "/outbox"
}

// Fetch retrieves the webfinger document for this Acct from its domain.
func (a *Acct) Fetch(ctx context.Context) (*Response, error) {
	var response Response
	err := requests.URL(a.Webfinger()).ToJSON(&response).Fetch(ctx)
	return &response, err
}

// Response is a webfinger JRD document.
type Response struct {
	Subject string   `json:"subject"`
	Aliases []string `json:"aliases"`
	Links   []Link   `json:"links"`
}

// Link is a single entry of a webfinger document's links collection.
type Link struct {
	Rel      string `json:"rel"`
	Type     string `json:"type"`
	Href     string `json:"href"`
	Template string `json:"template"`
}

// ActivityPub returns the href of the ActivityPub self link.
func (r *Response) ActivityPub() (string, error) {
	for _, link := range r.Links {
		if link.Type == "application/activity+json" {
			return link.Href, nil
		}
	}
	return "", fmt.Errorf("no ActivityPub link found")
}
