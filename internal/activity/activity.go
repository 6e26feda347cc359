// Package activity models the verb-shaped messages exchanged between
// calendar servers: Create, Update, Delete, Follow, Accept, Announce and
// Undo. Values are pure data constructed and discarded per request; the
// package performs no I/O.
package activity

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Context is the JSON-LD context declared on every outbound activity.
var Context = []any{
	"https://www.w3.org/ns/activitystreams",
	"https://w3id.org/security/v1",
}

// Type enumerates the supported activity types. The zero value represents
// an unsupported type so that dispatch switches have an explicit case for
// input this server does not understand.
type Type int

const (
	TypeUnsupported Type = iota
	TypeCreate
	TypeUpdate
	TypeDelete
	TypeFollow
	TypeAccept
	TypeAnnounce
	TypeUndo
)

var typeNames = map[Type]string{
	TypeCreate:   "Create",
	TypeUpdate:   "Update",
	TypeDelete:   "Delete",
	TypeFollow:   "Follow",
	TypeAccept:   "Accept",
	TypeAnnounce: "Announce",
	TypeUndo:     "Undo",
}

// TypeOf resolves a wire type string; unrecognised strings map to
// TypeUnsupported.
func TypeOf(s string) Type {
	for t, name := range typeNames {
		if name == s {
			return t
		}
	}
	return TypeUnsupported
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unsupported"
}

// idPath returns the path segment used when deriving ids for locally
// originated activities of this type.
func (t Type) idPath() string {
	return strings.ToLower(t.String()) + "s"
}

// An Object is the target of an activity: either a bare URI (Follow, Accept,
// Delete, Undo, Announce) or an embedded payload (Create, Update).
type Object struct {
	URI      string
	Embedded map[string]any
}

// IsEmbedded reports whether the object carries an embedded payload.
func (o Object) IsEmbedded() bool {
	return o.Embedded != nil
}

// ID returns the URI identifying the object, looking inside the embedded
// payload when necessary.
func (o Object) ID() string {
	if o.IsEmbedded() {
		id, _ := o.Embedded["id"].(string)
		return id
	}
	return o.URI
}

func (o Object) wire() any {
	if o.IsEmbedded() {
		return o.Embedded
	}
	return o.URI
}

// An Activity is a single verb-shaped message. Every activity has a
// non-empty Actor and Object; FromObject enforces this for untrusted input.
type Activity struct {
	ID     string
	Type   Type
	Actor  string
	Object Object
	To     []string
	CC     []string
}

// New constructs a locally originated activity of the given type, deriving a
// fresh id from the actor URI so that re-delivery of the same logical action
// is detectable.
func New(t Type, actor string, object Object) *Activity {
	return &Activity{
		ID:     fmt.Sprintf("%s/%s/%s", actor, t.idPath(), uuid.New()),
		Type:   t,
		Actor:  actor,
		Object: object,
	}
}

// NewFollow constructs a Follow of the given object URI or identifier.
func NewFollow(actor, object string) *Activity {
	return New(TypeFollow, actor, Object{URI: object})
}

// NewAccept constructs an Accept of a previously received activity id.
func NewAccept(actor, object string) *Activity {
	return New(TypeAccept, actor, Object{URI: object})
}

// NewAnnounce constructs an Announce of the given object URL.
func NewAnnounce(actor, object string) *Activity {
	return New(TypeAnnounce, actor, Object{URI: object})
}

// NewUndo constructs an Undo of a previously issued activity id.
func NewUndo(actor, object string) *Activity {
	return New(TypeUndo, actor, Object{URI: object})
}

// NewCreate constructs a Create carrying an embedded object payload.
func NewCreate(actor string, object map[string]any) *Activity {
	return New(TypeCreate, actor, Object{Embedded: object})
}

// NewUpdate constructs an Update carrying an embedded object payload.
func NewUpdate(actor string, object map[string]any) *Activity {
	return New(TypeUpdate, actor, Object{Embedded: object})
}

// NewDelete constructs a Delete of the given object URI.
func NewDelete(actor, object string) *Activity {
	return New(TypeDelete, actor, Object{URI: object})
}

// FromObject reconstructs an activity received from a peer. It never panics
// on malformed input; ok is false when the payload does not have the shape
// required for its declared type, so callers can respond with a client error
// rather than crash on attacker-controlled payloads. The caller-supplied id
// is preserved; re-deriving one here would break de-duplication by id.
func FromObject(obj map[string]any) (*Activity, bool) {
	if len(Validate(obj)) > 0 {
		return nil, false
	}
	typ := TypeOf(stringFromAny(obj["type"]))
	a := &Activity{
		ID:    stringFromAny(obj["id"]),
		Type:  typ,
		Actor: stringFromAny(obj["actor"]),
		To:    stringsFromAny(obj["to"]),
		CC:    stringsFromAny(obj["cc"]),
	}
	switch object := obj["object"].(type) {
	case string:
		a.Object = Object{URI: object}
	case map[string]any:
		a.Object = Object{Embedded: object}
	}
	return a, true
}

// Validate checks the shape of an untrusted payload against the rules for
// its declared type, and returns an itemized list of violations. An empty
// list means the payload is valid.
func Validate(obj map[string]any) []string {
	var details []string

	actor := stringFromAny(obj["actor"])
	if actor == "" {
		details = append(details, "actor must be a non-empty string")
	} else if !validURI(actor) {
		details = append(details, fmt.Sprintf("actor is not a valid URI: %q", actor))
	}

	typ := TypeOf(stringFromAny(obj["type"]))
	if typ == TypeUnsupported {
		details = append(details, fmt.Sprintf("unsupported activity type: %q", stringFromAny(obj["type"])))
		return details
	}

	switch object := obj["object"].(type) {
	case string:
		if object == "" {
			details = append(details, "object must be a non-empty string")
		}
	case map[string]any:
		switch typ {
		case TypeCreate, TypeUpdate:
			// embedded objects are only valid on Create and Update
		default:
			details = append(details, fmt.Sprintf("object of a %s must be a URI", typ))
		}
	default:
		details = append(details, "object is missing or of an unsupported shape")
	}
	return details
}

// Wire returns the JSON-LD wire form of the activity.
func (a *Activity) Wire() map[string]any {
	obj := map[string]any{
		"@context": Context,
		"id":       a.ID,
		"type":     a.Type.String(),
		"actor":    a.Actor,
		"object":   a.Object.wire(),
	}
	if len(a.To) > 0 {
		obj["to"] = anySlice(a.To)
	}
	if len(a.CC) > 0 {
		obj["cc"] = anySlice(a.CC)
	}
	return obj
}

func validURI(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

func stringFromAny(v any) string {
	s, _ := v.(string)
	return s
}

// stringsFromAny accepts both a single audience URI and a list of them.
func stringsFromAny(v any) []string {
	switch v := v.(type) {
	case string:
		return []string{v}
	case []any:
		var out []string
		for _, e := range v {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func anySlice(s []string) []any {
	out := make([]any, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	return out
}
