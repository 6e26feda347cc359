package activitypub

import (
	"context"
	"time"

	"github.com/convene-events/convene/internal/snowflake"
	"github.com/convene-events/convene/internal/webfinger"
	"github.com/convene-events/convene/models"
	"gorm.io/gorm"
)

// RemoteActorFetcher dereferences remote actor documents, signing its
// requests as a local calendar.
type RemoteActorFetcher struct {
	signAs *models.Calendar
}

func NewRemoteActorFetcher(signAs *models.Calendar) *RemoteActorFetcher {
	return &RemoteActorFetcher{
		signAs: signAs,
	}
}

func (f *RemoteActorFetcher) Fetch(uri string) (*models.RemoteActor, error) {
	c, err := NewClient(f.signAs)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	obj, err := c.Get(ctx, uri)
	if err != nil {
		return nil, err
	}

	published := timeFromAnyOrZero(obj["published"])
	if published.IsZero() {
		published = time.Now()
	}

	return &models.RemoteActor{
		ID:             snowflake.TimeToID(published),
		URI:            stringFromAny(obj["id"]),
		Type:           stringFromAny(obj["type"]),
		InboxURL:       stringFromAny(obj["inbox"]),
		SharedInboxURL: stringFromAny(mapFromAny(obj["endpoints"])["sharedInbox"]),
		OutboxURL:      stringFromAny(obj["outbox"]),
		PublicKey:      []byte(stringFromAny(mapFromAny(obj["publicKey"])["publicKeyPem"])),
	}, nil
}

// Resolver resolves name@domain handles to cached remote actors. The
// handle's webfinger document is consulted on every call; the actor
// document it points at is fetched once and cached.
type Resolver struct {
	db *gorm.DB
}

func NewResolver(db *gorm.DB) *Resolver {
	return &Resolver{db: db}
}

// Resolve looks up the handle's actor URI via webfinger and returns the
// cached actor for it, dereferencing the actor document signed as signAs on
// a cache miss. The peer's webfinger response decides the actor URI and
// inbox; nothing is assumed about the peer's URL layout.
func (res *Resolver) Resolve(ctx context.Context, signAs *models.Calendar, handle string) (*models.RemoteActor, error) {
	acct := webfinger.Parse(handle)
	if acct.Kind == webfinger.KindUnknown {
		return nil, models.ErrInvalidIdentifier
	}
	response, err := acct.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	uri, err := response.ActivityPub()
	if err != nil {
		return nil, err
	}
	fetcher := NewRemoteActorFetcher(signAs)
	return models.NewRemoteActors(res.db).FindOrCreate(uri, fetcher.Fetch)
}
