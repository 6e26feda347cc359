package activitypub

import (
	"context"
	"crypto"
	"fmt"
	"io"
	"net/http"

	"github.com/carlmjohnson/requests"
	"github.com/convene-events/convene/internal/httpsig"
	"github.com/convene-events/convene/models"
	"github.com/go-json-experiment/json"
)

// Client is an ActivityPub client which signs its requests with the key of a
// local calendar.
type Client struct {
	keyID      string
	privateKey crypto.PrivateKey
}

// NewClient returns a client signing as the given calendar.
func NewClient(signAs *models.Calendar) (*Client, error) {
	privateKey, err := signAs.PrivKey()
	if err != nil {
		return nil, err
	}
	return &Client{
		keyID:      signAs.PublicKeyID(),
		privateKey: privateKey,
	}, nil
}

// Get fetches the ActivityPub resource at the given URI.
func (c *Client) Get(ctx context.Context, uri string) (map[string]any, error) {
	var obj map[string]any
	err := requests.URL(uri).
		Accept(`application/ld+json; profile="https://www.w3.org/ns/activitystreams"`).
		Transport(c).
		CheckContentType("application/ld+json", "application/activity+json", "application/json").
		CheckStatus(http.StatusOK).
		ToJSON(&obj).
		Fetch(ctx)
	return obj, err
}

// Post delivers the given activity to the given inbox URL.
func (c *Client) Post(ctx context.Context, inbox string, obj map[string]any) error {
	body, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	return requests.URL(inbox).
		Header("Content-Type", `application/ld+json; profile="https://www.w3.org/ns/activitystreams"`).
		BodyBytes(body).
		Transport(c).
		CheckStatus(http.StatusOK, http.StatusCreated, http.StatusAccepted).
		Fetch(ctx)
}

func (c *Client) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		defer rc.Close()
		if body, err = io.ReadAll(rc); err != nil {
			return nil, err
		}
	}
	if err := httpsig.Sign(req, c.keyID, c.privateKey, body); err != nil {
		return nil, fmt.Errorf("failed to sign request: %w", err)
	}
	return http.DefaultTransport.RoundTrip(req)
}
