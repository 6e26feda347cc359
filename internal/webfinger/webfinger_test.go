package webfinger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tc := []struct {
		in     string
		expect Acct
	}{
		{"acct:@alice@example.com", Acct{Kind: KindPerson, Name: "alice", Domain: "example.com"}},
		{"acct:music@example.com", Acct{Kind: KindCalendar, Name: "music", Domain: "example.com"}},
		{"@alice@example.com", Acct{Kind: KindPerson, Name: "alice", Domain: "example.com"}},
		{"music@example.com", Acct{Kind: KindCalendar, Name: "music", Domain: "example.com"}},
		{"acct%3A%40alice%40example.com", Acct{Kind: KindUnknown}},
		{"acct:%40alice%40example.com", Acct{Kind: KindPerson, Name: "alice", Domain: "example.com"}},
		{"not-a-resource", Acct{Kind: KindUnknown}},
		{"", Acct{Kind: KindUnknown}},
		{"acct:@@example.com", Acct{Kind: KindUnknown}},
		{"acct:ab@example.com", Acct{Kind: KindUnknown}},          // name too short
		{"acct:UPPER@example.com", Acct{Kind: KindUnknown}},       // uppercase name
		{"acct:music@no_dots", Acct{Kind: KindUnknown}},           // invalid domain
		{"acct:music@-bad-.example.com", Acct{Kind: KindUnknown}}, // invalid label
	}
	for _, tt := range tc {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.expect, Parse(tt.in))
		})
	}
}

func TestParseRoundTrip(t *testing.T) {
	require := require.New(t)
	for _, in := range []string{"acct:@alice@example.com", "acct:music@example.com"} {
		acct := Parse(in)
		require.NotEqual(KindUnknown, acct.Kind)
		require.Equal(in, acct.String())
	}
}

func TestValid(t *testing.T) {
	require := require.New(t)
	require.True(Valid("music@example.com"))
	require.True(Valid("a_1_b@sub.example.org"))
	require.False(Valid("music"))
	require.False(Valid("music@"))
	require.False(Valid("@example.com"))
	require.False(Valid("this_name_is_much_too_long@example.com"))
	require.False(Valid("music@localhost"))
}

func TestAcctURLs(t *testing.T) {
	require := require.New(t)
	cal := Acct{Kind: KindCalendar, Name: "music", Domain: "example.com"}
	require.Equal("https://example.com/calendars/music", cal.ID())
	require.Equal("https://example.com/calendars/music/inbox", cal.Inbox())
	require.Equal("https://example.com/calendars/music/outbox", cal.Outbox())
	require.Equal("https://example.com/.well-known/webfinger?resource=acct%3Amusic%40example.com", cal.Webfinger())

	person := Acct{Kind: KindPerson, Name: "alice", Domain: "example.com"}
	require.Equal("https://example.com/users/alice", person.ID())
}
