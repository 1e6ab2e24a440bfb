package token

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	return NewCodec("test-secret-key")
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	payloads := []map[string]string{
		{"email": "a@example.com"},
		{"email": "a@example.com", "reservation_id": "7f9c24e8-2a1b-4d6e-9f3a-1c5b8d7e6f4a"},
		{},
	}
	for _, p := range payloads {
		tok, err := c.Issue(p, PurposeMagicLink)
		require.NoError(t, err)

		got, outcome := c.Verify(tok, PurposeMagicLink, time.Hour)
		assert.Equal(t, OutcomeOK, outcome)
		assert.Equal(t, p, got)
	}
}

func TestVerifyExpired(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Issue(map[string]string{"email": "a@example.com"}, PurposeMagicLink)
	require.NoError(t, err)

	// Move the clock past the 48h reschedule window.
	c.now = func() time.Time { return time.Now().Add(49 * time.Hour) }

	payload, outcome := c.Verify(tok, PurposeMagicLink, RescheduleLinkMaxAge)
	assert.Equal(t, OutcomeExpired, outcome)
	assert.Nil(t, payload)
}

func TestVerifyZeroMaxAgeIsExpiredNotInvalid(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Issue(map[string]string{"email": "a@example.com"}, PurposeMagicLink)
	require.NoError(t, err)

	c.now = func() time.Time { return time.Now().Add(time.Minute) }

	_, outcome := c.Verify(tok, PurposeMagicLink, 0)
	assert.Equal(t, OutcomeExpired, outcome)
}

func TestVerifyTamperedTokenIsInvalid(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Issue(map[string]string{"email": "a@example.com"}, PurposeMagicLink)
	require.NoError(t, err)

	// Flip one byte in the signature segment.
	parts := strings.Split(tok, ".")
	require.Len(t, parts, 3)
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	payload, outcome := c.Verify(tampered, PurposeMagicLink, time.Hour)
	assert.Equal(t, OutcomeInvalid, outcome)
	assert.Nil(t, payload)
}

func TestVerifyTamperedTokenIsInvalidEvenWhenOld(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Issue(map[string]string{"email": "a@example.com"}, PurposeMagicLink)
	require.NoError(t, err)

	tampered := tok[:len(tok)-2] + "xx"
	c.now = func() time.Time { return time.Now().Add(100 * time.Hour) }

	// A probe must not learn that the token would also have been expired.
	_, outcome := c.Verify(tampered, PurposeMagicLink, time.Hour)
	assert.Equal(t, OutcomeInvalid, outcome)
}

func TestVerifyWrongPurposeIsInvalid(t *testing.T) {
	c := newTestCodec(t)

	tok, err := c.Issue(map[string]string{"email": "a@example.com"}, PurposeMagicLink)
	require.NoError(t, err)

	_, outcome := c.Verify(tok, PurposeStaffSession, time.Hour)
	assert.Equal(t, OutcomeInvalid, outcome)
}

func TestVerifyDifferentSecretIsInvalid(t *testing.T) {
	c := newTestCodec(t)
	other := NewCodec("another-secret")

	tok, err := c.Issue(map[string]string{"email": "a@example.com"}, PurposeMagicLink)
	require.NoError(t, err)

	_, outcome := other.Verify(tok, PurposeMagicLink, time.Hour)
	assert.Equal(t, OutcomeInvalid, outcome)
}

func TestVerifyGarbageIsInvalid(t *testing.T) {
	c := newTestCodec(t)

	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		_, outcome := c.Verify(tok, PurposeMagicLink, time.Hour)
		assert.Equal(t, OutcomeInvalid, outcome)
	}
}

func TestIssueRejectsReservedKey(t *testing.T) {
	c := newTestCodec(t)

	_, err := c.Issue(map[string]string{"iat": "123"}, PurposeMagicLink)
	assert.Error(t, err)
}
