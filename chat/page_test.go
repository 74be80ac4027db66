package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onnwee/livechat/testutil"
)

const minimalPage = `<link rel="canonical" href="https://www.youtube.com/watch?v=XYZ">
"INNERTUBE_API_KEY": "k1", "clientVersion": "2.1", "continuation": "c1"`

func TestExtractSession(t *testing.T) {
	session, liveID, err := ExtractSession(minimalPage)
	require.NoError(t, err)
	assert.Equal(t, "XYZ", liveID)
	assert.Equal(t, Session{APIKey: "k1", ClientVersion: "2.1", Continuation: "c1"}, session)
}

func TestExtractSession_FixturePage(t *testing.T) {
	page := testutil.WatchPageHTML("abc123", "AIzaKey", "2.20240101.00.00", "0ofMyANq")
	session, liveID, err := ExtractSession(page)
	require.NoError(t, err)
	assert.Equal(t, "abc123", liveID)
	assert.Equal(t, "AIzaKey", session.APIKey)
	assert.Equal(t, "2.20240101.00.00", session.ClientVersion)
	assert.Equal(t, "0ofMyANq", session.Continuation)
}

func TestExtractSession_SingleQuotes(t *testing.T) {
	page := `<link rel='canonical' href='https://www.youtube.com/watch?v=Q1'>
{'INNERTUBE_API_KEY':'k2','clientVersion':'1.0','continuation':'c2'}`
	session, liveID, err := ExtractSession(page)
	require.NoError(t, err)
	assert.Equal(t, "Q1", liveID)
	assert.Equal(t, Session{APIKey: "k2", ClientVersion: "1.0", Continuation: "c2"}, session)
}

func TestExtractSession_Errors(t *testing.T) {
	tests := []struct {
		name string
		page string
		want error
	}{
		{"no canonical link", strings.Replace(minimalPage, `rel="canonical"`, `rel="alternate"`, 1), ErrNotFound},
		{"missing api key", strings.Replace(minimalPage, `"INNERTUBE_API_KEY"`, `"OTHER_KEY"`, 1), ErrSchemaMismatch},
		{"missing client version", strings.Replace(minimalPage, `"clientVersion": "2.1"`, `"clientVersion": "beta"`, 1), ErrSchemaMismatch},
		{"missing continuation", strings.Replace(minimalPage, `"continuation"`, `"next"`, 1), ErrSchemaMismatch},
		{"empty page", "", ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, liveID, err := ExtractSession(tt.page)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Empty(t, liveID)
			assert.Equal(t, Session{}, session)
		})
	}
}

func TestExtractSession_ReplayWins(t *testing.T) {
	pages := []string{
		minimalPage + `, "isReplay": true`,
		minimalPage + `, 'isReplay':true`,
		// Replay is reported even when required fields are missing.
		`<link rel="canonical" href="https://www.youtube.com/watch?v=XYZ"> "isReplay":  true`,
	}
	for _, page := range pages {
		_, _, err := ExtractSession(page)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAlreadyEnded)
		assert.Contains(t, err.Error(), "XYZ")
	}

	_, _, err := ExtractSession(minimalPage + `, "isReplay": false`)
	assert.NoError(t, err)
}
