package chat

import (
	"errors"
	"regexp"
)

// Session holds the parameters needed to poll the chat endpoint.
type Session struct {
	APIKey        string
	ClientVersion string
	Continuation  string
}

var (
	liveIDPattern        = regexp.MustCompile(`<link rel=["']canonical["'] href=["']https://www\.youtube\.com/watch\?v=(.+?)["']>`)
	replayPattern        = regexp.MustCompile(`['"]isReplay['"]:\s*true`)
	apiKeyPattern        = regexp.MustCompile(`['"]INNERTUBE_API_KEY['"]:\s*['"](.+?)['"]`)
	clientVersionPattern = regexp.MustCompile(`['"]clientVersion['"]:\s*['"]([\d.]+?)['"]`)
	continuationPattern  = regexp.MustCompile(`['"]continuation['"]:\s*['"](.+?)['"]`)
)

// ExtractSession pulls the session parameters and live id out of a watch page.
// The replay marker is checked right after the live id, so a finished
// broadcast reports KindAlreadyEnded even when every other field is present.
func ExtractSession(page string) (Session, string, error) {
	const op = "extract session"
	liveID, ok := firstSubmatch(liveIDPattern, page)
	if !ok {
		return Session{}, "", newError(KindNotFound, op, errors.New("live stream was not found"))
	}
	if replayPattern.MatchString(page) {
		return Session{}, "", newError(KindAlreadyEnded, op, errors.New(liveID+" is a finished live stream"))
	}
	apiKey, ok := firstSubmatch(apiKeyPattern, page)
	if !ok {
		return Session{}, "", newError(KindSchemaMismatch, op, errors.New("INNERTUBE_API_KEY was not found"))
	}
	clientVersion, ok := firstSubmatch(clientVersionPattern, page)
	if !ok {
		return Session{}, "", newError(KindSchemaMismatch, op, errors.New("clientVersion was not found"))
	}
	continuation, ok := firstSubmatch(continuationPattern, page)
	if !ok {
		return Session{}, "", newError(KindSchemaMismatch, op, errors.New("continuation was not found"))
	}
	return Session{APIKey: apiKey, ClientVersion: clientVersion, Continuation: continuation}, liveID, nil
}

func firstSubmatch(re *regexp.Regexp, s string) (string, bool) {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return "", false
	}
	return m[1], true
}
