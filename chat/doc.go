// Package chat ingests a YouTube live chat through the internal innertube
// endpoints and normalizes its renderer payloads into ChatItem values.
//
// The package is split into a pure core and a driver:
//
//   - page.go extracts the session parameters (api key, client version,
//     first continuation) and the live id from a watch page.
//   - parser.go, renderer.go, runs.go, badges.go and color.go map one
//     get_live_chat response into ChatItems plus the next continuation.
//   - client.go holds the session and performs one request per Tick through a
//     Transport; *youtubeapi.Client is the production transport.
//   - auto.go runs a Client on a fixed interval and records checkpoints.
//
// An empty continuation marks the end of the stream. The driver never
// retries; scheduling and backoff belong to the caller.
package chat
