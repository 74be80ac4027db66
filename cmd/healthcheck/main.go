// Command healthcheck probes the livechat liveness endpoint for container
// health checks. It exits non-zero unless the endpoint answers 200.
// HEALTHCHECK_URL overrides the default http://localhost:8080/healthz.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"
)

const defaultURL = "http://localhost:8080/healthz"

func main() {
	os.Exit(probe(os.Getenv("HEALTHCHECK_URL")))
}

func probe(url string) int {
	if url == "" {
		url = defaultURL
	}
	client := &http.Client{Timeout: 3 * time.Second}
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		log.Printf("healthcheck: bad url %q: %v", url, err)
		return 1
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("healthcheck: %v", err)
		return 1
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Printf("failed to close response body: %v", err)
		}
	}()
	if resp.StatusCode != http.StatusOK {
		log.Printf("healthcheck: unexpected status %s", resp.Status)
		return 1
	}
	return 0
}
