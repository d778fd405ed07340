package natsx

import (
	"os"

	"github.com/nats-io/nats.go"
)

// NewClient connects to the NATS server at url. An empty url falls back to the
// NATS_URL environment variable and then to nats.DefaultURL. Without explicit
// options the connection is named "swekit" and uses compression.
func NewClient(url string, opts ...nats.Option) (*nats.Conn, error) {
	if url == "" {
		url = os.Getenv("NATS_URL")
	}
	if url == "" {
		url = nats.DefaultURL
	}
	if len(opts) == 0 {
		opts = append(opts, nats.Name("swekit"), nats.Compression(true))
	}
	return nats.Connect(url, opts...)
}
