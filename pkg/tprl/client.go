package tprl

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/casualjim/swekit/pkg/slogx"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/log"
)

func envStrOrDefault(key string, def string) string {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	return s
}

// NewClient creates a lazy Temporal client. The host is hostPort when given,
// otherwise TEMPORAL_ADDRESS, otherwise the SDK default.
func NewClient(hostPort string) (client.Client, error) {
	lg := slog.Default().With(slogx.LoggerName("swekit.temporal"))

	if hostPort == "" {
		hostPort = envStrOrDefault("TEMPORAL_ADDRESS", client.DefaultHostPort)
	}

	cl, err := client.NewLazyClient(client.Options{
		HostPort:  hostPort,
		Namespace: envStrOrDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		Logger:    log.NewStructuredLogger(lg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create temporal client: %w", err)
	}
	return cl, nil
}
