// Package capture provisions ephemeral capture-service instances for
// verification scenarios. Each Start call runs a fresh MailHog
// container with dynamically mapped SMTP and HTTP ports, so scenarios
// can run in parallel without port collisions or shared state.
package capture

import (
	"context"
	"fmt"
	"net"

	"github.com/google/uuid"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/probekit/hogcheck/internal/mailhog"
	"github.com/probekit/hogcheck/internal/sender"
	smtpsender "github.com/probekit/hogcheck/internal/sender/smtp"
)

// DefaultImage is the capture-service image used when Options.Image
// is empty.
const DefaultImage = "mailhog/mailhog:v1.0.1"

// Container-side ports of the capture service.
const (
	smtpPort = "1025/tcp"
	httpPort = "8025/tcp"
)

// Options configures a capture-service instance.
type Options struct {
	// Image overrides the container image, e.g. to pin a different
	// service version.
	Image string
}

// Instance is one running capture-service container. Its lifetime is
// bound to the scenario that started it; call Terminate (or Bind it
// to a test) on every exit path.
type Instance struct {
	id        string
	container testcontainers.Container
	apiBase   string
	smtpAddr  string
}

// Start provisions a fresh instance and waits until its HTTP API
// accepts connections. Host-mapped ports are resolved dynamically.
func Start(ctx context.Context, opts Options) (*Instance, error) {
	image := opts.Image
	if image == "" {
		image = DefaultImage
	}
	id := uuid.NewString()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        image,
			ExposedPorts: []string{smtpPort, httpPort},
			WaitingFor:   wait.ForListeningPort(httpPort),
		},
		Started: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start capture container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		terminate(container)
		return nil, fmt.Errorf("failed to resolve container host: %w", err)
	}
	mappedHTTP, err := container.MappedPort(ctx, httpPort)
	if err != nil {
		terminate(container)
		return nil, fmt.Errorf("failed to resolve HTTP port: %w", err)
	}
	mappedSMTP, err := container.MappedPort(ctx, smtpPort)
	if err != nil {
		terminate(container)
		return nil, fmt.Errorf("failed to resolve SMTP port: %w", err)
	}

	return &Instance{
		id:        id,
		container: container,
		apiBase:   fmt.Sprintf("http://%s", net.JoinHostPort(host, mappedHTTP.Port())),
		smtpAddr:  net.JoinHostPort(host, mappedSMTP.Port()),
	}, nil
}

// ID identifies this instance in logs.
func (i *Instance) ID() string { return i.id }

// APIBase returns the base URL of the instance's HTTP API.
func (i *Instance) APIBase() string { return i.apiBase }

// SMTPAddr returns the host:port of the instance's SMTP endpoint.
func (i *Instance) SMTPAddr() string { return i.smtpAddr }

// Client returns a retrieval client bound to this instance.
func (i *Instance) Client() *mailhog.Client {
	return mailhog.New(i.apiBase, nil)
}

// Sender returns a plaintext SMTP sender bound to this instance.
func (i *Instance) Sender() sender.Sender {
	return smtpsender.New(i.smtpAddr)
}

// Terminate stops and removes the container.
func (i *Instance) Terminate(ctx context.Context) error {
	return i.container.Terminate(ctx)
}

// TestingT is the subset of *testing.T that Bind needs.
type TestingT interface {
	Cleanup(func())
	Errorf(format string, args ...any)
}

// Bind registers teardown with the test so the instance cannot outlive
// it, whatever path the test exits by.
func (i *Instance) Bind(t TestingT) {
	t.Cleanup(func() {
		if err := i.Terminate(context.Background()); err != nil {
			t.Errorf("terminating capture instance %s: %v", i.id, err)
		}
	})
}

func terminate(c testcontainers.Container) {
	_ = c.Terminate(context.Background())
}
