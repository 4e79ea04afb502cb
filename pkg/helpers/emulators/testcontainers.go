package emulators

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const cloudSDKEmulatorImage = "gcr.io/google.com/cloudsdktool/cloud-sdk:emulators"

type ImageContainer struct {
	EmulatorImage string
	EmulatorPort  string
}

type GCImageContainer struct {
	ImageContainer
	ProjectID       string
	SetEnvVariables bool
}

// startGcloudEmulator runs `gcloud beta emulators <service> start` in a container
// and returns the host:port it listens on plus a cleanup func.
func startGcloudEmulator(t *testing.T, ctx context.Context, service string, cfg GCImageContainer) (string, func()) {
	t.Helper()
	port := nat.Port(fmt.Sprintf("%s/tcp", cfg.EmulatorPort))
	req := testcontainers.ContainerRequest{
		Image:        cfg.EmulatorImage,
		ExposedPorts: []string{string(port)},
		Cmd: []string{
			"gcloud", "beta", "emulators", service, "start",
			fmt.Sprintf("--project=%s", cfg.ProjectID),
			fmt.Sprintf("--host-port=0.0.0.0:%s", cfg.EmulatorPort),
		},
		WaitingFor: wait.ForListeningPort(port).WithStartupTimeout(90 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	mapped, err := container.MappedPort(ctx, port)
	require.NoError(t, err)
	emulatorHost := fmt.Sprintf("%s:%s", host, mapped.Port())
	t.Logf("%s emulator container started, listening on: %s", service, emulatorHost)

	return emulatorHost, func() {
		if err := container.Terminate(ctx); err != nil {
			log.Warn().Err(err).Str("service", service).Msg("Failed to terminate emulator container")
		}
	}
}
