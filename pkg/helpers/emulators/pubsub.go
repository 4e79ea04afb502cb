package emulators

import (
	"context"
	"testing"

	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const testPubsubEmulatorPort = "8085"

type PubsubConfig struct {
	GCImageContainer
}

func GetDefaultPubsubConfig(projectID string) PubsubConfig {
	return PubsubConfig{
		GCImageContainer: GCImageContainer{
			ImageContainer: ImageContainer{
				EmulatorImage: cloudSDKEmulatorImage,
				EmulatorPort:  testPubsubEmulatorPort,
			},
			ProjectID:       projectID,
			SetEnvVariables: true,
		},
	}
}

// SetupPubsubEmulator starts an empty Pub/Sub emulator. Topics and subscriptions
// are left to the code under test.
func SetupPubsubEmulator(t *testing.T, ctx context.Context, cfg PubsubConfig) (clientOptions []option.ClientOption, cleanupFunc func()) {
	t.Helper()
	emulatorHost, cleanup := startGcloudEmulator(t, ctx, "pubsub", cfg.GCImageContainer)
	if cfg.SetEnvVariables {
		t.Setenv("PUBSUB_EMULATOR_HOST", emulatorHost)
	}
	clientOptions = []option.ClientOption{
		option.WithEndpoint(emulatorHost),
		option.WithoutAuthentication(),
		option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
	}
	return clientOptions, cleanup
}
