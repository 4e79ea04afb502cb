package emulators

import (
	"context"
	"testing"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const testFirestoreEmulatorPort = "8080"

type FirestoreConfig struct {
	GCImageContainer
}

func GetDefaultFirestoreConfig(projectID string) FirestoreConfig {
	return FirestoreConfig{
		GCImageContainer: GCImageContainer{
			ImageContainer: ImageContainer{
				EmulatorImage: cloudSDKEmulatorImage,
				EmulatorPort:  testFirestoreEmulatorPort,
			},
			ProjectID:       projectID,
			SetEnvVariables: true,
		},
	}
}

// SetupFirestoreEmulator starts a Firestore emulator and returns a client connected to it.
// Without SetEnvVariables the client is pointed at the emulator through client options only.
func SetupFirestoreEmulator(t *testing.T, ctx context.Context, cfg FirestoreConfig) (*firestore.Client, func()) {
	t.Helper()
	emulatorHost, cleanup := startGcloudEmulator(t, ctx, "firestore", cfg.GCImageContainer)

	var opts []option.ClientOption
	if cfg.SetEnvVariables {
		t.Setenv("FIRESTORE_EMULATOR_HOST", emulatorHost)
	} else {
		opts = []option.ClientOption{
			option.WithEndpoint(emulatorHost),
			option.WithoutAuthentication(),
			option.WithGRPCDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		}
	}

	client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
	require.NoError(t, err)

	return client, func() {
		_ = client.Close()
		cleanup()
	}
}
