//go:build integration

package discovery

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/example/foodhub/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func startEtcd(t *testing.T) *Registry {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image: "quay.io/coreos/etcd:v3.5.17",
			Cmd: []string{
				"/usr/local/bin/etcd",
				"--listen-client-urls", "http://0.0.0.0:2379",
				"--advertise-client-urls", "http://0.0.0.0:2379",
			},
			ExposedPorts: []string{"2379/tcp"},
			WaitingFor:   wait.ForListeningPort("2379/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cleanupCancel()
		_ = container.Terminate(cleanupCtx)
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "2379")
	require.NoError(t, err)

	reg, err := NewRegistry(&config.EtcdConfig{
		Endpoints:   []string{fmt.Sprintf("%s:%s", host, port.Port())},
		DialTimeout: 5 * time.Second,
		Prefix:      "/foodhub-test/services/",
		LeaseTTL:    10,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = reg.Close() })
	return reg
}

func TestRegistry_Lifecycle(t *testing.T) {
	reg := startEtcd(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	first := Instance{Name: "foodhub-api", Host: "10.0.0.5", Port: 3000}
	second := Instance{Name: "foodhub-api", Host: "10.0.0.6", Port: 3000}
	worker := Instance{Name: "foodhub-worker", Host: "10.0.0.7", Port: 4000}
	for _, inst := range []Instance{first, second, worker} {
		require.NoError(t, reg.Register(ctx, inst))
	}
	_, err := reg.client.Put(ctx, "/foodhub-test/services/foodhub-api/broken", "not-an-address")
	require.NoError(t, err)

	got, err := reg.Discover(ctx, "foodhub-api")
	require.NoError(t, err)
	assert.ElementsMatch(t, []Instance{first, second}, got)

	key := instanceKey("/foodhub-test/services/", first)
	reg.mu.Lock()
	lease, ok := reg.leases[key]
	reg.mu.Unlock()
	require.True(t, ok)

	ttl, err := reg.client.TimeToLive(ctx, lease)
	require.NoError(t, err)
	assert.Positive(t, ttl.TTL)

	require.NoError(t, reg.Deregister(ctx, first))

	got, err = reg.Discover(ctx, "foodhub-api")
	require.NoError(t, err)
	assert.Equal(t, []Instance{second}, got)

	ttl, err = reg.client.TimeToLive(ctx, lease)
	require.NoError(t, err)
	assert.Equal(t, int64(-1), ttl.TTL, "lease is revoked")

	workers, err := reg.Discover(ctx, "foodhub-worker")
	require.NoError(t, err)
	assert.Equal(t, []Instance{worker}, workers)
}
