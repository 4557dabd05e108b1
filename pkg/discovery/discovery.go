package discovery

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"

	"github.com/example/foodhub/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.uber.org/zap"
)

// Registry announces running API instances in etcd so that load balancers
// and sibling processes can find them.
type Registry struct {
	client *clientv3.Client
	config *config.EtcdConfig
	logger *zap.Logger

	mu     sync.Mutex
	leases map[string]clientv3.LeaseID
}

type Instance struct {
	Name string
	Host string
	Port int
}

func (i Instance) Addr() string {
	return net.JoinHostPort(i.Host, strconv.Itoa(i.Port))
}

func NewRegistry(cfg *config.EtcdConfig, logger *zap.Logger) (*Registry, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to etcd: %w", err)
	}

	return &Registry{
		client: cli,
		config: cfg,
		logger: logger,
		leases: make(map[string]clientv3.LeaseID),
	}, nil
}

func instanceKey(prefix string, inst Instance) string {
	return prefix + inst.Name + "/" + inst.Addr()
}

// Register stores the instance under a lease that is kept alive until ctx is
// cancelled or Deregister is called.
func (r *Registry) Register(ctx context.Context, inst Instance) error {
	lease, err := r.client.Grant(ctx, r.config.LeaseTTL)
	if err != nil {
		return fmt.Errorf("failed to create lease: %w", err)
	}

	key := instanceKey(r.config.Prefix, inst)
	if _, err := r.client.Put(ctx, key, inst.Addr(), clientv3.WithLease(lease.ID)); err != nil {
		return fmt.Errorf("failed to register instance: %w", err)
	}

	ch, err := r.client.KeepAlive(ctx, lease.ID)
	if err != nil {
		return fmt.Errorf("failed to keep alive: %w", err)
	}

	r.mu.Lock()
	r.leases[key] = lease.ID
	r.mu.Unlock()

	go func() {
		for range ch {
		}
		r.logger.Info("etcd keep-alive stopped", zap.String("key", key))
	}()

	r.logger.Info("Registered instance", zap.String("key", key), zap.Int64("lease_ttl", r.config.LeaseTTL))
	return nil
}

func (r *Registry) Discover(ctx context.Context, name string) ([]Instance, error) {
	resp, err := r.client.Get(ctx, r.config.Prefix+name+"/", clientv3.WithPrefix())
	if err != nil {
		return nil, fmt.Errorf("failed to discover %s: %w", name, err)
	}

	instances := make([]Instance, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		inst, err := parseInstance(name, string(kv.Value))
		if err != nil {
			r.logger.Warn("Skipping malformed registration", zap.ByteString("key", kv.Key), zap.Error(err))
			continue
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// Deregister removes the instance and revokes its lease.
func (r *Registry) Deregister(ctx context.Context, inst Instance) error {
	key := instanceKey(r.config.Prefix, inst)
	if _, err := r.client.Delete(ctx, key); err != nil {
		return fmt.Errorf("failed to deregister instance: %w", err)
	}

	r.mu.Lock()
	id, ok := r.leases[key]
	delete(r.leases, key)
	r.mu.Unlock()
	if ok {
		if _, err := r.client.Revoke(ctx, id); err != nil {
			return fmt.Errorf("failed to revoke lease: %w", err)
		}
	}
	return nil
}

func (r *Registry) Close() error {
	return r.client.Close()
}

func parseInstance(name, addr string) (Instance, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(addr))
	if err != nil {
		return Instance{}, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return Instance{}, fmt.Errorf("bad port %q: %w", portStr, err)
	}
	return Instance{Name: name, Host: host, Port: port}, nil
}
