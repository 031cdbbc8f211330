package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"

	"encoding-service/pkg/config"
	"encoding-service/pkg/logger"
)

// Instance 注册到 etcd 的实例描述
type Instance struct {
	ServiceID string    `json:"service_id"`
	HTTPAddr  string    `json:"http_addr"`
	GRPCAddr  string    `json:"grpc_addr,omitempty"`
	WorkerID  string    `json:"worker_id,omitempty"`
	StartedAt time.Time `json:"started_at"`
}

// ServiceRegistry registers the encoding worker instance into etcd.
type ServiceRegistry struct {
	client      *clientv3.Client
	serviceName string
	serviceID   string
	instance    Instance
	ttl         int64
	leaseID     clientv3.LeaseID
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewServiceRegistry creates a new ServiceRegistry instance.
func NewServiceRegistry(cfg config.ServiceRegistryConfig, instance Instance) (*ServiceRegistry, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("service_registry.endpoints is empty")
	}
	client, err := clientv3.New(clientv3.Config{
		Endpoints:   cfg.Endpoints,
		DialTimeout: cfg.DialTimeout,
		Username:    cfg.Username,
		Password:    cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create etcd client: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if instance.ServiceID == "" {
		instance.ServiceID = cfg.ServiceID
	}
	if instance.StartedAt.IsZero() {
		instance.StartedAt = time.Now()
	}

	return &ServiceRegistry{
		client:      client,
		serviceName: cfg.ServiceName,
		serviceID:   instance.ServiceID,
		instance:    instance,
		ttl:         int64(cfg.TTL.Seconds()),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

// Key etcd 中的注册键
func (r *ServiceRegistry) Key() string {
	return fmt.Sprintf("/services/%s/%s", r.serviceName, r.serviceID)
}

// Register registers service instance.
func (r *ServiceRegistry) Register() error {
	leaseResp, err := r.client.Grant(r.ctx, r.ttl)
	if err != nil {
		return fmt.Errorf("failed to grant lease: %w", err)
	}
	r.leaseID = leaseResp.ID

	value, err := json.Marshal(r.instance)
	if err != nil {
		return fmt.Errorf("marshal instance: %w", err)
	}
	if _, err := r.client.Put(r.ctx, r.Key(), string(value), clientv3.WithLease(r.leaseID)); err != nil {
		return fmt.Errorf("failed to register service: %w", err)
	}

	go r.keepAlive()

	logger.Infof("Service registered key=%s http_addr=%s", r.Key(), r.instance.HTTPAddr)
	return nil
}

func (r *ServiceRegistry) keepAlive() {
	ch, err := r.client.KeepAlive(r.ctx, r.leaseID)
	if err != nil {
		logger.Warnf("Failed to keep alive lease error=%v", err)
		return
	}
	for {
		select {
		case <-r.ctx.Done():
			return
		case ka := <-ch:
			if ka == nil {
				logger.Warnf("Keep alive channel closed key=%s", r.Key())
				return
			}
		}
	}
}

// Deregister removes service registration.
func (r *ServiceRegistry) Deregister() error {
	r.cancel()
	if r.leaseID != 0 {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if _, err := r.client.Revoke(ctx, r.leaseID); err != nil {
			logger.Warnf("Failed to revoke lease error=%v", err)
		}
	}
	if err := r.client.Close(); err != nil {
		return fmt.Errorf("failed to close etcd client: %w", err)
	}
	logger.Infof("Service deregistered service_id=%s", r.serviceID)
	return nil
}
