// Package discovery registers the aggregator with a local Consul agent so
// that Prometheus can find it through Consul service discovery.
//
// The service is registered as <service_type> with ID
// <service_type>_<port> and the tags
//
//	owner-<owner>
//	servicetype-<service_type>
//	scrapeport-<port>
//
// plus an HTTP check against http://127.0.0.1:<port><health_path>.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/consul/api"

	"torch-hq/torch/pkg/config"
)

// Agent is the part of the Consul agent API the registrar uses. It is
// satisfied by *api.Agent.
type Agent interface {
	ServiceRegisterOpts(service *api.AgentServiceRegistration, opts api.ServiceRegisterOpts) error
	ServiceDeregisterOpts(serviceID string, q *api.QueryOptions) error
}

// Service describes the Consul registration of one aggregator instance.
type Service struct {
	Name          string
	ID            string
	Owner         string
	Port          int
	HealthPath    string
	CheckInterval time.Duration
	CheckTimeout  time.Duration
}

// NewService builds the service description for an aggregator listening
// on port.
func NewService(cfg *config.DiscoveryConfig, port int) Service {
	return Service{
		Name:          cfg.ServiceType,
		ID:            fmt.Sprintf("%s_%d", cfg.ServiceType, port),
		Owner:         cfg.Owner,
		Port:          port,
		HealthPath:    cfg.HealthPath,
		CheckInterval: cfg.CheckInterval,
		CheckTimeout:  cfg.CheckTimeout,
	}
}

// Tags returns the service tags in a fixed order.
func (s Service) Tags() []string {
	return []string{
		"owner-" + s.Owner,
		"servicetype-" + s.Name,
		"scrapeport-" + strconv.Itoa(s.Port),
	}
}

// CheckURL returns the URL Consul polls.
func (s Service) CheckURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", s.Port, s.HealthPath)
}

// Registration converts the service into a Consul agent registration.
func (s Service) Registration() *api.AgentServiceRegistration {
	return &api.AgentServiceRegistration{
		ID:   s.ID,
		Name: s.Name,
		Port: s.Port,
		Tags: s.Tags(),
		Check: &api.AgentServiceCheck{
			HTTP:     s.CheckURL(),
			Interval: s.CheckInterval.String(),
			Timeout:  s.CheckTimeout.String(),
		},
	}
}

// Registrar registers one service and deregisters it on shutdown.
type Registrar struct {
	agent      Agent
	service    Service
	logger     *slog.Logger
	mu         sync.Mutex
	registered bool
}

// NewRegistrar connects to the Consul agent at cfg.Address.
func NewRegistrar(cfg *config.DiscoveryConfig, port int, logger *slog.Logger) (*Registrar, error) {
	apiCfg := api.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}

	client, err := api.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return NewRegistrarWithAgent(client.Agent(), NewService(cfg, port), logger), nil
}

// NewRegistrarWithAgent creates a registrar over an existing agent.
func NewRegistrarWithAgent(agent Agent, service Service, logger *slog.Logger) *Registrar {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registrar{
		agent:   agent,
		service: service,
		logger:  logger.With("component", "discovery", "service_id", service.ID),
	}
}

// Service returns the service this registrar manages.
func (r *Registrar) Service() Service {
	return r.service
}

// Register registers the service with the agent. Registering again
// replaces the existing registration.
func (r *Registrar) Register(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	opts := api.ServiceRegisterOpts{ReplaceExistingChecks: true}.WithContext(ctx)
	if err := r.agent.ServiceRegisterOpts(r.service.Registration(), opts); err != nil {
		return fmt.Errorf("failed to register service %s: %w", r.service.ID, err)
	}
	r.registered = true

	r.logger.Info("registered with consul",
		"tags", r.service.Tags(),
		"check", r.service.CheckURL(),
	)
	return nil
}

// Deregister removes the service from the agent. It does nothing if the
// service was never registered.
func (r *Registrar) Deregister(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.registered {
		return nil
	}

	q := (&api.QueryOptions{}).WithContext(ctx)
	if err := r.agent.ServiceDeregisterOpts(r.service.ID, q); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", r.service.ID, err)
	}
	r.registered = false

	r.logger.Info("deregistered from consul")
	return nil
}

// PortFromAddress extracts the numeric port of a host:port listen address.
func PortFromAddress(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, errors.New("listen address " + addr + " has no usable port")
	}
	return port, nil
}
