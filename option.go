package gradsync

import (
	"github.com/gradsync/gradsync/capability"
	"github.com/gradsync/gradsync/shm"
	"github.com/gradsync/gradsync/topology"
)

// Option configures a Service at construction time, the same functional-
// options idiom the teacher's root service uses.
type Option func(s *Service)

// WithTopology sets the topology the engine derives itineraries and its
// active stage set from. Without it (or WithConfig), New falls back to
// topology.DefaultConfig().
func WithTopology(t *topology.Topology) Option {
	return func(s *Service) { s.topology = t }
}

// WithConfig builds the topology (and anything else Config carries) from a
// serialisable Config, typically produced by DecodeYAML.
func WithConfig(cfg *Config) Option {
	return func(s *Service) {
		if cfg == nil {
			return
		}
		if cfg.Topology != nil {
			s.topology = cfg.Topology.ToTopology()
		}
		s.serviceName = cfg.ServiceName
		s.serviceVersion = cfg.ServiceVersion
	}
}

// WithCollective overrides the intra-node collective capability. Defaults
// to capability.LocalCollective.
func WithCollective(c capability.Collective) Option {
	return func(s *Service) { s.caps.Collective = c }
}

// WithCopier overrides the device/host memory-movement capability.
// Defaults to capability.LocalCopier.
func WithCopier(c capability.Copier) Option {
	return func(s *Service) { s.caps.Copier = c }
}

// WithPcieReducer overrides the cross-PCIe-switch reduction capability.
// Defaults to capability.LocalPcieReducer.
func WithPcieReducer(r capability.PcieReducer) Option {
	return func(s *Service) { s.caps.PcieReducer = r }
}

// WithParameterServer overrides the parameter-server client. Defaults to a
// single-worker capability.LocalParameterServer.
func WithParameterServer(ps capability.ParameterServer) Option {
	return func(s *Service) { s.caps.ParameterServer = ps }
}

// WithAllocator overrides the shared-memory allocator. Defaults to
// shm.MemoryAllocator.
func WithAllocator(a shm.Allocator) Option {
	return func(s *Service) { s.allocator = a }
}
