// Package gradsync is the control plane of a distributed gradient
// synchronization engine for data-parallel deep learning (spec §1).
//
// Training workers submit tensors for collective reduction through
// Service.EnqueueTensor; the engine partitions each tensor, routes its
// pieces through a topology-derived sequence of stages (intra-node
// reduction, device-to-host copy, cross-switch reduction, inter-node
// push/pull, host-to-device copy, broadcast), and invokes a user
// completion callback once every piece of a tensor has traversed its
// assigned pipeline.
//
// The parameter-server client, the intra-node collective library and the
// shared-memory allocator are consumed as the capability and shm packages'
// interfaces; this module specifies and drives their contracts but does
// not implement production-grade transports for them.
//
// Every stage dispatch is wrapped in an OpenTelemetry span (package
// tracing), aggregate partition counters are tracked on a Progress (package
// progress), and tensor-initialized/tensor-synced milestones are published
// on an in-memory event bus (packages service/event and
// service/messaging/memory) that a binding layer can drain for an audit
// trail.
package gradsync
