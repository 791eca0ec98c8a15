package server

import (
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Registrar is a common interface for all gRPC service registrars
type Registrar interface {
	Register(s *grpc.Server)
}

// HealthRegistrar exposes the standard gRPC health service. Status is
// driven by the admin health probe (see Checker).
type HealthRegistrar struct {
	Health *health.Server
}

func NewHealthRegistrar() *HealthRegistrar {
	return &HealthRegistrar{Health: health.NewServer()}
}

// Register attaches the health service to the gRPC server
func (r *HealthRegistrar) Register(s *grpc.Server) {
	healthpb.RegisterHealthServer(s, r.Health)
}

// SetServing flips the overall ("") service status.
func (r *HealthRegistrar) SetServing(ok bool) {
	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	r.Health.SetServingStatus("", status)
}
