package server

import (
	"context"
	"fmt"
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"

	"github.com/oggyb/social-graph/internal/config"
)

// NewGRPCServer builds a gRPC server with every registrar attached and
// reflection enabled for grpcurl.
func NewGRPCServer(registrars ...Registrar) *grpc.Server {
	grpcServer := grpc.NewServer()

	// register all services
	for _, r := range registrars {
		r.Register(grpcServer)
	}

	reflection.Register(grpcServer)
	return grpcServer
}

// StartGRPCServer serves until ctx is done, then stops gracefully.
func StartGRPCServer(ctx context.Context, cfg *config.Config, registrars ...Registrar) error {
	addr := fmt.Sprintf("%s:%s", cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	grpcServer := NewGRPCServer(registrars...)

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	return grpcServer.Serve(lis)
}
