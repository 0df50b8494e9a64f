package main

import (
	"context"
	"fmt"
	"net"

	"quake-observer/src/config"
	pb "quake-observer/src/grpc_control"
	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/server"

	"google.golang.org/grpc"
)

// -----------------------------------------------------------------------------

// startServers starts the dashboard and, when a port is configured, the gRPC
// control server. Returns the gRPC server so it can be stopped, or nil.
func startServers(
	ctx context.Context,
	srv *server.DashboardServer,
	registry interfaces.ISessionRegistry,
	config *config.Config,
	appLogger *logger.Logger,
) *grpc.Server {

	// 1. Dashboard
	go func() {
		if err := srv.Start(ctx); err != nil {
			appLogger.Critical("Dashboard server failed: %v", err)
		}
	}()

	// 2. gRPC Control Server
	if config.GrpcPort == 0 {
		appLogger.Info("gRPC control server disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", config.GrpcHost, config.GrpcPort)
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		appLogger.Error("failed to listen for gRPC: %v", err)
		return nil
	}
	grpcServer := grpc.NewServer()
	pb.RegisterControlServer(grpcServer, pb.NewControlService(registry, logger.NewLogger(config.MConfig, "ControlService")))

	go func() {
		appLogger.Info("Starting gRPC Control Server on %s", addr)
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Error("failed to serve gRPC: %v", err)
		}
	}()
	return grpcServer
}
