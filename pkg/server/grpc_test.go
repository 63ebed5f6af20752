package server

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"
)

func Test_NewGRPCServer_Health(t *testing.T) {
	lis := bufconn.Listen(1024 * 1024)
	registered := false
	grpcServer, healthServer := NewGRPCServer(true, func(*grpc.Server) { registered = true })
	go func() {
		_ = grpcServer.Serve(lis)
	}()
	t.Cleanup(grpcServer.Stop)

	conn, err := grpc.NewClient("passthrough://bufnet",
		grpc.WithContextDialer(func(ctx context.Context, s string) (net.Conn, error) {
			return lis.Dial()
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	client := healthpb.NewHealthClient(conn)

	// given
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	// when
	resp, err := client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	// then
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.Status)
	require.True(t, registered)

	// given
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	// when
	resp, err = client.Check(context.Background(), &healthpb.HealthCheckRequest{})
	// then
	require.NoError(t, err)
	require.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}
