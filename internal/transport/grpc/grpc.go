package grpctransport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"github.com/corray333/backend-labs/food-ordering/pkg/metrics"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type service interface {
	CreateOrder(ctx context.Context, cmd order.CreateOrderCommand) (order.CreateOrderResponse, error)
	TrackOrder(ctx context.Context, trackingID ids.TrackingID) (order.TrackOrderResponse, error)
}

// GRPCTransport serves the order API and the standard health service.
type GRPCTransport struct {
	server   *grpc.Server
	listener net.Listener
	health   *health.Server
}

// NewGRPCTransport listens on server.grpc.port.
func NewGRPCTransport(service service, m *metrics.Metrics) *GRPCTransport {
	port := viper.GetString("server.grpc.port")
	if port == "" {
		port = "9090"
	}

	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		panic(err)
	}

	return newGRPCTransport(service, m, listener)
}

func newGRPCTransport(service service, m *metrics.Metrics, listener net.Listener) *GRPCTransport {
	server := grpc.NewServer(
		grpc.KeepaliveParams(keepaliveParams()),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             durationOf("server.grpc.keepalive.min_time", time.Second),
			PermitWithoutStream: viper.GetBool("server.grpc.keepalive.permit_without_stream"),
		}),
		grpc.ChainUnaryInterceptor(observe(m)),
	)

	healthServer := health.NewServer()
	RegisterOrderServiceServer(server, NewOrderServer(service))
	healthpb.RegisterHealthServer(server, healthServer)
	healthServer.SetServingStatus(serviceName, healthpb.HealthCheckResponse_SERVING)

	return &GRPCTransport{
		server:   server,
		listener: listener,
		health:   healthServer,
	}
}

// Run blocks serving until Shutdown.
func (g *GRPCTransport) Run() error {
	slog.Info("Starting gRPC server", "address", g.listener.Addr().String())

	return g.server.Serve(g.listener)
}

// Shutdown reports NOT_SERVING, drains in-flight calls and forces a stop when ctx ends first.
func (g *GRPCTransport) Shutdown(ctx context.Context) error {
	g.health.Shutdown()

	drained := make(chan struct{})
	go func() {
		g.server.GracefulStop()
		close(drained)
	}()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		g.server.Stop()

		return ctx.Err()
	}
}

func keepaliveParams() keepalive.ServerParameters {
	return keepalive.ServerParameters{
		MaxConnectionIdle:     durationOf("server.grpc.keepalive.max_connection_idle", time.Minute),
		MaxConnectionAge:      durationOf("server.grpc.keepalive.max_connection_age", time.Minute),
		MaxConnectionAgeGrace: durationOf("server.grpc.keepalive.max_connection_age_grace", time.Second),
		Time:                  durationOf("server.grpc.keepalive.time", time.Second),
		Timeout:               durationOf("server.grpc.keepalive.timeout", time.Second),
	}
}

// durationOf reads an integer key in the given unit. Zero keeps the grpc default.
func durationOf(key string, unit time.Duration) time.Duration {
	return time.Duration(viper.GetInt(key)) * unit
}

// observe continues the caller's trace, then logs and counts every unary call.
func observe(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = otel.GetTextMapPropagator().Extract(ctx, metadataCarrier(md))

		ctx, span := otel.Tracer("food-ordering").Start(ctx, info.FullMethod,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("rpc.system", "grpc")),
		)
		defer span.End()

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		span.SetAttributes(attribute.String("rpc.grpc.status_code", code.String()))
		if code == codes.Internal || code == codes.Unknown {
			span.SetStatus(otelcodes.Error, err.Error())
		}
		m.Observe(info.FullMethod, code.String(), time.Since(start))

		slog.InfoContext(ctx, "gRPC call",
			"method", info.FullMethod,
			"code", code.String(),
			"duration", time.Since(start),
		)

		return resp, err
	}
}

// metadataCarrier lets the otel propagator read incoming gRPC metadata.
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}

	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}

	return keys
}
