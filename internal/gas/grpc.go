package gas

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/vietddude/sentinel/internal/core/domain"
)

// GRPCFetchFunc executes the gas price call against a gRPC connection.
// Callers wrap their generated client here; the source stays free of any
// service-specific stubs.
type GRPCFetchFunc func(ctx context.Context, conn grpc.ClientConnInterface, key string) (float64, error)

var (
	grpcFetchMu    sync.RWMutex
	grpcFetchFuncs = map[string]GRPCFetchFunc{}
)

// RegisterGRPCFetch binds a fetch implementation to a grpc source name. The
// config file declares the source and its endpoint; the embedding code
// registers the generated-client call before sources are built.
func RegisterGRPCFetch(name string, fn GRPCFetchFunc) {
	grpcFetchMu.Lock()
	defer grpcFetchMu.Unlock()
	grpcFetchFuncs[name] = fn
}

func grpcFetchFor(name string) (GRPCFetchFunc, bool) {
	grpcFetchMu.RLock()
	defer grpcFetchMu.RUnlock()
	fn, ok := grpcFetchFuncs[name]
	return fn, ok
}

// GRPCSource fetches a gas price over a shared gRPC connection.
type GRPCSource struct {
	name       string
	endpoint   string
	timeout    time.Duration
	confidence domain.Confidence
	conn       *grpc.ClientConn
	fetch      GRPCFetchFunc
}

// NewGRPCSource dials the endpoint and wraps the injected fetch function.
func NewGRPCSource(name, endpoint string, timeout time.Duration, confidence domain.Confidence, fetch GRPCFetchFunc) (*GRPCSource, error) {
	if fetch == nil {
		return nil, fmt.Errorf("grpc source %s: fetch func is required", name)
	}
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}

	target := endpoint
	var opts []grpc.DialOption
	if strings.HasPrefix(endpoint, "https://") || strings.HasSuffix(endpoint, ":443") {
		creds := credentials.NewTLS(&tls.Config{})
		opts = append(opts, grpc.WithTransportCredentials(creds))
		target = strings.TrimPrefix(target, "https://")
	} else {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
		target = strings.TrimPrefix(target, "http://")
	}

	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to dial grpc endpoint %s: %w", target, err)
	}

	return &GRPCSource{
		name:       name,
		endpoint:   endpoint,
		timeout:    timeout,
		confidence: confidence,
		conn:       conn,
		fetch:      fetch,
	}, nil
}

func (s *GRPCSource) Name() string { return s.name }

func (s *GRPCSource) Confidence() domain.Confidence { return s.confidence }

func (s *GRPCSource) Timeout() time.Duration { return s.timeout }

// Fetch invokes the injected call against the shared connection.
func (s *GRPCSource) Fetch(ctx context.Context, key string) (float64, error) {
	return s.fetch(ctx, s.conn, key)
}

// Close tears down the underlying connection.
func (s *GRPCSource) Close() error {
	return s.conn.Close()
}
