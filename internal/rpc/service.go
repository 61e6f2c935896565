package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/banshee-data/dbscan/internal/job"
	"github.com/banshee-data/dbscan/internal/monitoring"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "dbscan.v1.Clusterer"
	// ClusterMethod is the full method path of the unary Cluster call.
	ClusterMethod = "/" + ServiceName + "/Cluster"

	// MetadataRunID carries the stored run id in the response header.
	MetadataRunID = "x-dbscan-run-id"
	// MetadataAlgorithm carries the neighbour finder that served the job.
	MetadataAlgorithm = "x-dbscan-algorithm"
)

// ClustererServer is the server API for the Clusterer service.
type ClustererServer interface {
	Cluster(ctx context.Context, raw json.RawMessage) (*job.Response, error)
}

// ServiceDesc describes the Clusterer service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ClustererServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Cluster", Handler: clusterHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dbscan/v1/clusterer",
}

// The request is decoded as raw JSON so malformed jobs map to
// InvalidArgument rather than the codec's Internal error.
func clusterHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	var in json.RawMessage
	if err := dec(&in); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "decode job: %v", err)
	}
	if interceptor == nil {
		return srv.(ClustererServer).Cluster(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ClusterMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ClustererServer).Cluster(ctx, req.(json.RawMessage))
	}
	return interceptor(ctx, in, info, handler)
}

// Server implements ClustererServer on top of a job.Runner.
type Server struct {
	runner *job.Runner
	log    *monitoring.Logger
}

// NewServer returns a Server executing jobs with runner.
func NewServer(runner *job.Runner) *Server {
	return &Server{runner: runner, log: monitoring.NewLogger("rpc")}
}

// Register registers s on grpcServer.
func Register(grpcServer *grpc.Server, s *Server) {
	grpcServer.RegisterService(&ServiceDesc, s)
}

// Cluster runs one job.
func (s *Server) Cluster(ctx context.Context, raw json.RawMessage) (*job.Response, error) {
	if limit := s.runner.Config().GetMaxRequestBytes(); int64(len(raw)) > limit {
		return nil, status.Errorf(codes.ResourceExhausted, "%v: body exceeds %d bytes", job.ErrRequestTooLarge, limit)
	}
	req, err := job.DecodeBytes(raw)
	if err != nil {
		return nil, toStatus(err)
	}
	resp, err := s.runner.Run(ctx, req)
	if err != nil {
		if code := status.Code(toStatus(err)); code == codes.Internal {
			s.log.Printf("cluster job failed: %v", err)
		}
		return nil, toStatus(err)
	}

	md := metadata.Pairs(MetadataAlgorithm, string(resp.Algorithm))
	if resp.RunID != "" {
		md.Append(MetadataRunID, resp.RunID)
	}
	if err := grpc.SetHeader(ctx, md); err != nil {
		s.log.Printf("failed to set response header: %v", err)
	}
	return resp, nil
}

// toStatus maps a job error onto a gRPC status.
func toStatus(err error) error {
	switch {
	case job.IsInputError(err):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

// Listener owns a grpc.Server bound to a TCP address.
type Listener struct {
	addr     string
	server   *grpc.Server
	listener net.Listener
	wg       sync.WaitGroup
}

// NewListener builds a grpc.Server serving s. maxMsgSize bounds request and
// response sizes; it should be at least the job size limit.
func NewListener(addr string, s *Server, maxMsgSize int) *Listener {
	gs := grpc.NewServer(
		grpc.MaxRecvMsgSize(maxMsgSize),
		grpc.MaxSendMsgSize(maxMsgSize),
	)
	Register(gs, s)
	return &Listener{addr: addr, server: gs}
}

// Start binds the address and serves in the background.
func (l *Listener) Start() error {
	monitoring.Logf("[rpc] Attempting to bind to %s...", l.addr)
	lis, err := net.Listen("tcp", l.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	l.listener = lis

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		monitoring.Logf("[rpc] gRPC server listening on %s", lis.Addr())
		if err := l.server.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			monitoring.Logf("[rpc] gRPC server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (l *Listener) Addr() net.Addr {
	if l.listener == nil {
		return nil
	}
	return l.listener.Addr()
}

// Stop gracefully stops the server and waits for Serve to return.
func (l *Listener) Stop() {
	l.server.GracefulStop()
	l.wg.Wait()
}
