package handler

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"vextract/parse-gateway/internal/models"
	"vextract/parse-gateway/internal/utils"
)

// ParserServiceName gRPC 服务名
const ParserServiceName = "videoextract.ParserService"

// JSONCodecName gRPC 消息使用 JSON 编码, 客户端需设置 content-subtype
const JSONCodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v any) ([]byte, error)      { return json.Marshal(v) }
func (jsonCodec) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }
func (jsonCodec) Name() string                       { return JSONCodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// ParseVideoRequest gRPC 解析请求
type ParseVideoRequest struct {
	URL       string               `json:"url"`
	Platform  string               `json:"platform,omitempty"`
	Options   *models.ParseOptions `json:"options,omitempty"`
	SkipCache bool                 `json:"skipCache,omitempty"`
}

// ParseVideoResponse gRPC 解析响应
type ParseVideoResponse struct {
	Data     *models.VideoDescriptor `json:"data"`
	ExecTime float64                 `json:"execTime"`
}

// ListPlatformsRequest 平台列表请求
type ListPlatformsRequest struct{}

// ListPlatformsResponse 平台列表响应
type ListPlatformsResponse struct {
	Platforms []models.PlatformInfo `json:"platforms"`
	Total     int                   `json:"total"`
}

// ParserServiceServer gRPC 解析服务接口
type ParserServiceServer interface {
	ParseVideo(ctx context.Context, req *ParseVideoRequest) (*ParseVideoResponse, error)
	ListPlatforms(ctx context.Context, req *ListPlatformsRequest) (*ListPlatformsResponse, error)
}

// ParserServiceDesc gRPC 服务描述
var ParserServiceDesc = grpc.ServiceDesc{
	ServiceName: ParserServiceName,
	HandlerType: (*ParserServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ParseVideo", Handler: parseVideoHandler},
		{MethodName: "ListPlatforms", Handler: listPlatformsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "videoextract/parser.proto",
}

func parseVideoHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ParseVideoRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParserServiceServer).ParseVideo(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ParserServiceName + "/ParseVideo"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParserServiceServer).ParseVideo(ctx, req.(*ParseVideoRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func listPlatformsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(ListPlatformsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ParserServiceServer).ListPlatforms(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ParserServiceName + "/ListPlatforms"}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ParserServiceServer).ListPlatforms(ctx, req.(*ListPlatformsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// GRPCServer gRPC服务器
type GRPCServer struct {
	parser VideoParser
	logger *zap.Logger
}

// NewGRPCServer 创建gRPC服务器
func NewGRPCServer(parser VideoParser, logger *zap.Logger) *GRPCServer {
	return &GRPCServer{
		parser: parser,
		logger: logger,
	}
}

// Register 注册解析服务和健康检查服务
func (s *GRPCServer) Register(server *grpc.Server) *health.Server {
	server.RegisterService(&ParserServiceDesc, s)

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(ParserServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)
	return hs
}

// ParseVideo 解析视频
func (s *GRPCServer) ParseVideo(ctx context.Context, req *ParseVideoRequest) (*ParseVideoResponse, error) {
	s.logger.Info("ParseVideo request", zap.String("url", req.URL), zap.String("platform", req.Platform))

	if !s.parser.IsSupported(req.URL) {
		return nil, status.Error(codes.InvalidArgument, msgUnsupported)
	}

	outcome := s.parser.ParseVideo(ctx, &models.ParseRequest{
		URL:       req.URL,
		Platform:  req.Platform,
		Options:   req.Options,
		SkipCache: req.SkipCache,
	})
	if !outcome.Success {
		return nil, mapErrorToGRPCStatus(outcome.Err, outcome.Error)
	}

	return &ParseVideoResponse{Data: outcome.Data, ExecTime: outcome.ExecTime}, nil
}

// ListPlatforms 支持的平台列表
func (s *GRPCServer) ListPlatforms(ctx context.Context, req *ListPlatformsRequest) (*ListPlatformsResponse, error) {
	platforms := s.parser.SupportedPlatforms()
	return &ListPlatformsResponse{Platforms: platforms, Total: len(platforms)}, nil
}

// mapErrorToGRPCStatus 将错误映射到gRPC状态码
func mapErrorToGRPCStatus(err error, msg string) error {
	switch {
	case utils.IsClientError(err):
		return status.Error(codes.InvalidArgument, msg)
	case errors.Is(err, utils.ErrNoActiveKey):
		return status.Error(codes.FailedPrecondition, msg)
	case errors.Is(err, utils.ErrUpstreamTimeout), errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, msg)
	case utils.IsUpstreamError(err):
		return status.Error(codes.Unavailable, msg)
	default:
		return status.Error(codes.Internal, "internal server error")
	}
}

// UnaryLoggingInterceptor 记录每次 gRPC 调用
func UnaryLoggingInterceptor(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc call",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("latency", time.Since(start)),
		)
		return resp, err
	}
}

// ParserClient gRPC 解析服务客户端
type ParserClient struct {
	cc grpc.ClientConnInterface
}

// NewParserClient 创建客户端
func NewParserClient(cc grpc.ClientConnInterface) *ParserClient {
	return &ParserClient{cc: cc}
}

// ParseVideo 调用解析
func (c *ParserClient) ParseVideo(ctx context.Context, in *ParseVideoRequest, opts ...grpc.CallOption) (*ParseVideoResponse, error) {
	out := new(ParseVideoResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ParserServiceName+"/ParseVideo", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPlatforms 获取平台列表
func (c *ParserClient) ListPlatforms(ctx context.Context, opts ...grpc.CallOption) (*ListPlatformsResponse, error) {
	out := new(ListPlatformsResponse)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(JSONCodecName)}, opts...)
	if err := c.cc.Invoke(ctx, "/"+ParserServiceName+"/ListPlatforms", &ListPlatformsRequest{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
