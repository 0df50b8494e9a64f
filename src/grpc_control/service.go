package grpc_control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"quake-observer/src/dashboard"
	"quake-observer/src/helpers"
	"quake-observer/src/interfaces"
	"quake-observer/src/logger"
	"quake-observer/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// ControlService exposes the live dashboard sessions to operators.
type ControlService struct {
	Registry interfaces.ISessionRegistry
	Logger   *logger.Logger
}

// NewControlService creates a new instance of ControlService
func NewControlService(registry interfaces.ISessionRegistry, log *logger.Logger) *ControlService {
	if log == nil {
		log = logger.NewLogger(nil, "ControlService")
	}
	return &ControlService{
		Registry: registry,
		Logger:   log,
	}
}

// -----------------------------------------------------------------------------

func (s *ControlService) ListSessions(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	return toStruct(map[string]interface{}{"sessions": s.Registry.List()})
}

// -----------------------------------------------------------------------------

// GetStatus expects {"session_id": "..."}.
func (s *ControlService) GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	st, err := s.Registry.Status(id)
	if err != nil {
		return nil, toStatus(err)
	}
	return toStruct(st)
}

// -----------------------------------------------------------------------------

// UpdateFilter expects {"session_id": "...", "min_magnitude": 4, ...}. Absent
// filter fields are left untouched. Returns the resulting filter.
func (s *ControlService) UpdateFilter(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	patch, err := filterPatch(req)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.Registry.UpdateFilter(id, patch)
	if err != nil {
		s.Logger.Warning("gRPC: UpdateFilter %s failed: %v", id, err)
		return nil, toStatus(err)
	}
	s.Logger.Info("gRPC: UpdateFilter %s -> %+v", id, snapshot)
	return toStruct(snapshot)
}

// -----------------------------------------------------------------------------

// Retry expects {"session_id": "..."}.
func (s *ControlService) Retry(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	id, err := sessionID(req)
	if err != nil {
		return nil, err
	}
	if err := s.Registry.Retry(id); err != nil {
		return nil, toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

// -----------------------------------------------------------------------------
// Conversion
// -----------------------------------------------------------------------------

func sessionID(req *structpb.Struct) (string, error) {
	v, ok := req.GetFields()["session_id"]
	if !ok || v.GetStringValue() == "" {
		return "", status.Error(codes.InvalidArgument, "session_id is required")
	}
	return v.GetStringValue(), nil
}

func filterPatch(req *structpb.Struct) (models.MFilterPatch, error) {
	var patch models.MFilterPatch
	fields := req.GetFields()
	for name, dst := range map[string]**float64{
		models.ParamMinMagnitude:   &patch.MinMagnitude,
		models.ParamMaxDepth:       &patch.MaxDepth,
		models.ParamTimeRangeHours: &patch.TimeRangeHours,
	} {
		v, ok := fields[name]
		if !ok {
			continue
		}
		n, ok := v.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return patch, status.Errorf(codes.InvalidArgument, "%s must be a number", name)
		}
		f := n.NumberValue
		*dst = &f
	}
	return patch, nil
}

// toStruct goes through JSON so the models' json tags define the shape.
func toStruct(v interface{}) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "encoding response: %v", err)
	}
	return out, nil
}

func toStatus(err error) error {
	var invErr *helpers.InvalidFilterValueError
	switch {
	case errors.Is(err, dashboard.ErrUnknownSession):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, dashboard.ErrRetryRateLimited):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, dashboard.ErrSessionClosed):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.As(err, &invErr):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// -----------------------------------------------------------------------------
// Service descriptor
// -----------------------------------------------------------------------------

const ServiceName = "quakeobserver.Control"

// ControlServer is the server API of the control service.
type ControlServer interface {
	ListSessions(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateFilter(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Retry(context.Context, *structpb.Struct) (*emptypb.Empty, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSessions", Handler: unary("ListSessions", func(s ControlServer, ctx context.Context, in *emptypb.Empty) (interface{}, error) {
			return s.ListSessions(ctx, in)
		})},
		{MethodName: "GetStatus", Handler: unary("GetStatus", func(s ControlServer, ctx context.Context, in *structpb.Struct) (interface{}, error) {
			return s.GetStatus(ctx, in)
		})},
		{MethodName: "UpdateFilter", Handler: unary("UpdateFilter", func(s ControlServer, ctx context.Context, in *structpb.Struct) (interface{}, error) {
			return s.UpdateFilter(ctx, in)
		})},
		{MethodName: "Retry", Handler: unary("Retry", func(s ControlServer, ctx context.Context, in *structpb.Struct) (interface{}, error) {
			return s.Retry(ctx, in)
		})},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterControlServer registers srv on s.
func RegisterControlServer(s grpc.ServiceRegistrar, srv ControlServer) {
	s.RegisterService(&ServiceDesc, srv)
}

func unary[Req any, PReq interface {
	*Req
}](method string, call func(ControlServer, context.Context, PReq) (interface{}, error)) grpc.MethodHandler {
	fullMethod := fmt.Sprintf("/%s/%s", ServiceName, method)
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := PReq(new(Req))
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(ControlServer), ctx, req.(PReq))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// ControlClient calls a remote control service.
type ControlClient struct {
	cc grpc.ClientConnInterface
}

func NewControlClient(cc grpc.ClientConnInterface) *ControlClient {
	return &ControlClient{cc: cc}
}

func (c *ControlClient) invoke(ctx context.Context, method string, in, out interface{}) error {
	return c.cc.Invoke(ctx, fmt.Sprintf("/%s/%s", ServiceName, method), in, out)
}

func (c *ControlClient) ListSessions(ctx context.Context) (*structpb.Struct, error) {
	out := &structpb.Struct{}
	return out, c.invoke(ctx, "ListSessions", &emptypb.Empty{}, out)
}

func (c *ControlClient) GetStatus(ctx context.Context, sessionID string) (*structpb.Struct, error) {
	in, _ := structpb.NewStruct(map[string]interface{}{"session_id": sessionID})
	out := &structpb.Struct{}
	return out, c.invoke(ctx, "GetStatus", in, out)
}

// UpdateFilter sends only the non-nil fields of patch.
func (c *ControlClient) UpdateFilter(ctx context.Context, sessionID string, patch models.MFilterPatch) (*structpb.Struct, error) {
	fields := map[string]interface{}{"session_id": sessionID}
	for name, v := range map[string]*float64{
		models.ParamMinMagnitude:   patch.MinMagnitude,
		models.ParamMaxDepth:       patch.MaxDepth,
		models.ParamTimeRangeHours: patch.TimeRangeHours,
	} {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil, status.Errorf(codes.InvalidArgument, "%s must be finite", name)
		}
		fields[name] = *v
	}
	in, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	return out, c.invoke(ctx, "UpdateFilter", in, out)
}

func (c *ControlClient) Retry(ctx context.Context, sessionID string) error {
	in, _ := structpb.NewStruct(map[string]interface{}{"session_id": sessionID})
	return c.invoke(ctx, "Retry", in, &emptypb.Empty{})
}
