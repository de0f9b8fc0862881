package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/application"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/domain"
)

// CampaignQueryService is the internal read-only surface other services call
// to gate their own flows on campaign outcome.
type CampaignQueryService interface {
	GetCampaign(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type CampaignQueryServer struct {
	service *application.Service
}

func NewCampaignQueryServer(service *application.Service) *CampaignQueryServer {
	return &CampaignQueryServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc CampaignQueryService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "viralforge.funding.v1.CampaignQueryService",
		HandlerType: (*CampaignQueryService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetCampaign",
				Handler:    unaryHandler("GetCampaign", CampaignQueryService.GetCampaign),
			},
			{
				MethodName: "GetState",
				Handler:    unaryHandler("GetState", CampaignQueryService.GetState),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "mesh/contracts/proto/funding/v1/campaign_query.proto",
	}, svc)
}

func (s *CampaignQueryServer) GetCampaign(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	campaignID, err := campaignIDField(req)
	if err != nil {
		return nil, err
	}
	campaign, err := s.service.GetCampaignDetails(ctx, campaignID)
	if err != nil {
		return nil, mapQueryError(err)
	}
	view := s.service.View(campaign)
	resp, err := structpb.NewStruct(map[string]any{
		"campaign_id":    campaign.ID,
		"creator":        campaign.Creator,
		"title":          campaign.Title,
		"goal":           campaign.Goal,
		"amount_raised":  campaign.AmountRaised,
		"deadline_unix":  campaign.Deadline.Unix(),
		"state":          string(view.State),
		"goal_reached":   view.GoalReached,
		"time_remaining": view.TimeRemaining.Seconds(),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *CampaignQueryServer) GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	campaignID, err := campaignIDField(req)
	if err != nil {
		return nil, err
	}
	state, err := s.service.GetState(ctx, campaignID)
	if err != nil {
		return nil, mapQueryError(err)
	}
	resp, err := structpb.NewStruct(map[string]any{
		"campaign_id": campaignID,
		"state":       string(state),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func campaignIDField(req *structpb.Struct) (int64, error) {
	val := req.GetFields()["campaign_id"]
	if val == nil {
		return 0, status.Error(codes.InvalidArgument, "missing campaign_id")
	}
	id := int64(val.GetNumberValue())
	if id < 0 {
		return 0, status.Error(codes.InvalidArgument, "campaign_id must be non-negative")
	}
	return id, nil
}

func mapQueryError(err error) error {
	if errors.Is(err, domain.ErrCampaignNotFound) || errors.Is(err, domain.ErrNotFound) {
		return status.Error(codes.NotFound, "campaign not found")
	}
	return status.Errorf(codes.Internal, "query failed: %v", err)
}

func unaryHandler(method string, call func(CampaignQueryService, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/viralforge.funding.v1.CampaignQueryService/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		svc := srv.(CampaignQueryService)
		if interceptor == nil {
			return call(svc, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
			return call(svc, ctx, req.(*structpb.Struct))
		})
	}
}
