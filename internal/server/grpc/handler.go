package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	"github.com/dmitrijs2005/shopkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

func (s *GRPCServer) Register(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.creds.Register(ctx, services.RegisterInput{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
		FullName: optStringField(req, "full_name"),
		Phone:    optStringField(req, "phone"),
		Address:  optStringField(req, "address"),
	})
	if err != nil {
		return nil, toStatus(err)
	}

	return tokenResponse(res)
}

func (s *GRPCServer) Login(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	res, err := s.creds.Login(ctx, stringField(req, "email"), stringField(req, "password"))
	if err != nil {
		return nil, toStatus(err)
	}

	return tokenResponse(res)
}

func (s *GRPCServer) VerifyToken(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id, err := s.creds.VerifyToken(ctx, stringField(req, "token"))
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{
		"subject":    id.Subject,
		"role":       id.Role,
		"expires_at": id.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

func (s *GRPCServer) WhoAmI(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	p, err := s.creds.Profile(ctx, id)
	if err != nil {
		return nil, toStatus(err)
	}

	return newStruct(map[string]any{
		"id":          p.ID,
		"kind":        string(p.Kind),
		"role":        p.Role,
		"full_name":   nullable(p.FullName),
		"phone":       nullable(p.Phone),
		"address":     nullable(p.Address),
		"is_active":   p.IsActive,
		"is_verified": p.IsVerified,
		"created_at":  p.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// toStatus keeps the caller-facing messages generic: auth failures never
// say whether the email exists or the account is locked.
func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, "email already registered")
	case errors.Is(err, common.ErrorUnauthorized):
		return status.Error(codes.Unauthenticated, "invalid credentials")
	case errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, common.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}

func tokenResponse(res *services.TokenResult) (*structpb.Struct, error) {
	return newStruct(map[string]any{
		"access_token": res.Token,
		"token_type":   res.TokenType,
		"subject":      res.Subject,
	})
}

func newStruct(m map[string]any) (*structpb.Struct, error) {
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func stringField(req *structpb.Struct, key string) string {
	v, ok := req.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

// optStringField maps an absent or null field to nil.
func optStringField(req *structpb.Struct, key string) *string {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil
	}
	sv, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return nil
	}
	s := sv.StringValue
	return &s
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
