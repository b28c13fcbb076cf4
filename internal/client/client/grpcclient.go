// Package client talks to the shopkeeper AuthService over gRPC and keeps the
// access token of the current session.
package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/shopkeeper/internal/common"
	authgrpc "github.com/dmitrijs2005/shopkeeper/internal/server/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// authAPI is the subset of authgrpc.AuthClient used here.
type authAPI interface {
	Register(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	Login(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	VerifyToken(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
	WhoAmI(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)
}

// Session is what Register and Login hand back.
type Session struct {
	AccessToken string
	TokenType   string
	Subject     string
}

// TokenInfo is the decoded result of VerifyToken.
type TokenInfo struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Registration carries the sign-up form. Nil optional fields are sent as
// absent.
type Registration struct {
	Email    string
	Password []byte
	FullName *string
	Phone    *string
	Address  *string
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      authAPI

	mu          sync.RWMutex
	accessToken string
}

func NewAuthClient(endpointURL string) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL}
	conn, err := grpc.NewClient(endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor))
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = authgrpc.NewAuthClient(conn)
	return c, nil
}

func (c *GRPCClient) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

func (c *GRPCClient) token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.accessToken
}

func (c *GRPCClient) setToken(t string) {
	c.mu.Lock()
	c.accessToken = t
	c.mu.Unlock()
}

func (c *GRPCClient) LoggedIn() bool {
	return c.token() != ""
}

func (c *GRPCClient) Logout() {
	c.setToken("")
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	md.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+token)
	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenInterceptor attaches the session token when one is held.
func (c *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if t := c.token(); t != "" {
		ctx = withAccessToken(ctx, t)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (c *GRPCClient) Register(ctx context.Context, r Registration) (*Session, error) {
	fields := map[string]any{
		"email":    r.Email,
		"password": string(r.Password),
	}
	putOptional(fields, "full_name", r.FullName)
	putOptional(fields, "phone", r.Phone)
	putOptional(fields, "address", r.Address)

	req, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Register(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}
	return c.startSession(resp)
}

func (c *GRPCClient) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	req, err := structpb.NewStruct(map[string]any{
		"email":    email,
		"password": string(password),
	})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Login(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}
	return c.startSession(resp)
}

func (c *GRPCClient) VerifyToken(ctx context.Context, token string) (*TokenInfo, error) {
	req, err := structpb.NewStruct(map[string]any{"token": token})
	if err != nil {
		return nil, err
	}

	resp, err := c.client.VerifyToken(ctx, req)
	if err != nil {
		return nil, c.mapError(err)
	}

	info := &TokenInfo{
		Subject: field(resp, "subject"),
		Role:    field(resp, "role"),
	}
	if exp := field(resp, "expires_at"); exp != "" {
		if info.ExpiresAt, err = time.Parse(time.RFC3339, exp); err != nil {
			return nil, fmt.Errorf("bad expires_at: %w", err)
		}
	}
	return info, nil
}

// WhoAmI returns the profile of the logged-in account as a flat map.
func (c *GRPCClient) WhoAmI(ctx context.Context) (map[string]any, error) {
	if !c.LoggedIn() {
		return nil, ErrNotLoggedIn
	}

	resp, err := c.client.WhoAmI(ctx, &structpb.Struct{})
	if err != nil {
		return nil, c.mapError(err)
	}
	return resp.AsMap(), nil
}

// CurrentToken exposes the held token, empty when logged out.
func (c *GRPCClient) CurrentToken() string {
	return c.token()
}

func (c *GRPCClient) startSession(resp *structpb.Struct) (*Session, error) {
	s := &Session{
		AccessToken: field(resp, "access_token"),
		TokenType:   field(resp, "token_type"),
		Subject:     field(resp, "subject"),
	}
	if s.AccessToken == "" {
		return nil, errors.New("server returned no access token")
	}
	c.setToken(s.AccessToken)
	return s, nil
}

func (c *GRPCClient) mapError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.Unavailable:
		return ErrUnavailable
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.AlreadyExists:
		return ErrEmailTaken
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	default:
		return err
	}
}

func putOptional(m map[string]any, key string, v *string) {
	if v != nil {
		m[key] = *v
	}
}

func field(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}
