package common

// AuthorizationHeaderName is the gRPC metadata key carrying the bearer token.
const AuthorizationHeaderName = "authorization"

// BearerScheme prefixes the token in the authorization header.
const BearerScheme = "Bearer"
