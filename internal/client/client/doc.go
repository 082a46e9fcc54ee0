// Package client is the gRPC client of the identity service.
//
// GRPCClient speaks the JSON codec from internal/rpc and keeps the token
// pair of the logged-in user. Every protected call carries the access token
// in the "access_token" metadata key; when the server answers that the token
// has expired, the client exchanges it once through RefreshToken and retries
// the call with the new token.
package client
