// Package chain provides a CosmWasm gRPC client with endpoint failover.
package chain

import "errors"

var (
	// ErrNoEndpoints indicates that at least one gRPC endpoint is required.
	ErrNoEndpoints = errors.New("at least one gRPC endpoint is required")
	// ErrAllEndpointsFailed indicates that every endpoint failed the call.
	ErrAllEndpointsFailed = errors.New("all attempts failed across gRPC endpoints")
	// ErrQuery indicates that the node rejected the request.
	ErrQuery = errors.New("chain query rejected")
	// ErrTxFailed indicates a broadcast with a non-zero result code.
	ErrTxFailed = errors.New("transaction failed")
)
