package oracles

import "errors"

var (
	// ErrPrerequisite indicates that a ratio oracle could not fetch its reference price.
	ErrPrerequisite = errors.New("reference price lookup failed")
	// ErrMalformedResponse indicates a successful response without the expected value shape.
	ErrMalformedResponse = errors.New("malformed oracle response")
	// ErrUnexpectedStatus indicates an unexpected HTTP status code.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status code")
	// ErrDecode indicates that a response body could not be decoded.
	ErrDecode = errors.New("failed to decode response")
	// ErrUnknownOracle indicates that no factory is registered for an oracle type.
	ErrUnknownOracle = errors.New("unknown oracle type")
	// ErrInvalidConfig indicates that the oracle configuration is invalid.
	ErrInvalidConfig = errors.New("invalid oracle configuration")
	// ErrRPCURLRequired indicates that rpc_url is required.
	ErrRPCURLRequired = errors.New("rpc_url is required")
	// ErrZeroLiquidity indicates that there is zero liquidity in the pool.
	ErrZeroLiquidity = errors.New("zero liquidity in pool")
)
