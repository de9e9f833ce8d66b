package chain

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	wasmtypes "github.com/CosmWasm/wasmd/x/wasm/types"
	"github.com/cosmos/cosmos-sdk/types/query"
	txservice "github.com/cosmos/cosmos-sdk/types/tx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/metrics"
	"github.com/vazco/EthereumBridgeBackend/pkg/version"
)

// Wasm defines the CosmWasm queries the client uses.
type Wasm interface {
	SmartContractState(context.Context, *wasmtypes.QuerySmartContractStateRequest, ...grpc.CallOption) (*wasmtypes.QuerySmartContractStateResponse, error)
	ContractsByCode(context.Context, *wasmtypes.QueryContractsByCodeRequest, ...grpc.CallOption) (*wasmtypes.QueryContractsByCodeResponse, error)
	ContractInfo(context.Context, *wasmtypes.QueryContractInfoRequest, ...grpc.CallOption) (*wasmtypes.QueryContractInfoResponse, error)
}

// TxService defines transaction broadcasting.
type TxService interface {
	BroadcastTx(context.Context, *txservice.BroadcastTxRequest, ...grpc.CallOption) (*txservice.BroadcastTxResponse, error)
}

// endpoint holds the service clients of one gRPC connection.
type endpoint struct {
	address string
	wasm    Wasm
	tx      TxService
}

// Client wraps gRPC connections to several nodes and rotates to the next
// one on transport or server errors.
type Client struct {
	logger    *logging.Logger
	timeout   time.Duration
	endpoints []endpoint
	conns     []*grpc.ClientConn
	current   int
	mu        sync.RWMutex
}

var _ Querier = (*Client)(nil)

// EndpointConfig is a single gRPC endpoint with its TLS setting.
type EndpointConfig struct {
	Address string
	TLS     bool
}

// Config holds configuration for creating a new Client.
type Config struct {
	Endpoints []EndpointConfig
	Timeout   time.Duration
	Logger    *logging.Logger
	// DialOptions are appended to the transport options of every endpoint.
	DialOptions []grpc.DialOption
}

// NewClient creates a gRPC client for every endpoint. Connections are
// established lazily on the first call.
func NewClient(cfg Config) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, ErrNoEndpoints
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNoopLogger()
	}

	conns := make([]*grpc.ClientConn, 0, len(cfg.Endpoints))
	endpoints := make([]endpoint, 0, len(cfg.Endpoints))
	for _, ep := range cfg.Endpoints {
		creds := insecure.NewCredentials()
		if ep.TLS {
			creds = credentials.NewTLS(&tls.Config{MinVersion: tls.VersionTLS12})
		}
		opts := append([]grpc.DialOption{
			grpc.WithTransportCredentials(creds),
			grpc.WithUserAgent(version.AgentString()),
		}, cfg.DialOptions...)

		conn, err := grpc.NewClient(ep.Address, opts...)
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return nil, fmt.Errorf("failed to connect to %s: %w", ep.Address, err)
		}
		conns = append(conns, conn)
		endpoints = append(endpoints, endpoint{
			address: ep.Address,
			wasm:    wasmtypes.NewQueryClient(conn),
			tx:      txservice.NewServiceClient(conn),
		})
		logger.Info("Configured gRPC endpoint", "endpoint", ep.Address, "tls", ep.TLS)
	}

	c := newClient(endpoints, cfg.Timeout, logger)
	c.conns = conns
	return c, nil
}

func newClient(endpoints []endpoint, timeout time.Duration, logger *logging.Logger) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		logger:    logger,
		timeout:   timeout,
		endpoints: endpoints,
	}
}

// CurrentEndpoint returns the currently active endpoint.
func (c *Client) CurrentEndpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoints[c.current].address
}

func (c *Client) active() endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoints[c.current]
}

// Failover rotates to the next endpoint.
func (c *Client) Failover() {
	c.mu.Lock()
	defer c.mu.Unlock()

	old := c.current
	c.current = (c.current + 1) % len(c.endpoints)
	metrics.RecordChainFailover()
	c.logger.Warn("Failing over to next gRPC endpoint",
		"from", c.endpoints[old].address,
		"to", c.endpoints[c.current].address)
}

// Close closes all gRPC connections.
func (c *Client) Close() error {
	var errs []error
	for i, conn := range c.conns {
		if err := conn.Close(); err != nil {
			c.logger.Error("Failed to close gRPC connection", "endpoint", c.endpoints[i].address, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// withFailover tries call once per endpoint, rotating after every
// retryable failure. There is no backoff between attempts.
func withFailover[T any](ctx context.Context, c *Client, op string, call func(ctx context.Context, ep endpoint) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 0; attempt < len(c.endpoints); attempt++ {
		ep := c.active()

		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		resp, err := call(callCtx, ep)
		cancel()
		if err == nil {
			metrics.RecordChainRequest(op, "ok")
			return resp, nil
		}
		lastErr = err
		metrics.RecordChainRequest(op, "error")

		c.logger.Debug("RPC call failed", "op", op, "endpoint", ep.address, "attempt", attempt+1, "error", err)

		if !retryable(err) || ctx.Err() != nil {
			return zero, rejected(err)
		}
		if len(c.endpoints) > 1 {
			c.Failover()
		}
	}

	return zero, fmt.Errorf("%w: %s: %w", ErrAllEndpointsFailed, op, lastErr)
}

// retryable reports whether another node may answer the call differently.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	st, ok := status.FromError(err)
	if !ok {
		return true
	}
	switch st.Code() {
	case codes.Unavailable, codes.DeadlineExceeded, codes.ResourceExhausted, codes.Aborted, codes.Internal:
		return true
	}
	return false
}

// rejected tags a status the node answered deliberately with ErrQuery.
func rejected(err error) error {
	st, ok := status.FromError(err)
	if !ok || st.Code() == codes.Canceled {
		return err
	}
	return fmt.Errorf("%w: %s: %s", ErrQuery, st.Code(), st.Message())
}

// QuerySmart queries a CosmWasm smart contract with the given query message.
func (c *Client) QuerySmart(ctx context.Context, contract string, query interface{}) (json.RawMessage, error) {
	msg, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	return withFailover(ctx, c, "smart_query", func(ctx context.Context, ep endpoint) (json.RawMessage, error) {
		resp, err := ep.wasm.SmartContractState(ctx, &wasmtypes.QuerySmartContractStateRequest{
			Address:   contract,
			QueryData: msg,
		})
		if err != nil {
			return nil, err
		}
		return json.RawMessage(resp.Data), nil
	})
}

// ContractsByCode follows pagination until every contract of codeID is listed.
func (c *Client) ContractsByCode(ctx context.Context, codeID uint64) ([]string, error) {
	var all []string
	var nextKey []byte

	for {
		req := &wasmtypes.QueryContractsByCodeRequest{
			CodeId:     codeID,
			Pagination: &query.PageRequest{Key: nextKey},
		}
		resp, err := withFailover(ctx, c, "contracts_by_code", func(ctx context.Context, ep endpoint) (*wasmtypes.QueryContractsByCodeResponse, error) {
			return ep.wasm.ContractsByCode(ctx, req)
		})
		if err != nil {
			return nil, err
		}

		all = append(all, resp.Contracts...)
		if resp.Pagination == nil || len(resp.Pagination.NextKey) == 0 {
			return all, nil
		}
		nextKey = resp.Pagination.NextKey
	}
}

// ContractInfo returns the metadata of address.
func (c *Client) ContractInfo(ctx context.Context, address string) (*ContractInfo, error) {
	return withFailover(ctx, c, "contract_info", func(ctx context.Context, ep endpoint) (*ContractInfo, error) {
		resp, err := ep.wasm.ContractInfo(ctx, &wasmtypes.QueryContractInfoRequest{Address: address})
		if err != nil {
			return nil, err
		}
		return &ContractInfo{
			Address: resp.Address,
			CodeID:  resp.ContractInfo.CodeID,
			Creator: resp.ContractInfo.Creator,
			Admin:   resp.ContractInfo.Admin,
			Label:   resp.ContractInfo.Label,
		}, nil
	})
}

// BroadcastTx broadcasts a transaction to the chain using BROADCAST_MODE_SYNC.
func (c *Client) BroadcastTx(ctx context.Context, txBytes []byte) (*TxResponse, error) {
	req := &txservice.BroadcastTxRequest{
		TxBytes: txBytes,
		Mode:    txservice.BroadcastMode_BROADCAST_MODE_SYNC,
	}

	resp, err := withFailover(ctx, c, "broadcast_tx", func(ctx context.Context, ep endpoint) (*TxResponse, error) {
		res, err := ep.tx.BroadcastTx(ctx, req)
		if err != nil {
			return nil, err
		}
		if res.TxResponse == nil {
			return nil, fmt.Errorf("%w: empty broadcast response", ErrQuery)
		}
		return &TxResponse{
			TxHash: res.TxResponse.TxHash,
			Height: res.TxResponse.Height,
			Code:   res.TxResponse.Code,
			RawLog: res.TxResponse.RawLog,
		}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to broadcast tx: %w", err)
	}

	if resp.Code != 0 {
		return resp, fmt.Errorf("%w: code %d: %s", ErrTxFailed, resp.Code, resp.RawLog)
	}
	return resp, nil
}
