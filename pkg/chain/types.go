package chain

import (
	"context"
	"encoding/json"
	"fmt"
)

//go:generate mockgen -destination=mock_chain/mock_querier.go -package=mock_chain . Querier

// Querier is the contract access used by the mirroring jobs and the votes
// service.
type Querier interface {
	// QuerySmart runs a smart query and returns the raw JSON result.
	QuerySmart(ctx context.Context, contract string, query interface{}) (json.RawMessage, error)
	// ContractsByCode lists every contract instantiated from codeID.
	ContractsByCode(ctx context.Context, codeID uint64) ([]string, error)
	// ContractInfo returns the metadata of one contract.
	ContractInfo(ctx context.Context, address string) (*ContractInfo, error)
	// BroadcastTx submits signed tx bytes in sync mode.
	BroadcastTx(ctx context.Context, txBytes []byte) (*TxResponse, error)
}

// ContractInfo is the metadata of an instantiated contract.
type ContractInfo struct {
	Address string `json:"address"`
	CodeID  uint64 `json:"code_id,string"`
	Creator string `json:"creator"`
	Admin   string `json:"admin"`
	Label   string `json:"label"`
}

// TxResponse is the result of a broadcast.
type TxResponse struct {
	TxHash string `json:"txhash"`
	Height int64  `json:"height"`
	Code   uint32 `json:"code"`
	RawLog string `json:"raw_log"`
}

// Query runs a smart query and decodes the result into T.
func Query[T any](ctx context.Context, q Querier, contract string, query interface{}) (T, error) {
	var out T
	raw, err := q.QuerySmart(ctx, contract, query)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s result: %w", contract, err)
	}
	return out, nil
}
