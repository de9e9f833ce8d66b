package pairs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vazco/EthereumBridgeBackend/pkg/chain"
	"github.com/vazco/EthereumBridgeBackend/pkg/chain/mock_chain"
	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
	"github.com/vazco/EthereumBridgeBackend/pkg/store/memstore"
)

const collection = "secretswap_pairs"

func jobConfig() *config.PairsJobConfig {
	return &config.PairsJobConfig{
		Collection:      collection,
		FactoryContract: "secret1factory",
		PairCodeID:      12,
	}
}

// pairQueries answers the three pair queries for any address.
func pairQueries(_ context.Context, contract string, query interface{}) (json.RawMessage, error) {
	q, ok := query.(map[string]struct{})
	if !ok {
		return nil, fmt.Errorf("unexpected query %T", query)
	}
	switch {
	case has(q, "pair_info"):
		return json.RawMessage(fmt.Sprintf(`{"pair_info":{
			"liquidity_token":{"address":"lp-%[1]s","code_hash":"lphash"},
			"pair":{
				"token_0":{"custom_token":{"contract_addr":"t0-%[1]s","token_code_hash":"h0"}},
				"token_1":{"native_token":{"denom":"uscrt"}}}}}`, contract)), nil
	case has(q, "factory_info"):
		return json.RawMessage(`{"factory_info":{"address":"secret1factory","code_hash":"fhash"}}`), nil
	case has(q, "pool"):
		return json.RawMessage(`{"pool":{"amount_0":"100","amount_1":"250"}}`), nil
	}
	return nil, fmt.Errorf("unexpected query %v", q)
}

func has(q map[string]struct{}, key string) bool {
	_, ok := q[key]
	return ok
}

func TestJob_InsertsNewPairs(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mock_chain.NewMockQuerier(ctrl)

	mem := memstore.New()
	require.NoError(t, mem.InsertPairs(context.Background(), collection, []store.Pair{{ID: "known"}}))

	q.EXPECT().ContractsByCode(gomock.Any(), uint64(12)).Return([]string{"known", "new", "foreign"}, nil)
	q.EXPECT().ContractInfo(gomock.Any(), "new").Return(&chain.ContractInfo{Label: "SCRT-ETH-secret1factory-12"}, nil)
	q.EXPECT().ContractInfo(gomock.Any(), "foreign").Return(&chain.ContractInfo{Label: "other-factory-12"}, nil)
	q.EXPECT().QuerySmart(gomock.Any(), "new", gomock.Any()).DoAndReturn(pairQueries).Times(3)

	job := NewJob(jobConfig(), mem, q, logging.NewNoopLogger())
	require.NoError(t, job.Run(context.Background()))

	stored := mem.Pairs(collection)
	require.Len(t, stored, 2)
	p := stored[1]
	assert.Equal(t, "new", p.ID)
	assert.Equal(t, "new", p.ContractAddr)
	assert.Equal(t, "lp-new", p.LiquidityToken)
	assert.Equal(t, "lphash", p.TokenCodeHash)
	assert.Equal(t, "t0-new", p.AssetInfos[0].Token.ContractAddr)
	assert.Empty(t, p.AssetInfos[1].Token.ContractAddr)
	assert.Equal(t, store.Contract{Address: "secret1factory", CodeHash: "fhash"}, p.Factory)
	assert.Equal(t, "100", p.Asset0Volume)
	assert.Equal(t, "250", p.Asset1Volume)

	connects, closes := mem.Connections()
	assert.Equal(t, 1, connects)
	assert.Equal(t, 1, closes)
}

func TestJob_NoNewPairs(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mock_chain.NewMockQuerier(ctrl)

	mem := memstore.New()
	require.NoError(t, mem.InsertPairs(context.Background(), collection, []store.Pair{{ID: "known"}}))
	q.EXPECT().ContractsByCode(gomock.Any(), uint64(12)).Return([]string{"known"}, nil)

	job := NewJob(jobConfig(), mem, q, logging.NewNoopLogger())
	require.NoError(t, job.Run(context.Background()))
	assert.Len(t, mem.Pairs(collection), 1)
}

func TestJob_ChainErrorWritesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mock_chain.NewMockQuerier(ctrl)
	mem := memstore.New()

	q.EXPECT().ContractsByCode(gomock.Any(), uint64(12)).Return([]string{"a", "b"}, nil)
	q.EXPECT().ContractInfo(gomock.Any(), gomock.Any()).Return(&chain.ContractInfo{Label: "x-secret1factory-12"}, nil).Times(2)
	q.EXPECT().QuerySmart(gomock.Any(), "a", gomock.Any()).DoAndReturn(pairQueries).AnyTimes()
	q.EXPECT().QuerySmart(gomock.Any(), "b", gomock.Any()).Return(nil, chain.ErrAllEndpointsFailed).AnyTimes()

	job := NewJob(jobConfig(), mem, q, logging.NewNoopLogger())
	err := job.Run(context.Background())
	assert.ErrorIs(t, err, ErrRun)
	assert.ErrorIs(t, err, chain.ErrAllEndpointsFailed)
	assert.Empty(t, mem.Pairs(collection))

	_, closes := mem.Connections()
	assert.Equal(t, 1, closes)
}

func TestJob_ListingError(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mock_chain.NewMockQuerier(ctrl)
	mem := memstore.New()

	boom := errors.New("node down")
	q.EXPECT().ContractsByCode(gomock.Any(), uint64(12)).Return(nil, boom)

	job := NewJob(jobConfig(), mem, q, logging.NewNoopLogger())
	assert.ErrorIs(t, job.Run(context.Background()), boom)
}
