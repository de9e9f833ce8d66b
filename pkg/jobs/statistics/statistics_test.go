package statistics

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/vazco/EthereumBridgeBackend/pkg/chain/mock_chain"
	"github.com/vazco/EthereumBridgeBackend/pkg/config"
	"github.com/vazco/EthereumBridgeBackend/pkg/logging"
	"github.com/vazco/EthereumBridgeBackend/pkg/store"
	"github.com/vazco/EthereumBridgeBackend/pkg/store/memstore"
)

const scheduleYAML = `
- date: "03/01/2024"
  supply: "1000000"
- date: "03/02/2024"
  supply: "1500000"
`

func writeSchedule(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte(scheduleYAML), 0o600))
	return path
}

func jobConfig(t *testing.T) *config.StatisticsJobConfig {
	return &config.StatisticsJobConfig{
		Collection:         "sienna_token_statistics",
		SourceCollection:   "token_pairing",
		TokenName:          "Sienna Token",
		TokenSymbol:        "SIENNA",
		TokensLockedByTeam: "500000",
		ScheduleFile:       writeSchedule(t),
		Network:            "Secret Network",
		TokenType:          "SNIP-20",
	}
}

func siennaToken(price string) store.Token {
	return store.Token{
		"name":          "Sienna Token",
		"display_props": map[string]interface{}{"symbol": "SIENNA"},
		"dst_address":   "secret1sienna",
		"price":         price,
	}
}

func TestSchedule_SupplyOn(t *testing.T) {
	s, err := ParseSchedule([]byte(scheduleYAML))
	require.NoError(t, err)

	got, err := s.SupplyOn(time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "1500000", got.String())

	_, err = s.SupplyOn(time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC))
	assert.ErrorIs(t, err, ErrNoScheduleEntry)
}

func TestJob_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mock_chain.NewMockQuerier(ctrl)
	q.EXPECT().
		QuerySmart(gomock.Any(), "secret1sienna", map[string]struct{}{"token_info": {}}).
		Return(json.RawMessage(`{"token_info":{"name":"Sienna","symbol":"SIENNA","decimals":18,"total_supply":"10000000000000000000000000"}}`), nil).
		Times(2)

	mem := memstore.New()
	mem.AddTokens("token_pairing", siennaToken("2.5000"), store.Token{
		"name":          "Sienna Token",
		"display_props": map[string]interface{}{"symbol": "SIENNA(BSC)"},
	})

	job := NewJob(jobConfig(t), mem, q, logging.NewNoopLogger())
	job.now = func() time.Time { return time.Date(2024, 3, 1, 8, 0, 0, 0, time.Local) }

	require.NoError(t, job.Run(context.Background()))
	require.NoError(t, job.Run(context.Background()), "second run upserts the same document")

	stats := mem.Statistics("sienna_token_statistics")
	require.Len(t, stats, 1)
	s := stats[0]
	assert.Equal(t, "Sienna Token", s.Name)
	assert.Equal(t, "SIENNA", s.Symbol)
	assert.Equal(t, 18, s.Decimals)
	assert.InDelta(t, 10_000_000, s.TotalSupply, 1e-9)
	assert.InDelta(t, 10_000_000, s.MaxSupply, 1e-9)
	assert.InDelta(t, 500_000, s.CirculatingSupply, 1e-9)
	assert.InDelta(t, 2.5, s.PriceUSD, 1e-9)
	assert.InDelta(t, 1_250_000, s.MarketCapUSD, 1e-9)
	assert.InDelta(t, 500_000, s.TokensLockedByTeam, 1e-9)
	assert.Equal(t, "secret1sienna", s.ContractAddress)
	assert.Equal(t, "SNIP-20", s.Type)
}

func TestJob_Errors(t *testing.T) {
	tests := []struct {
		name    string
		tokens  []store.Token
		date    time.Time
		wantErr error
	}{
		{name: "token missing", wantErr: ErrTokenNotFound, date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)},
		{name: "no price", tokens: []store.Token{siennaToken("")}, wantErr: ErrNoPrice, date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.Local)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			q := mock_chain.NewMockQuerier(ctrl)

			mem := memstore.New()
			mem.AddTokens("token_pairing", tt.tokens...)

			job := NewJob(jobConfig(t), mem, q, logging.NewNoopLogger())
			job.now = func() time.Time { return tt.date }

			err := job.Run(context.Background())
			assert.ErrorIs(t, err, ErrRun)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, mem.Statistics("sienna_token_statistics"))
		})
	}
}

func TestJob_NoScheduleEntry(t *testing.T) {
	ctrl := gomock.NewController(t)
	q := mock_chain.NewMockQuerier(ctrl)
	q.EXPECT().QuerySmart(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(json.RawMessage(`{"token_info":{"decimals":6,"total_supply":"1000000"}}`), nil)

	mem := memstore.New()
	mem.AddTokens("token_pairing", siennaToken("1"))

	job := NewJob(jobConfig(t), mem, q, logging.NewNoopLogger())
	job.now = func() time.Time { return time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local) }

	assert.ErrorIs(t, job.Run(context.Background()), ErrNoScheduleEntry)
}
