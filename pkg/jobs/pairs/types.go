package pairs

import "github.com/vazco/EthereumBridgeBackend/pkg/store"

type contractRef struct {
	Address  string `json:"address"`
	CodeHash string `json:"code_hash"`
}

// tokenType is either a custom SNIP-20 token or a native denom.
type tokenType struct {
	CustomToken *struct {
		ContractAddr  string `json:"contract_addr"`
		TokenCodeHash string `json:"token_code_hash"`
	} `json:"custom_token,omitempty"`
	NativeToken *struct {
		Denom string `json:"denom"`
	} `json:"native_token,omitempty"`
}

func (t tokenType) assetInfo() store.AssetInfo {
	if t.CustomToken == nil {
		return store.AssetInfo{}
	}
	return store.AssetInfo{Token: store.AssetToken{
		ContractAddr:  t.CustomToken.ContractAddr,
		TokenCodeHash: t.CustomToken.TokenCodeHash,
	}}
}

type pairInfoResponse struct {
	PairInfo struct {
		LiquidityToken contractRef `json:"liquidity_token"`
		Pair           struct {
			Token0 tokenType `json:"token_0"`
			Token1 tokenType `json:"token_1"`
		} `json:"pair"`
	} `json:"pair_info"`
}

type factoryInfoResponse struct {
	FactoryInfo contractRef `json:"factory_info"`
}

type poolResponse struct {
	Pool struct {
		Amount0 string `json:"amount_0"`
		Amount1 string `json:"amount_1"`
	} `json:"pool"`
}
