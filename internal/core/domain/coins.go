package domain

type CoinSymbol string

const (
	CoinBTC        CoinSymbol = "btc"
	CoinBTCTestnet CoinSymbol = "btc-testnet"
	CoinLTC        CoinSymbol = "ltc"
	CoinDOGE       CoinSymbol = "doge"
	CoinDASH       CoinSymbol = "dash"
	CoinBCY        CoinSymbol = "bcy"
)

// CoinNetwork is the (coin, chain) pair used in provider API URLs.
type CoinNetwork struct {
	Coin  string
	Chain string
}

// CoinSymbolToNetwork maps a coin symbol to its provider URL path segments.
var CoinSymbolToNetwork = map[CoinSymbol]CoinNetwork{
	CoinBTC:        {Coin: "btc", Chain: "main"},
	CoinBTCTestnet: {Coin: "btc", Chain: "test3"},
	CoinLTC:        {Coin: "ltc", Chain: "main"},
	CoinDOGE:       {Coin: "doge", Chain: "main"},
	CoinDASH:       {Coin: "dash", Chain: "main"},
	CoinBCY:        {Coin: "bcy", Chain: "test"},
}
