package mirror

type AccountInfo struct {
	Account string         `json:"account"`
	Key     map[string]any `json:"key"`
	Memo    string         `json:"memo"`
	Balance AccountBalance `json:"balance"`
}

type AccountBalance struct {
	Balance   int64          `json:"balance"`
	Timestamp string         `json:"timestamp"`
	Tokens    []TokenBalance `json:"tokens"`
}

type TokenBalance struct {
	TokenID string `json:"token_id"`
	Balance int64  `json:"balance"`
}

// AccountToken is one token relationship of an account. Its presence means
// the account is associated with the token.
type AccountToken struct {
	TokenID              string `json:"token_id"`
	Balance              int64  `json:"balance"`
	Decimals             int    `json:"decimals"`
	AutomaticAssociation bool   `json:"automatic_association"`
	CreatedTimestamp     string `json:"created_timestamp"`
	FreezeStatus         string `json:"freeze_status"`
	KycStatus            string `json:"kyc_status"`
}

type accountTokensResponse struct {
	Tokens []AccountToken `json:"tokens"`
	Links  struct {
		Next string `json:"next"`
	} `json:"links"`
}

// TokenInfo mirrors /api/v1/tokens/{id}. Numeric supply fields are strings on
// the wire.
type TokenInfo struct {
	TokenID           string         `json:"token_id"`
	Name              string         `json:"name"`
	Symbol            string         `json:"symbol"`
	Decimals          string         `json:"decimals"`
	InitialSupply     string         `json:"initial_supply"`
	TotalSupply       string         `json:"total_supply"`
	TreasuryAccountID string         `json:"treasury_account_id"`
	SupplyType        string         `json:"supply_type"`
	Type              string         `json:"type"`
	AdminKey          map[string]any `json:"admin_key"`
	SupplyKey         map[string]any `json:"supply_key"`
}

type TopicInfo struct {
	AdminKey         map[string]any `json:"admin_key"`
	AutoRenewAccount string         `json:"auto_renew_account"`
	AutoRenewPeriod  int64          `json:"auto_renew_period"`
	CreatedTimestamp string         `json:"created_timestamp"`
	Deleted          bool           `json:"deleted"`
	Memo             string         `json:"memo"`
	SubmitKey        map[string]any `json:"submit_key"`
	TopicID          string         `json:"topic_id"`
}

type TopicMessage struct {
	ConsensusTimestamp string     `json:"consensus_timestamp"`
	ChunkInfo          *ChunkInfo `json:"chunk_info,omitempty"`
	Message            string     `json:"message"`
	PayerAccountID     string     `json:"payer_account_id"`
	RunningHash        string     `json:"running_hash"`
	RunningHashVersion int64      `json:"running_hash_version"`
	SequenceNumber     int64      `json:"sequence_number"`
	TopicID            string     `json:"topic_id"`
}

type ChunkInfo struct {
	InitialTransactionID any `json:"initial_transaction_id,omitempty"`
	Number               int `json:"number,omitempty"`
	Total                int `json:"total,omitempty"`
}

type topicMessagesResponse struct {
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
	Messages []TopicMessage `json:"messages"`
}

type Transaction struct {
	ChargedTxFee       int64           `json:"charged_tx_fee"`
	ConsensusTimestamp string          `json:"consensus_timestamp"`
	EntityID           *string         `json:"entity_id"`
	MaxFee             string          `json:"max_fee"`
	MemoBase64         string          `json:"memo_base64"`
	Name               string          `json:"name"`
	Node               string          `json:"node"`
	Result             string          `json:"result"`
	TransactionID      string          `json:"transaction_id"`
	Transfers          []Transfer      `json:"transfers"`
	TokenTransfers     []TokenTransfer `json:"token_transfers"`
}

type Transfer struct {
	Account    string `json:"account"`
	Amount     int64  `json:"amount"`
	IsApproval bool   `json:"is_approval"`
}

type TokenTransfer struct {
	TokenID    string `json:"token_id"`
	Account    string `json:"account"`
	Amount     int64  `json:"amount"`
	IsApproval bool   `json:"is_approval"`
}

type transactionsResponse struct {
	Transactions []Transaction `json:"transactions"`
	Links        struct {
		Next string `json:"next"`
	} `json:"links"`
}

// PayerDebited reports whether account paid HBAR in the transaction, which is
// how fee payment shows up in the transfer list.
func (t Transaction) PayerDebited(account string) bool {
	for _, transfer := range t.Transfers {
		if transfer.Account == account && transfer.Amount < 0 {
			return true
		}
	}
	return false
}
