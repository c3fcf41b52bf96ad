package ledger

import (
	"context"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

// TokenInfo is the subset of token state the harness asserts on.
type TokenInfo struct {
	TokenID      hedera.TokenID
	Name         string
	Symbol       string
	Decimals     uint32
	TotalSupply  uint64
	Treasury     hedera.AccountID
	HasSupplyKey bool
}

type TopicInfo struct {
	TopicID hedera.TopicID
	Memo    string
}

// NativeBalance queries the HBAR balance of accountID. Balance queries are free.
func (s *Session) NativeBalance(ctx context.Context, accountID hedera.AccountID) (hedera.Hbar, error) {
	if err := ctx.Err(); err != nil {
		return hedera.ZeroHbar, err
	}

	balance, err := hedera.NewAccountBalanceQuery().
		SetAccountID(accountID).
		Execute(s.client)
	if err != nil {
		return hedera.ZeroHbar, Rejection("query account balance", err)
	}
	return balance.Hbars, nil
}

func (s *Session) TokenInfo(ctx context.Context, tokenID hedera.TokenID) (TokenInfo, error) {
	if err := ctx.Err(); err != nil {
		return TokenInfo{}, err
	}
	if _, err := s.RequireOperator(); err != nil {
		return TokenInfo{}, err
	}

	info, err := hedera.NewTokenInfoQuery().
		SetTokenID(tokenID).
		Execute(s.client)
	if err != nil {
		return TokenInfo{}, Rejection("query token info", err)
	}

	return TokenInfo{
		TokenID:      info.TokenID,
		Name:         info.Name,
		Symbol:       info.Symbol,
		Decimals:     info.Decimals,
		TotalSupply:  info.TotalSupply,
		Treasury:     info.Treasury,
		HasSupplyKey: info.SupplyKey != nil,
	}, nil
}

func (s *Session) TopicInfo(ctx context.Context, topicID hedera.TopicID) (TopicInfo, error) {
	if err := ctx.Err(); err != nil {
		return TopicInfo{}, err
	}
	if _, err := s.RequireOperator(); err != nil {
		return TopicInfo{}, err
	}

	info, err := hedera.NewTopicInfoQuery().
		SetTopicID(topicID).
		Execute(s.client)
	if err != nil {
		return TopicInfo{}, Rejection("query topic info", err)
	}
	return TopicInfo{TopicID: topicID, Memo: info.TopicMemo}, nil
}
