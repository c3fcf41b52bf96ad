package shared

import (
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	NetworkMainnet    = "mainnet"
	NetworkTestnet    = "testnet"
	NetworkPreviewnet = "previewnet"
)

var clientFactories = map[string]func() *hedera.Client{
	NetworkMainnet:    hedera.ClientForMainnet,
	NetworkTestnet:    hedera.ClientForTestnet,
	NetworkPreviewnet: hedera.ClientForPreviewnet,
}

// NormalizeNetwork lower-cases and validates a network name. Empty means testnet.
func NormalizeNetwork(network string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(network))
	if normalized == "" {
		return NetworkTestnet, nil
	}
	if _, ok := clientFactories[normalized]; !ok {
		return "", fmt.Errorf("unsupported network %q", network)
	}
	return normalized, nil
}

// IsMainnet reports whether network names mainnet, ignoring case.
func IsMainnet(network string) bool {
	normalized, err := NormalizeNetwork(network)
	return err == nil && normalized == NetworkMainnet
}

// NewHederaClient creates an SDK client without an operator.
func NewHederaClient(network string) (*hedera.Client, error) {
	normalized, err := NormalizeNetwork(network)
	if err != nil {
		return nil, err
	}
	return clientFactories[normalized](), nil
}
