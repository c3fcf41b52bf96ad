package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashgraph-online/ledger-harness-go/pkg/shared"
)

// ErrNotFound is returned when the mirror node answers 404.
var ErrNotFound = errors.New("mirror node resource not found")

var defaultBaseURLs = map[string]string{
	shared.NetworkMainnet:    "https://mainnet-public.mirrornode.hedera.com",
	shared.NetworkTestnet:    "https://testnet.mirrornode.hedera.com",
	shared.NetworkPreviewnet: "https://previewnet.mirrornode.hedera.com",
}

type Config struct {
	Network    string
	BaseURL    string
	HTTPClient *http.Client
	APIKey     string
	Headers    map[string]string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
	headers    map[string]string
}

type MessageQueryOptions struct {
	SequenceNumber string
	Limit          int
	Order          string
}

// NewClient creates a mirror node client for the network, or for BaseURL when set.
func NewClient(config Config) (*Client, error) {
	network, err := shared.NormalizeNetwork(config.Network)
	if err != nil {
		return nil, err
	}

	baseURL := strings.TrimRight(strings.TrimSpace(config.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURLs[network]
	}
	parsedBaseURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mirror base URL: %w", err)
	}
	if parsedBaseURL.Scheme != "http" && parsedBaseURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid mirror base URL: scheme must be http or https")
	}
	if strings.TrimSpace(parsedBaseURL.Host) == "" {
		return nil, fmt.Errorf("invalid mirror base URL: host is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	headers := make(map[string]string, len(config.Headers))
	for key, value := range config.Headers {
		headers[key] = value
	}

	return &Client{
		baseURL:    strings.TrimRight(parsedBaseURL.String(), "/"),
		httpClient: httpClient,
		apiKey:     strings.TrimSpace(config.APIKey),
		headers:    headers,
	}, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// GetAccount returns the account's key, memo and HBAR balance.
func (c *Client) GetAccount(ctx context.Context, accountID string) (AccountInfo, error) {
	var accountInfo AccountInfo
	normalizedAccountID := strings.TrimSpace(accountID)
	if normalizedAccountID == "" {
		return accountInfo, fmt.Errorf("account ID is required")
	}

	path := fmt.Sprintf("/api/v1/accounts/%s", url.PathEscape(normalizedAccountID))
	if err := c.getJSON(ctx, path, &accountInfo); err != nil {
		return accountInfo, err
	}
	return accountInfo, nil
}

// GetAccountTokens lists the token relationships of an account. When tokenID
// is set only that relationship is requested.
func (c *Client) GetAccountTokens(ctx context.Context, accountID string, tokenID string) ([]AccountToken, error) {
	normalizedAccountID := strings.TrimSpace(accountID)
	if normalizedAccountID == "" {
		return nil, fmt.Errorf("account ID is required")
	}

	values := url.Values{}
	if trimmedTokenID := strings.TrimSpace(tokenID); trimmedTokenID != "" {
		values.Set("token.id", trimmedTokenID)
	}
	endpoint := fmt.Sprintf("/api/v1/accounts/%s/tokens", url.PathEscape(normalizedAccountID))
	if encoded := values.Encode(); encoded != "" {
		endpoint = endpoint + "?" + encoded
	}

	result := make([]AccountToken, 0)
	for next := endpoint; next != ""; {
		var page accountTokensResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		result = append(result, page.Tokens...)
		next = page.Links.Next
	}
	return result, nil
}

// GetToken returns token metadata as indexed by the mirror node.
func (c *Client) GetToken(ctx context.Context, tokenID string) (TokenInfo, error) {
	var tokenInfo TokenInfo
	normalizedTokenID := strings.TrimSpace(tokenID)
	if normalizedTokenID == "" {
		return tokenInfo, fmt.Errorf("token ID is required")
	}

	path := fmt.Sprintf("/api/v1/tokens/%s", url.PathEscape(normalizedTokenID))
	if err := c.getJSON(ctx, path, &tokenInfo); err != nil {
		return tokenInfo, err
	}
	return tokenInfo, nil
}

func (c *Client) GetTopicInfo(ctx context.Context, topicID string) (TopicInfo, error) {
	var topicInfo TopicInfo
	normalizedTopicID := strings.TrimSpace(topicID)
	if normalizedTopicID == "" {
		return topicInfo, fmt.Errorf("topic ID is required")
	}

	path := fmt.Sprintf("/api/v1/topics/%s", url.PathEscape(normalizedTopicID))
	if err := c.getJSON(ctx, path, &topicInfo); err != nil {
		return topicInfo, err
	}
	return topicInfo, nil
}

// GetTopicMessages follows links.next until the listing is exhausted or
// Limit messages have been collected.
func (c *Client) GetTopicMessages(
	ctx context.Context,
	topicID string,
	options MessageQueryOptions,
) ([]TopicMessage, error) {
	normalizedTopicID := strings.TrimSpace(topicID)
	if normalizedTopicID == "" {
		return nil, fmt.Errorf("topic ID is required")
	}

	values := url.Values{}
	if options.SequenceNumber != "" {
		values.Set("sequencenumber", options.SequenceNumber)
	}
	if options.Limit > 0 {
		values.Set("limit", fmt.Sprintf("%d", options.Limit))
	}
	if options.Order != "" {
		values.Set("order", options.Order)
	}

	endpoint := fmt.Sprintf("/api/v1/topics/%s/messages", url.PathEscape(normalizedTopicID))
	if encoded := values.Encode(); encoded != "" {
		endpoint = endpoint + "?" + encoded
	}

	result := make([]TopicMessage, 0)
	for next := endpoint; next != ""; {
		var page topicMessagesResponse
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}

		result = append(result, page.Messages...)
		if options.Limit > 0 && len(result) >= options.Limit {
			return result[:options.Limit], nil
		}
		next = page.Links.Next
	}
	return result, nil
}

// GetTransaction looks up a transaction by ID. The SDK form
// "0.0.1@1700000000.000000001" is accepted and normalized.
func (c *Client) GetTransaction(ctx context.Context, transactionID string) (*Transaction, error) {
	normalized := NormalizeTransactionID(transactionID)
	if normalized == "" {
		return nil, fmt.Errorf("transaction ID is required")
	}

	var response transactionsResponse
	path := fmt.Sprintf("/api/v1/transactions/%s", url.PathEscape(normalized))
	if err := c.getJSON(ctx, path, &response); err != nil {
		return nil, err
	}
	if len(response.Transactions) == 0 {
		return nil, nil
	}
	return &response.Transactions[0], nil
}

// NormalizeTransactionID converts "0.0.1@1700000000.000000001" into the
// mirror node form "0.0.1-1700000000-000000001".
func NormalizeTransactionID(transactionID string) string {
	trimmed := strings.TrimSpace(transactionID)
	account, validStart, found := strings.Cut(trimmed, "@")
	if !found {
		return trimmed
	}
	return account + "-" + strings.Replace(validStart, ".", "-", 1)
}

// DecodeMessageData decodes the base64 payload of a mirror topic message.
func DecodeMessageData(message TopicMessage) ([]byte, error) {
	if strings.TrimSpace(message.Message) == "" {
		return nil, fmt.Errorf("message payload is empty")
	}
	return base64.StdEncoding.DecodeString(message.Message)
}

func (c *Client) getJSON(ctx context.Context, pathOrURL string, target any) error {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, c.resolveURL(pathOrURL), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	request.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	}
	for key, value := range c.headers {
		request.Header.Set(key, value)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("mirror node request failed: %w", err)
	}
	defer response.Body.Close()

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return fmt.Errorf("failed to read mirror node response: %w", err)
	}

	if response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, pathOrURL)
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return fmt.Errorf(
			"mirror node request failed with status %d: %s",
			response.StatusCode,
			strings.TrimSpace(string(body)),
		)
	}

	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("failed to decode mirror node response: %w", err)
	}
	return nil
}

func (c *Client) resolveURL(pathOrURL string) string {
	if strings.HasPrefix(pathOrURL, "http://") || strings.HasPrefix(pathOrURL, "https://") {
		return pathOrURL
	}

	path := pathOrURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}
