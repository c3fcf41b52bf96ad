package mirror

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(Config{Network: "testnet", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestNewClientDefaultBaseURLs(t *testing.T) {
	cases := map[string]string{
		"":           "https://testnet.mirrornode.hedera.com",
		"testnet":    "https://testnet.mirrornode.hedera.com",
		"mainnet":    "https://mainnet-public.mirrornode.hedera.com",
		"previewnet": "https://previewnet.mirrornode.hedera.com",
	}
	for network, expected := range cases {
		client, err := NewClient(Config{Network: network})
		if err != nil {
			t.Fatalf("unexpected error for %q: %v", network, err)
		}
		if client.BaseURL() != expected {
			t.Fatalf("expected %s for %q, got %s", expected, network, client.BaseURL())
		}
	}
}

func TestNewClientCustomBaseURL(t *testing.T) {
	client, err := NewClient(Config{Network: "testnet", BaseURL: "https://custom.example.com/"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.baseURL != "https://custom.example.com" {
		t.Fatalf("unexpected baseURL: %s", client.baseURL)
	}
}

func TestNewClientRejectsBadConfig(t *testing.T) {
	if _, err := NewClient(Config{Network: "badnet"}); err == nil {
		t.Fatal("expected error for unsupported network")
	}
	if _, err := NewClient(Config{BaseURL: "ftp://example.com"}); err == nil {
		t.Fatal("expected error for unsupported scheme")
	}
	if _, err := NewClient(Config{BaseURL: "https://"}); err == nil {
		t.Fatal("expected error for missing host")
	}
}

func TestNewClientCopiesHeaders(t *testing.T) {
	headers := map[string]string{"X-Custom": "test"}
	client, err := NewClient(Config{Network: "testnet", Headers: headers})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	headers["X-Custom"] = "changed"
	if client.headers["X-Custom"] != "test" {
		t.Fatalf("expected copied header, got %q", client.headers["X-Custom"])
	}
}

func TestGetAccountSuccess(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/accounts/0.0.12345" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(AccountInfo{
			Account: "0.0.12345",
			Memo:    "account-memo",
			Balance: AccountBalance{Balance: 500},
		})
	})

	info, err := client.GetAccount(context.Background(), "0.0.12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Balance.Balance != 500 {
		t.Fatalf("unexpected balance: %d", info.Balance.Balance)
	}
}

func TestGetAccountValidation(t *testing.T) {
	client, _ := NewClient(Config{Network: "testnet"})
	if _, err := client.GetAccount(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty account ID")
	}
}

func TestGetAccountTokensFiltersAndPages(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path != "/api/v1/accounts/0.0.7/tokens" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		page := accountTokensResponse{}
		if calls == 1 {
			if r.URL.Query().Get("token.id") != "0.0.99" {
				t.Errorf("expected token.id filter, got %q", r.URL.RawQuery)
			}
			page.Tokens = []AccountToken{{TokenID: "0.0.99", Balance: 100, Decimals: 2}}
			page.Links.Next = "/api/v1/accounts/0.0.7/tokens?token.id=0.0.99&page=2"
		} else {
			page.Tokens = []AccountToken{}
		}
		json.NewEncoder(w).Encode(page)
	})

	tokens, err := client.GetAccountTokens(context.Background(), "0.0.7", "0.0.99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 page requests, got %d", calls)
	}
	if len(tokens) != 1 || tokens[0].Balance != 100 {
		t.Fatalf("unexpected tokens: %+v", tokens)
	}
}

func TestGetAccountTokensNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"_status":{"messages":[{"message":"Not found"}]}}`))
	})

	_, err := client.GetAccountTokens(context.Background(), "0.0.7", "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetToken(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tokens/0.0.99" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte(`{"token_id":"0.0.99","name":"Test Token","symbol":"HTT","decimals":"2","total_supply":"1000","treasury_account_id":"0.0.7","supply_key":null}`))
	})

	info, err := client.GetToken(context.Background(), "0.0.99")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Name != "Test Token" || info.Symbol != "HTT" || info.Decimals != "2" {
		t.Fatalf("unexpected token info: %+v", info)
	}
	if info.SupplyKey != nil {
		t.Fatal("expected nil supply key")
	}

	if _, err := client.GetToken(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty token ID")
	}
}

func TestGetTopicInfo(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/topics/0.0.12345" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(TopicInfo{TopicID: "0.0.12345", Memo: "Taking over the world"})
	})

	info, err := client.GetTopicInfo(context.Background(), "0.0.12345")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Memo != "Taking over the world" {
		t.Fatalf("unexpected memo: %s", info.Memo)
	}
}

func TestGetTopicMessagesPagination(t *testing.T) {
	callCount := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		callCount++
		if callCount == 1 {
			if r.URL.Query().Get("order") != "asc" {
				t.Errorf("expected order=asc, got %q", r.URL.RawQuery)
			}
			resp := topicMessagesResponse{
				Messages: []TopicMessage{{SequenceNumber: 1, Message: base64.StdEncoding.EncodeToString([]byte("a"))}},
			}
			resp.Links.Next = "/api/v1/topics/0.0.1/messages?page=2"
			json.NewEncoder(w).Encode(resp)
			return
		}
		json.NewEncoder(w).Encode(topicMessagesResponse{
			Messages: []TopicMessage{{SequenceNumber: 2, Message: base64.StdEncoding.EncodeToString([]byte("b"))}},
		})
	})

	messages, err := client.GetTopicMessages(context.Background(), "0.0.1", MessageQueryOptions{Order: "asc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
}

func TestGetTopicMessagesStopsAtLimit(t *testing.T) {
	callCount := 0
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		callCount++
		resp := topicMessagesResponse{
			Messages: []TopicMessage{{SequenceNumber: 1}, {SequenceNumber: 2}},
		}
		resp.Links.Next = "/api/v1/topics/0.0.1/messages?page=next"
		json.NewEncoder(w).Encode(resp)
	})

	messages, err := client.GetTopicMessages(context.Background(), "0.0.1", MessageQueryOptions{Limit: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(messages) != 1 || callCount != 1 {
		t.Fatalf("expected 1 message from 1 request, got %d from %d", len(messages), callCount)
	}
}

func TestGetTopicMessagesValidation(t *testing.T) {
	client, _ := NewClient(Config{Network: "testnet"})
	if _, err := client.GetTopicMessages(context.Background(), "", MessageQueryOptions{}); err == nil {
		t.Fatal("expected error for empty topic ID")
	}
}

func TestGetTransactionNormalizesID(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/transactions/0.0.1-123-456" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(transactionsResponse{
			Transactions: []Transaction{{
				TransactionID: "0.0.1-123-456",
				Result:        "SUCCESS",
				Transfers: []Transfer{
					{Account: "0.0.1", Amount: -100},
					{Account: "0.0.3", Amount: 100},
				},
			}},
		})
	})

	tx, err := client.GetTransaction(context.Background(), "0.0.1@123.456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx == nil || tx.Result != "SUCCESS" {
		t.Fatalf("unexpected transaction: %+v", tx)
	}
	if !tx.PayerDebited("0.0.1") {
		t.Fatal("expected 0.0.1 to be debited")
	}
	if tx.PayerDebited("0.0.3") {
		t.Fatal("expected 0.0.3 not to be debited")
	}
}

func TestGetTransactionNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(transactionsResponse{Transactions: []Transaction{}})
	})

	tx, err := client.GetTransaction(context.Background(), "0.0.1@123.456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx != nil {
		t.Fatal("expected nil for not found")
	}

	if _, err := client.GetTransaction(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty transaction ID")
	}
}

func TestNormalizeTransactionID(t *testing.T) {
	cases := map[string]string{
		"0.0.1@123.456":   "0.0.1-123-456",
		" 0.0.1@123.456 ": "0.0.1-123-456",
		"0.0.1-123-456":   "0.0.1-123-456",
		"":                "",
	}
	for input, expected := range cases {
		if got := NormalizeTransactionID(input); got != expected {
			t.Fatalf("expected %q for %q, got %q", expected, input, got)
		}
	}
}

func TestDecodeMessageData(t *testing.T) {
	if _, err := DecodeMessageData(TopicMessage{Message: "   "}); err == nil {
		t.Fatal("expected error for empty message")
	}

	encoded := base64.StdEncoding.EncodeToString([]byte("hello world"))
	data, err := DecodeMessageData(TopicMessage{Message: encoded})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "hello world" {
		t.Fatalf("expected 'hello world', got %q", string(data))
	}
}

func TestGetJSONErrors(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v1/topics/0.0.1" {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("internal error"))
			return
		}
		w.Write([]byte("not json"))
	})

	if _, err := client.GetTopicInfo(context.Background(), "0.0.1"); err == nil {
		t.Fatal("expected error for server error")
	}
	if _, err := client.GetTopicInfo(context.Background(), "0.0.2"); err == nil {
		t.Fatal("expected error for invalid JSON response")
	}
}

func TestGetJSONHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer my-key" {
			t.Errorf("expected 'Bearer my-key', got %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("X-Custom") != "value" {
			t.Errorf("expected X-Custom=value, got %q", r.Header.Get("X-Custom"))
		}
		json.NewEncoder(w).Encode(TopicInfo{TopicID: "0.0.1"})
	}))
	defer server.Close()

	client, _ := NewClient(Config{
		Network: "testnet",
		BaseURL: server.URL,
		APIKey:  "my-key",
		Headers: map[string]string{"X-Custom": "value"},
	})
	if _, err := client.GetTopicInfo(context.Background(), "0.0.1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestResolveURL(t *testing.T) {
	client := &Client{baseURL: "https://example.com"}

	if url := client.resolveURL("/api/test"); url != "https://example.com/api/test" {
		t.Fatalf("unexpected URL: %s", url)
	}
	if url := client.resolveURL("api/test"); url != "https://example.com/api/test" {
		t.Fatalf("unexpected URL: %s", url)
	}
	if url := client.resolveURL("https://other.com/path"); url != "https://other.com/path" {
		t.Fatalf("unexpected URL: %s", url)
	}
}
