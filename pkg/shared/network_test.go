package shared

import "testing"

func TestNormalizeNetwork(t *testing.T) {
	cases := map[string]string{
		"":              NetworkTestnet,
		"   ":           NetworkTestnet,
		"mainnet":       NetworkMainnet,
		"Mainnet":       NetworkMainnet,
		"  TESTNET  ":   NetworkTestnet,
		"previewnet":    NetworkPreviewnet,
		" PreviewNet\t": NetworkPreviewnet,
	}
	for input, expected := range cases {
		got, err := NormalizeNetwork(input)
		if err != nil {
			t.Fatalf("NormalizeNetwork(%q) failed: %v", input, err)
		}
		if got != expected {
			t.Fatalf("NormalizeNetwork(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestNormalizeNetworkUnsupported(t *testing.T) {
	for _, input := range []string{"devnet", "local", "main net"} {
		if _, err := NormalizeNetwork(input); err == nil {
			t.Fatalf("expected %q to be rejected", input)
		}
	}
}

func TestIsMainnet(t *testing.T) {
	if !IsMainnet(" MAINNET ") {
		t.Fatal("expected mainnet to be detected")
	}
	for _, input := range []string{"", "testnet", "previewnet", "bogus"} {
		if IsMainnet(input) {
			t.Fatalf("did not expect %q to be mainnet", input)
		}
	}
}

func TestNewHederaClient(t *testing.T) {
	for _, network := range []string{NetworkMainnet, NetworkTestnet, NetworkPreviewnet} {
		client, err := NewHederaClient(network)
		if err != nil {
			t.Fatalf("NewHederaClient(%q) failed: %v", network, err)
		}
		if client == nil {
			t.Fatalf("NewHederaClient(%q) returned nil", network)
		}
		_ = client.Close()
	}

	if _, err := NewHederaClient("devnet"); err == nil {
		t.Fatal("expected unsupported network error")
	}
}
