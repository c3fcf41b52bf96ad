package shared

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
)

const (
	KeyTypeED25519 = "ed25519"
	KeyTypeECDSA   = "ecdsa"
)

// OperatorConfig is the identity a session pays with, as read from the environment.
type OperatorConfig struct {
	AccountID  string
	PrivateKey string
	KeyType    string
	Network    string
}

var dotenvLoadOnce sync.Once

var (
	operatorAccountEnv = []string{"HEDERA_ACCOUNT_ID", "HEDERA_OPERATOR_ID", "ACCOUNT_ID", "OPERATOR_ID"}
	operatorKeyEnv     = []string{"HEDERA_PRIVATE_KEY", "HEDERA_OPERATOR_KEY", "PRIVATE_KEY", "OPERATOR_KEY"}
	fundingAccountEnv  = []string{"MY_ACCOUNT_ID", "FUNDING_ACCOUNT_ID"}
	fundingKeyEnv      = []string{"MY_PRIVATE_KEY", "FUNDING_PRIVATE_KEY"}
)

// OperatorConfigFromEnv resolves the operator identity from the environment,
// preferring network scoped variables (TESTNET_*, MAINNET_*, PREVIEWNET_*).
func OperatorConfigFromEnv() (OperatorConfig, error) {
	loadDotEnvIfPresent()

	network := NetworkFromEnv()
	accountID := firstNonEmptyEnv(operatorAccountEnv...)
	privateKey := firstNonEmptyEnv(operatorKeyEnv...)

	if prefix := scopedPrefix(network); prefix != "" {
		if scopedAccount := firstNonEmptyEnv(
			prefix+"_HEDERA_ACCOUNT_ID",
			prefix+"_HEDERA_OPERATOR_ID",
			prefix+"_OPERATOR_ID",
		); scopedAccount != "" {
			accountID = scopedAccount
		}
		if scopedKey := firstNonEmptyEnv(
			prefix+"_HEDERA_PRIVATE_KEY",
			prefix+"_HEDERA_OPERATOR_KEY",
			prefix+"_OPERATOR_KEY",
		); scopedKey != "" {
			privateKey = scopedKey
		}
	}

	if accountID == "" {
		return OperatorConfig{}, fmt.Errorf("HEDERA_ACCOUNT_ID is required")
	}
	if privateKey == "" {
		return OperatorConfig{}, fmt.Errorf("HEDERA_PRIVATE_KEY is required")
	}

	return OperatorConfig{
		AccountID:  accountID,
		PrivateKey: privateKey,
		KeyType:    strings.ToLower(firstNonEmptyEnv("HEDERA_KEY_TYPE")),
		Network:    network,
	}, nil
}

// FundingConfigFromEnv resolves the account that pays for balance top-ups.
// MY_ACCOUNT_ID / MY_PRIVATE_KEY take precedence; the operator variables are
// used when they are absent. Funding keys default to ECDSA.
func FundingConfigFromEnv() (OperatorConfig, error) {
	loadDotEnvIfPresent()

	accountID := firstNonEmptyEnv(fundingAccountEnv...)
	privateKey := firstNonEmptyEnv(fundingKeyEnv...)
	if accountID == "" && privateKey == "" {
		return OperatorConfigFromEnv()
	}
	if accountID == "" {
		return OperatorConfig{}, fmt.Errorf("MY_ACCOUNT_ID is required")
	}
	if privateKey == "" {
		return OperatorConfig{}, fmt.Errorf("MY_PRIVATE_KEY is required")
	}

	keyType := strings.ToLower(firstNonEmptyEnv("MY_KEY_TYPE", "FUNDING_KEY_TYPE"))
	if keyType == "" {
		keyType = KeyTypeECDSA
	}

	return OperatorConfig{
		AccountID:  accountID,
		PrivateKey: privateKey,
		KeyType:    keyType,
		Network:    NetworkFromEnv(),
	}, nil
}

// Credentials parses the configured account and key.
func (c OperatorConfig) Credentials() (hedera.AccountID, hedera.PrivateKey, error) {
	accountID, err := hedera.AccountIDFromString(strings.TrimSpace(c.AccountID))
	if err != nil {
		return hedera.AccountID{}, hedera.PrivateKey{}, fmt.Errorf("invalid operator account ID: %w", err)
	}
	privateKey, err := ParsePrivateKeyAs(c.PrivateKey, c.KeyType)
	if err != nil {
		return hedera.AccountID{}, hedera.PrivateKey{}, err
	}
	return accountID, privateKey, nil
}

// NetworkFromEnv reads HEDERA_NETWORK or NETWORK and defaults to testnet.
func NetworkFromEnv() string {
	network := firstNonEmptyEnv("HEDERA_NETWORK", "NETWORK")
	if network == "" {
		network = NetworkTestnet
	}
	return network
}

func scopedPrefix(network string) string {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case NetworkMainnet:
		return "MAINNET"
	case NetworkTestnet:
		return "TESTNET"
	case NetworkPreviewnet:
		return "PREVIEWNET"
	default:
		return ""
	}
}

func loadDotEnvIfPresent() {
	dotenvLoadOnce.Do(func() {
		startPaths := make([]string, 0, 2)

		if cwd, err := os.Getwd(); err == nil {
			startPaths = append(startPaths, cwd)
		}
		if _, currentFile, _, ok := runtime.Caller(0); ok {
			startPaths = append(startPaths, filepath.Dir(currentFile))
		}

		seenCandidates := make(map[string]struct{})
		for _, start := range startPaths {
			current := start
			for {
				candidate := filepath.Join(current, ".env")
				if _, exists := seenCandidates[candidate]; !exists {
					seenCandidates[candidate] = struct{}{}
					if _, statErr := os.Stat(candidate); statErr == nil {
						loadDotEnvFile(candidate)
						return
					}
				}

				parent := filepath.Dir(current)
				if parent == current {
					break
				}
				current = parent
			}
		}
	})
}

func loadDotEnvFile(path string) bool {
	file, err := os.Open(path)
	if err != nil {
		return false
	}
	defer file.Close()

	loadedAny := false
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))

		separator := strings.Index(line, "=")
		if separator <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:separator])
		if !isValidEnvKey(key) {
			continue
		}
		if _, alreadySet := os.LookupEnv(key); alreadySet {
			continue
		}

		value := strings.TrimSpace(line[separator+1:])
		if len(value) >= 2 {
			first := value[0]
			last := value[len(value)-1]
			if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
				value = value[1 : len(value)-1]
			}
		}

		if setErr := os.Setenv(key, value); setErr == nil {
			loadedAny = true
		}
	}

	return loadedAny
}

func isValidEnvKey(key string) bool {
	if key == "" {
		return false
	}
	for index, character := range key {
		if (character >= 'A' && character <= 'Z') ||
			(character >= 'a' && character <= 'z') ||
			(index > 0 && character >= '0' && character <= '9') ||
			character == '_' {
			continue
		}
		return false
	}
	return true
}

func firstNonEmptyEnv(keys ...string) string {
	for _, key := range keys {
		value := strings.TrimSpace(os.Getenv(key))
		if value != "" {
			return value
		}
	}
	return ""
}

// ParsePrivateKey tries ED25519, then ECDSA, then the SDK's generic DER parser.
func ParsePrivateKey(raw string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return hedera.PrivateKey{}, fmt.Errorf("private key cannot be empty")
	}

	ed25519Key, edErr := hedera.PrivateKeyFromStringEd25519(candidate)
	if edErr == nil {
		return ed25519Key, nil
	}

	ecdsaKey, ecdsaErr := hedera.PrivateKeyFromStringECDSA(candidate)
	if ecdsaErr == nil {
		return ecdsaKey, nil
	}

	genericKey, genericErr := hedera.PrivateKeyFromString(candidate)
	if genericErr == nil {
		return genericKey, nil
	}

	return hedera.PrivateKey{}, fmt.Errorf(
		"failed to parse private key as ED25519 (%v), ECDSA (%v), or generic (%v)",
		edErr,
		ecdsaErr,
		genericErr,
	)
}

// ParsePrivateKeyAs parses raw with an explicit key type. An empty key type
// falls back to ParsePrivateKey.
func ParsePrivateKeyAs(raw string, keyType string) (hedera.PrivateKey, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return hedera.PrivateKey{}, fmt.Errorf("private key cannot be empty")
	}

	switch strings.ToLower(strings.TrimSpace(keyType)) {
	case "":
		return ParsePrivateKey(candidate)
	case KeyTypeED25519:
		key, err := hedera.PrivateKeyFromStringEd25519(candidate)
		if err != nil {
			return hedera.PrivateKey{}, fmt.Errorf("failed to parse private key as ED25519: %w", err)
		}
		return key, nil
	case KeyTypeECDSA:
		key, err := hedera.PrivateKeyFromStringECDSA(candidate)
		if err != nil {
			return hedera.PrivateKey{}, fmt.Errorf("failed to parse private key as ECDSA: %w", err)
		}
		return key, nil
	default:
		return hedera.PrivateKey{}, fmt.Errorf("unsupported key type %q", keyType)
	}
}
