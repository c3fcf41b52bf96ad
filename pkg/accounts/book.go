package accounts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/hashgraph-online/ledger-harness-go/pkg/shared"
	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/spf13/viper"
)

const (
	EnvAccountsFile    = "HARNESS_ACCOUNTS_FILE"
	DefaultAccountFile = "accounts.yaml"
)

// Account is one pre-provisioned ledger account. Accounts are immutable
// once loaded.
type Account struct {
	ID         string `mapstructure:"id" validate:"required,hedera_account_id"`
	PrivateKey string `mapstructure:"privateKey" validate:"required"`
	KeyType    string `mapstructure:"keyType" validate:"omitempty,oneof=ed25519 ecdsa"`
}

// Credentials are the parsed forms of an Account.
type Credentials struct {
	AccountID  hedera.AccountID
	PrivateKey hedera.PrivateKey
}

func (c Credentials) PublicKey() hedera.PublicKey {
	return c.PrivateKey.PublicKey()
}

// Credentials parses the account ID and private key.
func (a Account) Credentials() (Credentials, error) {
	accountID, err := hedera.AccountIDFromString(strings.TrimSpace(a.ID))
	if err != nil {
		return Credentials{}, fmt.Errorf("invalid account ID %q: %w", a.ID, err)
	}
	privateKey, err := shared.ParsePrivateKeyAs(a.PrivateKey, a.KeyType)
	if err != nil {
		return Credentials{}, fmt.Errorf("invalid private key for account %s: %w", a.ID, err)
	}
	return Credentials{AccountID: accountID, PrivateKey: privateKey}, nil
}

// Book is the ordered list of test accounts. Index 0 is the treasury and
// operator of most scenarios.
type Book struct {
	Accounts []Account `mapstructure:"accounts" validate:"required,min=1,dive"`

	credentials []Credentials
}

func (b *Book) Len() int {
	return len(b.Accounts)
}

// At returns the account at index i.
func (b *Book) At(i int) (Account, error) {
	if i < 0 || i >= len(b.Accounts) {
		return Account{}, fmt.Errorf("account index %d out of range: book holds %d accounts", i, len(b.Accounts))
	}
	return b.Accounts[i], nil
}

// CredentialsAt returns the parsed credentials of the account at index i.
func (b *Book) CredentialsAt(i int) (Credentials, error) {
	if _, err := b.At(i); err != nil {
		return Credentials{}, err
	}
	if len(b.credentials) != len(b.Accounts) {
		return Credentials{}, fmt.Errorf("account book has not been validated")
	}
	return b.credentials[i], nil
}

// CredentialsRange returns the credentials of count accounts starting at
// index start.
func (b *Book) CredentialsRange(start int, count int) ([]Credentials, error) {
	if start < 0 || count < 0 {
		return nil, fmt.Errorf("invalid account range %d+%d", start, count)
	}
	if b.Len() < start+count {
		return nil, fmt.Errorf("the account book holds %d accounts, %d are required", b.Len(), start+count)
	}
	result := make([]Credentials, 0, count)
	for index := start; index < start+count; index++ {
		creds, err := b.CredentialsAt(index)
		if err != nil {
			return nil, err
		}
		result = append(result, creds)
	}
	return result, nil
}

// DefaultPath returns $HARNESS_ACCOUNTS_FILE, or accounts.yaml in the
// working directory.
func DefaultPath() string {
	if path := strings.TrimSpace(os.Getenv(EnvAccountsFile)); path != "" {
		return path
	}
	return DefaultAccountFile
}

// Load reads an account book from a YAML, JSON or TOML file. Every entry is
// validated and its credentials parsed before Load returns.
func Load(path string) (*Book, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("accounts file path is required")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("accounts file %s: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if ext := strings.TrimPrefix(filepath.Ext(path), "."); ext == "yml" {
		v.SetConfigType("yaml")
	}
	v.SetEnvPrefix("HARNESS")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read accounts file %s: %w", path, err)
	}

	var book Book
	if err := v.Unmarshal(&book); err != nil {
		return nil, fmt.Errorf("failed to unmarshal accounts file: %w", err)
	}
	if err := Validate(&book); err != nil {
		return nil, err
	}
	return &book, nil
}

// Validate checks every account and caches parsed credentials.
func Validate(book *Book) error {
	if book == nil {
		return fmt.Errorf("account book is required")
	}
	if err := newValidator().Struct(book); err != nil {
		return fmt.Errorf("invalid account book: %w", err)
	}

	credentials := make([]Credentials, 0, len(book.Accounts))
	for index, account := range book.Accounts {
		parsed, err := account.Credentials()
		if err != nil {
			return fmt.Errorf("account %d: %w", index, err)
		}
		credentials = append(credentials, parsed)
	}
	book.credentials = credentials
	return nil
}

func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("hedera_account_id", func(fl validator.FieldLevel) bool {
		_, err := hedera.AccountIDFromString(strings.TrimSpace(fl.Field().String()))
		return err == nil
	})
	return validate
}
