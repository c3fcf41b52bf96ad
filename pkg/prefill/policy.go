package prefill

import (
	"fmt"
	"strings"

	hedera "github.com/hashgraph/hedera-sdk-go/v2"
	"github.com/shopspring/decimal"
)

const (
	PolicyNameExact     = "exact"
	PolicyNameThreshold = "threshold"
)

// Policy decides how much to top an account up by. A zero result means no
// transfer.
type Policy interface {
	TopUp(balance hedera.Hbar, target hedera.Hbar) hedera.Hbar
	Validate(target hedera.Hbar) error
}

// PolicyExactTarget tops up by exactly the deficit whenever the balance is
// below target.
type PolicyExactTarget struct{}

func (PolicyExactTarget) TopUp(balance hedera.Hbar, target hedera.Hbar) hedera.Hbar {
	deficit := target.AsTinybar() - balance.AsTinybar()
	if deficit <= 0 {
		return hedera.ZeroHbar
	}
	return hedera.HbarFromTinybar(deficit)
}

func (PolicyExactTarget) Validate(hedera.Hbar) error {
	return nil
}

// PolicyBelowThreshold leaves the account alone until its balance drops
// under Threshold, then tops it up to target.
type PolicyBelowThreshold struct {
	Threshold hedera.Hbar
}

func (p PolicyBelowThreshold) TopUp(balance hedera.Hbar, target hedera.Hbar) hedera.Hbar {
	if balance.AsTinybar() >= p.Threshold.AsTinybar() {
		return hedera.ZeroHbar
	}
	return PolicyExactTarget{}.TopUp(balance, target)
}

func (p PolicyBelowThreshold) Validate(target hedera.Hbar) error {
	if p.Threshold.AsTinybar() <= 0 {
		return fmt.Errorf("threshold must be positive")
	}
	if p.Threshold.AsTinybar() > target.AsTinybar() {
		return fmt.Errorf("threshold %s exceeds target %s", p.Threshold.String(), target.String())
	}
	return nil
}

// ParsePolicy maps a policy name to a Policy. threshold is only used by
// the threshold policy.
func ParsePolicy(name string, threshold hedera.Hbar) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", PolicyNameExact:
		return PolicyExactTarget{}, nil
	case PolicyNameThreshold:
		return PolicyBelowThreshold{Threshold: threshold}, nil
	default:
		return nil, fmt.Errorf("unsupported prefill policy %q", name)
	}
}

var tinybarsPerHbar = decimal.NewFromInt(100_000_000)

// ParseHbar parses a decimal HBAR amount such as "100" or "0.5" into an
// exact tinybar value.
func ParseHbar(value string) (hedera.Hbar, error) {
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return hedera.ZeroHbar, fmt.Errorf("invalid hbar amount %q: %w", value, err)
	}
	tinybars := parsed.Mul(tinybarsPerHbar)
	if !tinybars.IsInteger() {
		return hedera.ZeroHbar, fmt.Errorf("hbar amount %q is finer than one tinybar", value)
	}
	if !tinybars.BigInt().IsInt64() {
		return hedera.ZeroHbar, fmt.Errorf("hbar amount %q is out of range", value)
	}
	return hedera.HbarFromTinybar(tinybars.IntPart()), nil
}

// FormatHbar renders an amount in HBAR with up to eight decimals.
func FormatHbar(amount hedera.Hbar) string {
	return decimal.New(amount.AsTinybar(), -8).String() + " ℏ"
}
