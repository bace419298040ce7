package app

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/customers"
	"github.com/durabrake/findash/internal/threshold"
)

// policyFile is the YAML layout of POLICY_FILE. Omitted keys keep defaults.
type policyFile struct {
	Window       int                 `yaml:"window"`
	TopCustomers int                 `yaml:"top_customers"`
	Thresholds   threshold.Overrides `yaml:"thresholds"`
	Rescore      *bool               `yaml:"rescore"`
	RFM          yaml.Node           `yaml:"rfm"`
	Backlog      struct {
		TopCustomers int `yaml:"top_customers"`
	} `yaml:"backlog"`
}

// LoadPolicy reads derivation overrides from path. An empty path yields the
// default policy.
func LoadPolicy(path string) (analytics.Policy, error) {
	if path == "" {
		return analytics.DefaultPolicy(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return analytics.Policy{}, fmt.Errorf("policy: %w", err)
	}
	return ParsePolicy(raw)
}

// ParsePolicy decodes YAML overrides on top of the default policy.
func ParsePolicy(raw []byte) (analytics.Policy, error) {
	policy := analytics.DefaultPolicy()
	var file policyFile
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return policy, nil
		}
		return analytics.Policy{}, fmt.Errorf("policy: decode: %w", err)
	}

	if file.Window < 0 || file.TopCustomers < 0 || file.Backlog.TopCustomers < 0 {
		return analytics.Policy{}, errors.New("policy: counts must not be negative")
	}
	if file.Window > 0 {
		policy.Window = file.Window
	}
	if file.TopCustomers > 0 {
		policy.TopCustomers = file.TopCustomers
	}
	if file.Backlog.TopCustomers > 0 {
		policy.Backlog.TopN = file.Backlog.TopCustomers
	}
	if len(file.Thresholds) > 0 {
		policy.Thresholds = policy.Thresholds.Merge(file.Thresholds)
		if err := policy.Thresholds.Validate(); err != nil {
			return analytics.Policy{}, fmt.Errorf("policy: %w", err)
		}
	}

	if !file.RFM.IsZero() {
		tiers := customers.DefaultTiers()
		if err := file.RFM.Decode(&tiers); err != nil {
			return analytics.Policy{}, fmt.Errorf("policy: rfm: %w", err)
		}
		if err := validateTiers(tiers); err != nil {
			return analytics.Policy{}, err
		}
		policy.Segments = tiers.Assign
	}
	if file.Rescore != nil && !*file.Rescore {
		policy.Segments = nil
	}
	return policy, nil
}

func validateTiers(t customers.TierPolicy) error {
	var errs []error
	if len(t.RecencyDays) != 4 {
		errs = append(errs, fmt.Errorf("policy: rfm recency_days needs 4 bounds, got %d", len(t.RecencyDays)))
	}
	if len(t.Frequency) != 4 {
		errs = append(errs, fmt.Errorf("policy: rfm frequency needs 4 bounds, got %d", len(t.Frequency)))
	}
	if len(t.Monetary) != 4 {
		errs = append(errs, fmt.Errorf("policy: rfm monetary needs 4 bounds, got %d", len(t.Monetary)))
	}
	if !(t.Champions > t.Loyal && t.Loyal > t.AtRisk && t.AtRisk > 0) {
		errs = append(errs, errors.New("policy: rfm score cutoffs must descend champions > loyal > at_risk > 0"))
	}
	return errors.Join(errs...)
}
