// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
)

// TransactionType classifies a related-party transaction.
type TransactionType string

const (
	TxnServices    TransactionType = "services"
	TxnGoods       TransactionType = "goods"
	TxnLoans       TransactionType = "loans"
	TxnGuarantees  TransactionType = "guarantees"
	TxnIPLicensing TransactionType = "IP"
	TxnCostSharing TransactionType = "cost_sharing"
)

// validTransactionTypes is the set of accepted TransactionType values.
var validTransactionTypes = map[TransactionType]bool{
	TxnServices:    true,
	TxnGoods:       true,
	TxnLoans:       true,
	TxnGuarantees:  true,
	TxnIPLicensing: true,
	TxnCostSharing: true,
}

// RiskLevel grades the overall risk assumed in a transaction.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Transaction holds one related-party transaction together with its
// functional profile. The generation pipeline treats it as read-only
// input.
type Transaction struct {
	// ID is the transaction's identifier, unique within a company.
	ID string `json:"id" yaml:"id"`

	// Type classifies the transaction.
	Type TransactionType `json:"transaction_type" yaml:"transaction_type"`

	// Description is a free-text description of the transaction.
	Description string `json:"description" yaml:"description"`

	// RelatedPartyName is the counterparty's legal name.
	RelatedPartyName string `json:"related_party_name" yaml:"related_party_name"`

	// RelatedPartyJurisdiction is the counterparty's tax jurisdiction.
	RelatedPartyJurisdiction string `json:"related_party_jurisdiction" yaml:"related_party_jurisdiction"`

	// Amount is the transaction value. Nil when not specified.
	Amount *float64 `json:"amount,omitempty" yaml:"amount,omitempty"`

	// Currency is the ISO 4217 code for Amount (default "USD").
	Currency string `json:"currency" yaml:"currency"`

	// FiscalYear is the fiscal year the transaction belongs to (e.g. "2023-24").
	FiscalYear string `json:"fiscal_year,omitempty" yaml:"fiscal_year,omitempty"`

	// Functions lists the functions performed by the tested party.
	Functions []string `json:"functions" yaml:"functions"`

	// Assets lists the assets employed.
	Assets []string `json:"assets" yaml:"assets"`

	// Risks lists the risks assumed.
	Risks []string `json:"risks" yaml:"risks"`

	// RiskLevel grades the overall risk: low, medium, or high.
	RiskLevel RiskLevel `json:"risk_level" yaml:"risk_level"`
}

// Validate checks required fields, enumerated values, and the
// functional profile lists (non-empty, no blank entries).
func (t *Transaction) Validate() error {
	if !validTransactionTypes[t.Type] {
		return fmt.Errorf("unsupported transaction type %q", t.Type)
	}
	if t.Description == "" {
		return fmt.Errorf("transaction description is required")
	}
	if t.RelatedPartyName == "" {
		return fmt.Errorf("related party name is required")
	}
	if t.RelatedPartyJurisdiction == "" {
		return fmt.Errorf("related party jurisdiction is required")
	}
	switch t.RiskLevel {
	case RiskLow, RiskMedium, RiskHigh:
	default:
		return fmt.Errorf("unsupported risk level %q", t.RiskLevel)
	}
	for name, list := range map[string][]string{
		"functions": t.Functions,
		"assets":    t.Assets,
		"risks":     t.Risks,
	} {
		if len(list) == 0 {
			return fmt.Errorf("at least one entry required in %s", name)
		}
		for _, item := range list {
			if strings.TrimSpace(item) == "" {
				return fmt.Errorf("%s entries cannot be blank", name)
			}
		}
	}
	return nil
}
