// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package section

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

// amountPrinter formats monetary amounts with thousands separators
// (e.g. 1,250,000.00).
var amountPrinter = message.NewPrinter(language.English)

// baseVars assembles the template variables shared by every section:
// company fields, fiscal year, the transaction listing and summary, and
// the retrieved passages formatted as labeled source blocks.
func baseVars(state *types.GenerationState, passages []string) map[string]string {
	relatedJurisdictions := distinctRelatedJurisdictions(state.Transactions)

	industry := state.Company.Industry
	if industry == "" {
		industry = "Not specified"
	}

	vars := map[string]string{
		"regulatory_context": formatRegulatoryContext(passages),
		"company_name":       state.Company.Name,
		"jurisdiction":       string(state.Company.Jurisdiction),
		"tax_id":             state.Company.TaxID,
		"entity_type":        string(state.Company.EntityType),
		"industry":           industry,
		"fiscal_year":        state.FiscalYear,
	}
	vars["transactions_detail"] = formatTransactions(state.Transactions)
	vars["transaction_summary"] = fmt.Sprintf("%d transactions with entities in %s",
		len(state.Transactions), strings.Join(relatedJurisdictions, ", "))
	vars["related_jurisdictions"] = strings.Join(relatedJurisdictions, ", ")
	return vars
}

// formatRegulatoryContext renders retrieved passages as numbered
// "REGULATORY SOURCE N" blocks separated by horizontal rules.
func formatRegulatoryContext(passages []string) string {
	blocks := make([]string, len(passages))
	for i, p := range passages {
		blocks[i] = fmt.Sprintf("REGULATORY SOURCE %d:\n%s", i+1, p)
	}
	return strings.Join(blocks, "\n\n---\n\n")
}

// formatTransactions renders the transaction list as a human-readable
// numbered block for inclusion in prompts.
func formatTransactions(txns []types.Transaction) string {
	entries := make([]string, len(txns))
	for i, txn := range txns {
		amount := "Not specified"
		if txn.Amount != nil {
			amount = amountPrinter.Sprintf("%.2f", *txn.Amount)
		}
		entries[i] = fmt.Sprintf(`Transaction %d:
- Type: %s
- Description: %s
- Related Party: %s (%s)
- Amount: %s %s
- Functions: %s
- Assets: %s
- Risks: %s
- Risk Level: %s`,
			i+1, txn.Type, txn.Description,
			txn.RelatedPartyName, txn.RelatedPartyJurisdiction,
			txn.Currency, amount,
			strings.Join(txn.Functions, ", "),
			strings.Join(txn.Assets, ", "),
			strings.Join(txn.Risks, ", "),
			txn.RiskLevel)
	}
	return strings.Join(entries, "\n\n")
}

// distinctTransactionTypes returns the sorted set of transaction types
// present in the input. Sorted so identical inputs build identical
// retrieval queries.
func distinctTransactionTypes(txns []types.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, txn := range txns {
		t := string(txn.Type)
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// distinctRelatedJurisdictions returns the sorted set of counterparty
// jurisdictions present in the input.
func distinctRelatedJurisdictions(txns []types.Transaction) []string {
	seen := make(map[string]bool)
	var out []string
	for _, txn := range txns {
		if !seen[txn.RelatedPartyJurisdiction] {
			seen[txn.RelatedPartyJurisdiction] = true
			out = append(out, txn.RelatedPartyJurisdiction)
		}
	}
	sort.Strings(out)
	return out
}
