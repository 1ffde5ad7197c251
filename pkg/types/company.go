// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines the shared data model for the policy engine:
// companies, related-party transactions, generation state, and stage
// configuration.
package types

import "fmt"

// Jurisdiction identifies a supported tax jurisdiction.
type Jurisdiction string

const (
	JurisdictionIndia Jurisdiction = "India"
	JurisdictionUS    Jurisdiction = "US"
)

// EntityType classifies a company's functional role in the group.
type EntityType string

const (
	EntityManufacturer         EntityType = "manufacturer"
	EntityDistributor          EntityType = "distributor"
	EntityServiceProvider      EntityType = "service_provider"
	EntityRAndD                EntityType = "r_and_d"
	EntityContractManufacturer EntityType = "contract_manufacturer"
)

// validEntityTypes is the set of accepted EntityType values.
var validEntityTypes = map[EntityType]bool{
	EntityManufacturer:         true,
	EntityDistributor:          true,
	EntityServiceProvider:      true,
	EntityRAndD:                true,
	EntityContractManufacturer: true,
}

// Company holds the client entity a policy is generated for. The
// generation pipeline treats it as read-only input.
type Company struct {
	// ID is the company's stable identifier.
	ID string `json:"id" yaml:"id"`

	// Name is the company's legal name.
	Name string `json:"name" yaml:"name"`

	// Jurisdiction is the company's tax jurisdiction (e.g. "India").
	Jurisdiction Jurisdiction `json:"jurisdiction" yaml:"jurisdiction"`

	// TaxID is the tax identification number (e.g. an Indian PAN).
	TaxID string `json:"tax_id" yaml:"tax_id"`

	// EntityType classifies the company's functional role.
	EntityType EntityType `json:"entity_type" yaml:"entity_type"`

	// Address is the registered address (optional).
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Industry is the industry sector (optional).
	Industry string `json:"industry,omitempty" yaml:"industry,omitempty"`

	// FiscalYearEnd marks the fiscal year close (e.g. "31-Mar", optional).
	FiscalYearEnd string `json:"fiscal_year_end,omitempty" yaml:"fiscal_year_end,omitempty"`
}

// Validate checks required fields and enumerated values.
func (c *Company) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("company name is required")
	}
	if c.TaxID == "" {
		return fmt.Errorf("company tax_id is required")
	}
	switch c.Jurisdiction {
	case JurisdictionIndia, JurisdictionUS:
	default:
		return fmt.Errorf("unsupported jurisdiction %q", c.Jurisdiction)
	}
	if !validEntityTypes[c.EntityType] {
		return fmt.Errorf("unsupported entity type %q", c.EntityType)
	}
	return nil
}
