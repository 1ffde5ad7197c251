package section

import (
	"testing"

	"github.com/pdiddy/tp-policy-engine/pkg/types"
)

func TestExtractCitations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    []string
	}{
		{
			name:    "OECD reference",
			content: "Per the OECD guidelines, the arm's length principle applies.",
			want:    []string{"OECD Transfer Pricing Guidelines"},
		},
		{
			name:    "Rule 10 reference",
			content: "Rule 10D prescribes the documentation to be maintained.",
			want:    []string{"India Transfer Pricing Regulations"},
		},
		{
			name:    "CBDT reference",
			content: "The CBDT circular clarifies the safe harbour margins.",
			want:    []string{"India Transfer Pricing Regulations"},
		},
		{
			name:    "both sources",
			content: "The OECD guidelines and Rule 10B both address comparability.",
			want:    []string{"OECD Transfer Pricing Guidelines", "India Transfer Pricing Regulations"},
		},
		{
			name:    "no markers",
			content: "The controlled transactions are priced at arm's length.",
			want:    nil,
		},
		{
			name:    "duplicate markers counted once",
			content: "OECD paragraph 1.33 and OECD paragraph 2.2 both apply.",
			want:    []string{"OECD Transfer Pricing Guidelines"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractCitations(tt.content, types.JurisdictionIndia)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("citation %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestExtractCitationsUsesJurisdiction(t *testing.T) {
	got := ExtractCitations("See Rule 10E.", types.JurisdictionUS)
	if len(got) != 1 || got[0] != "US Transfer Pricing Regulations" {
		t.Errorf("got %v, want [US Transfer Pricing Regulations]", got)
	}
}
