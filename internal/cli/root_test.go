package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/julianstephens/habitguard/internal/constants"
	apperrors "github.com/julianstephens/habitguard/internal/errors"
	"github.com/julianstephens/habitguard/internal/rewards"
	"github.com/julianstephens/habitguard/internal/tracker"
)

func TestParseRewardSpec(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    tracker.NewRule
		wantErr bool
	}{
		{
			name: "recurring with quantity",
			spec: "Coffee:recurring:7:2",
			want: tracker.NewRule{Name: "Coffee", Kind: constants.RewardRecurring, Requirement: 7, Quantity: 2},
		},
		{
			name: "one-time defaults quantity",
			spec: "Movie night:once:30",
			want: tracker.NewRule{Name: "Movie night", Kind: constants.RewardOneTime, Requirement: 30, Quantity: 1},
		},
		{name: "too few parts", spec: "Coffee:recurring", wantErr: true},
		{name: "too many parts", spec: "a:recurring:1:1:1", wantErr: true},
		{name: "bad kind", spec: "Coffee:sometimes:7", wantErr: true},
		{name: "bad requirement", spec: "Coffee:recurring:seven", wantErr: true},
		{name: "bad quantity", spec: "Coffee:recurring:7:two", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRewardSpec(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseRewardSpec(%q) expected error", tt.spec)
				}
				if !apperrors.IsInvalid(err) {
					t.Errorf("expected invalid configuration error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRewardSpec(%q) unexpected error: %v", tt.spec, err)
			}
			if got != tt.want {
				t.Errorf("ParseRewardSpec(%q) = %+v, want %+v", tt.spec, got, tt.want)
			}
		})
	}
}

func TestParseItemKind(t *testing.T) {
	if k, err := ParseItemKind(" Task "); err != nil || k != constants.ItemKindTask {
		t.Errorf("ParseItemKind(Task) = %q, %v", k, err)
	}
	if _, err := ParseItemKind("chore"); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestIsPostgres(t *testing.T) {
	tests := map[string]bool{
		"postgres://u@localhost/db":     true,
		"postgresql://u@localhost/db":   true,
		"host=localhost dbname=db":      true,
		"~/.config/habitguard/data.db":  false,
		"/tmp/postgres-notes/habits.db": false,
	}
	for config, want := range tests {
		if got := IsPostgres(config); got != want {
			t.Errorf("IsPostgres(%q) = %v, want %v", config, got, want)
		}
	}
}

func TestPrintFired(t *testing.T) {
	var buf bytes.Buffer
	PrintFired(&buf, []rewards.Fired{
		{RuleID: "r1", Name: "Coffee", QuantityGranted: 1},
		{RuleID: "r2", Name: "Cookie", QuantityGranted: 4},
	})

	out := buf.String()
	if !strings.Contains(out, "Coffee") || !strings.Contains(out, "Cookie") {
		t.Errorf("missing reward names in %q", out)
	}
	if !strings.Contains(out, "×4") {
		t.Errorf("missing quantity in %q", out)
	}
	if strings.Count(out, "\n") != 2 {
		t.Errorf("expected one line per reward, got %q", out)
	}
}
