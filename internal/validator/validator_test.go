package validator

import (
	"testing"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
)

func finding(v thread.Verdict) thread.Finding {
	return thread.Finding{ValidationOutput: v}
}

func TestDeriveVerdict(t *testing.T) {
	tests := []struct {
		name     string
		findings []thread.Finding
		want     thread.Verdict
	}{
		{
			name:     "empty findings is ambiguous",
			findings: nil,
			want:     thread.VerdictTranslationAmbiguous,
		},
		{
			name:     "all valid",
			findings: []thread.Finding{finding(thread.VerdictValid), finding(thread.VerdictValid)},
			want:     thread.VerdictValid,
		},
		{
			name:     "any invalid wins over satisfiable and impossible",
			findings: []thread.Finding{finding(thread.VerdictSatisfiable), finding(thread.VerdictImpossible), finding(thread.VerdictInvalid)},
			want:     thread.VerdictInvalid,
		},
		{
			name:     "impossible wins over satisfiable when no invalid",
			findings: []thread.Finding{finding(thread.VerdictSatisfiable), finding(thread.VerdictImpossible)},
			want:     thread.VerdictImpossible,
		},
		{
			name:     "satisfiable when no invalid or impossible",
			findings: []thread.Finding{finding(thread.VerdictValid), finding(thread.VerdictSatisfiable)},
			want:     thread.VerdictSatisfiable,
		},
		{
			name:     "all no translations",
			findings: []thread.Finding{finding(thread.VerdictNoTranslations), finding(thread.VerdictNoTranslations)},
			want:     thread.VerdictNoTranslations,
		},
		{
			name:     "mixed no-translations and valid falls to ambiguous",
			findings: []thread.Finding{finding(thread.VerdictNoTranslations), finding(thread.VerdictValid)},
			want:     thread.VerdictTranslationAmbiguous,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeriveVerdict(tt.findings); got != tt.want {
				t.Fatalf("DeriveVerdict() = %s, want %s", got, tt.want)
			}
		})
	}
}
