// Package validator wraps the external Automated-Reasoning validator,
// normalising its findings into this core's Finding record and deriving the
// single overall verdict (§4.5).
package validator

import (
	"context"

	"github.com/aws-samples/ar-rewriting-orchestrator/internal/thread"
)

// Adapter is a pure function from answer text (plus the active policy) to a
// list of findings and an overall verdict.
type Adapter interface {
	Validate(ctx context.Context, policyID string, answer string) ([]thread.Finding, thread.Verdict, error)
}

// DeriveVerdict implements the aggregation rule of §4.5:
//   - VALID if every finding is VALID.
//   - INVALID if any finding is INVALID.
//   - IMPOSSIBLE if any finding is IMPOSSIBLE and none INVALID.
//   - SATISFIABLE if any finding is SATISFIABLE and none of the above.
//   - NO_TRANSLATIONS if all findings are NO_TRANSLATIONS.
//   - TRANSLATION_AMBIGUOUS otherwise.
//
// An empty finding list is TRANSLATION_AMBIGUOUS.
func DeriveVerdict(findings []thread.Finding) thread.Verdict {
	if len(findings) == 0 {
		return thread.VerdictTranslationAmbiguous
	}

	allValid := true
	allNoTranslations := true
	hasInvalid := false
	hasImpossible := false
	hasSatisfiable := false

	for _, f := range findings {
		if f.ValidationOutput != thread.VerdictValid {
			allValid = false
		}
		if f.ValidationOutput != thread.VerdictNoTranslations {
			allNoTranslations = false
		}
		switch f.ValidationOutput {
		case thread.VerdictInvalid:
			hasInvalid = true
		case thread.VerdictImpossible:
			hasImpossible = true
		case thread.VerdictSatisfiable:
			hasSatisfiable = true
		}
	}

	switch {
	case allValid:
		return thread.VerdictValid
	case hasInvalid:
		return thread.VerdictInvalid
	case hasImpossible:
		return thread.VerdictImpossible
	case hasSatisfiable:
		return thread.VerdictSatisfiable
	case allNoTranslations:
		return thread.VerdictNoTranslations
	default:
		return thread.VerdictTranslationAmbiguous
	}
}
