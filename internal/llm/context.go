package llm

import "context"

// Purposes recorded on every logged request.
const (
	PurposeDefinition = "definition"
	PurposeCloze      = "cloze"
	PurposeCombo      = "combo"
	PurposeGrade      = "grade"
	PurposeDispute    = "dispute"

	purposeUnknown = "unknown"
)

type purposeKey struct{}

// WithPurpose labels ctx with what the request is for, so the event log
// and usage stats can group calls.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the label set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(purposeKey{}).(string); ok && v != "" {
		return v
	}
	return purposeUnknown
}
