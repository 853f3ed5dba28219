package models

type IssueKind string

const (
	IssueDealNotFound  IssueKind = "deal_not_found"
	IssueDealInactive  IssueKind = "deal_inactive"
	IssueTierMissing   IssueKind = "tier_missing"
	IssueTierExcess    IssueKind = "tier_excess"
	IssueInvalidTier   IssueKind = "invalid_tier"
	IssueUnknownItem   IssueKind = "unknown_item"
	IssueDuplicateItem IssueKind = "duplicate_item"
)

// ValidationIssue is the typed form of one entry in ValidationResult.Errors.
type ValidationIssue struct {
	Kind      IssueKind `json:"kind"`
	Tier      Tier      `json:"tier,omitempty"`
	ProductID string    `json:"productId,omitempty"`
	Count     int       `json:"count,omitempty"`
	Message   string    `json:"message"`
}

// ValidationResult is the outcome of checking a cart against a deal.
// Errors keeps the shopper-facing messages in their reporting order.
type ValidationResult struct {
	IsValid      bool              `json:"isValid"`
	Errors       []string          `json:"errors"`
	MissingSlots map[Tier]int      `json:"missingSlots,omitempty"`
	Issues       []ValidationIssue `json:"issues,omitempty"`
}

// Add records an issue and marks the result invalid.
func (r *ValidationResult) Add(issue ValidationIssue) {
	r.Issues = append(r.Issues, issue)
	r.Errors = append(r.Errors, issue.Message)
	r.IsValid = false
}

// HasKind reports whether any recorded issue has the given kind.
func (r ValidationResult) HasKind(kind IssueKind) bool {
	for _, is := range r.Issues {
		if is.Kind == kind {
			return true
		}
	}
	return false
}
