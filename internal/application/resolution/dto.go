package resolution

// Action is the terminal outcome of resolving one identity signal
type Action string

const (
	// ActionCreated means no candidate matched and a new customer was inserted
	ActionCreated Action = "created"
	// ActionUpdated means the signal's (provider, externalID) pair was already
	// linked: this source has been seen before and the profile was refreshed
	ActionUpdated Action = "updated"
	// ActionLinked means an email or phone match attached this source to an
	// existing customer without altering its identity keys
	ActionLinked Action = "linked"
	// ActionAmbiguous means email and phone matched two different customers;
	// the email match was linked and flagged for manual review
	ActionAmbiguous Action = "ambiguous"
	// ActionSkipped means the signal carried no identifying field
	ActionSkipped Action = "skipped"
)

// Resolution is the outcome of resolving a single signal
type Resolution struct {
	CustomerID int64  `json:"customer_id"`
	Action     Action `json:"action"`
	// NeedsReview is set on ambiguous outcomes. The conflicting customer is
	// reported but deliberately left unmodified: silently merging two existing
	// records risks mixing two distinct people's data.
	NeedsReview bool  `json:"needs_review,omitempty"`
	ConflictID  int64 `json:"conflict_id,omitempty"`
}

// ImportEntry is the per-record outcome of a batch import
type ImportEntry struct {
	Index      int    `json:"index"`
	CustomerID int64  `json:"customer_id"`
	Action     Action `json:"action"`
	Error      string `json:"error,omitempty"`
}

// ImportReport aggregates a batch import run. A partially failing batch is
// still a successful call; failures are enumerated per record here.
type ImportReport struct {
	Total     int  `json:"total"`
	Created   int  `json:"created"`
	Updated   int  `json:"updated"`
	Linked    int  `json:"linked"`
	Ambiguous int  `json:"ambiguous"`
	Skipped   int  `json:"skipped"`
	Errored   int  `json:"errored"`
	DryRun    bool `json:"dry_run"`
	// Entries is capped at maxReportEntries; Truncated reports whether
	// entries beyond the cap were dropped from the response
	Entries   []ImportEntry `json:"entries"`
	Truncated bool          `json:"truncated,omitempty"`
}

func (r *ImportReport) count(action Action) {
	switch action {
	case ActionCreated:
		r.Created++
	case ActionUpdated:
		r.Updated++
	case ActionLinked:
		r.Linked++
	case ActionAmbiguous:
		r.Ambiguous++
	case ActionSkipped:
		r.Skipped++
	}
}
