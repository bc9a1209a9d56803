package models

// Verification failure messages.
const (
	VerifyHashMismatch   = "hash mismatch"
	VerifyFileMissing    = "file missing"
	VerifyRecordMissing  = "record missing"
	VerifyCorruptRecord  = "corrupt record"
	VerifyRoundTripLoss  = "round-trip mismatch"
	VerifyInvalidAddress = "invalid content address"
)

// VerificationTarget names the kind of record checked.
type VerificationTarget string

const (
	VerifyTargetAsset VerificationTarget = "asset"
	VerifyTargetAgent VerificationTarget = "agent"
)

// VerificationResult is the outcome of checking one asset or agent.
type VerificationResult struct {
	Target   VerificationTarget `json:"target"`
	ID       string             `json:"id"`
	Verified bool               `json:"verified"`
	Error    string             `json:"error,omitempty"`
}

// VerificationReport aggregates results of a batch run.
type VerificationReport struct {
	Checked  int                  `json:"checked"`
	Verified int                  `json:"verified"`
	Failed   int                  `json:"failed"`
	Failures []VerificationResult `json:"failures,omitempty"`
}

// Add folds one result into the report.
func (r *VerificationReport) Add(res VerificationResult) {
	r.Checked++
	if res.Verified {
		r.Verified++
		return
	}
	r.Failed++
	r.Failures = append(r.Failures, res)
}
