package converter

// Stage is a step of Idle → Encoding → Requesting → Formatting → Done|Failed.
type Stage string

const (
	StageIdle       Stage = "idle"
	StageEncoding   Stage = "encoding"
	StageRequesting Stage = "requesting"
	StageFormatting Stage = "formatting"
	StageDone       Stage = "done"
	StageFailed     Stage = "failed"
)
