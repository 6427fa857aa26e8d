package domain

// Segment is one timed span of an STT transcript.
// AvgLogprob is nil when the engine did not report a score for the segment.
type Segment struct {
	ID         int      `json:"id"`
	Start      float64  `json:"start"`
	End        float64  `json:"end"`
	Text       string   `json:"text"`
	AvgLogprob *float64 `json:"avg_logprob,omitempty"`
}

// STTResult is the output of the speech-to-text stage.
type STTResult struct {
	Text       string
	Segments   []Segment
	Confidence *float64
	Language   string
}

// TextScores are the scorer outputs, each in [0,1].
type TextScores struct {
	Fluency   float64 `json:"fluency"`
	Relevance float64 `json:"relevance"`
	Overall   float64 `json:"overall"`
}

// ScoringResult is the output of the scoring stage.
type ScoringResult struct {
	Scores  TextScores
	Summary string
}

// VisionSignal is the optional non-verbal input to aggregation.
type VisionSignal struct {
	CheatingScore   float64 `json:"cheating_score"`
	EyeContactRatio float64 `json:"eye_contact_ratio"`
	PhoneDetected   bool    `json:"phone_detected"`
	MultiPerson     bool    `json:"multi_person"`
}

// Report is the aggregated evaluation of a completed interview.
type Report struct {
	VerbalScore    float64  `json:"verbal_score"`
	NonVerbalScore *float64 `json:"non_verbal_score,omitempty"`
	CheatingScore  *float64 `json:"cheating_score,omitempty"`
	Confidence     float64  `json:"confidence"`
	FinalScore     float64  `json:"final_score"`
	Summary        string   `json:"summary"`
	Transcript     string   `json:"transcript"`
	Language       string   `json:"language,omitempty"`
}

// TerminalOutcome is everything the orchestrator writes when a job ends.
type TerminalOutcome struct {
	Status       InterviewStatus
	Report       *Report
	ErrorMessage string
	Transcript   *Transcript
	Scores       *TextScores
	Language     string
}

// Completed builds the outcome of a successfully evaluated interview.
func Completed(report *Report, transcript *Transcript, scores *TextScores) TerminalOutcome {
	out := TerminalOutcome{
		Status:     StatusCompleted,
		Report:     report,
		Transcript: transcript,
		Scores:     scores,
	}
	if report != nil {
		out.Language = report.Language
	}
	return out
}

// Failed builds the outcome of a failed interview. A transcript may be kept when
// STT ran before the failure.
func Failed(message string, transcript *Transcript) TerminalOutcome {
	return TerminalOutcome{
		Status:       StatusFailed,
		ErrorMessage: message,
		Transcript:   transcript,
	}
}
