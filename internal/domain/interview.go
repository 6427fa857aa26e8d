package domain

import (
	"time"
)

// InterviewStatus represents the lifecycle state of an interview evaluation job.
type InterviewStatus string

const (
	StatusProcessing InterviewStatus = "processing"
	StatusCompleted  InterviewStatus = "completed"
	StatusFailed     InterviewStatus = "failed"
)

// IsTerminal returns true if the status represents a final state.
func (s InterviewStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// IsValid checks if the status is one of the known states.
func (s InterviewStatus) IsValid() bool {
	return s == StatusProcessing || s.IsTerminal()
}

// DefaultLanguage is stored until the transcript has been tagged.
const DefaultLanguage = "en"

// Interview is the durable record of one interview evaluation.
// Score fields stay nil until the job completes; ErrorMessage is only set on failure.
type Interview struct {
	ID             string
	CandidateID    string
	Language       string
	Status         InterviewStatus
	VerbalScore    *float64
	NonVerbalScore *float64
	CheatingScore  *float64
	FinalScore     *float64
	Confidence     *float64
	Summary        *string
	ErrorMessage   *string
	Transcript     *Transcript
	Scores         *TextScores
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Transcript is the 1:1 transcript record of an interview.
type Transcript struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

// Clone returns a deep copy of the record.
func (i *Interview) Clone() *Interview {
	if i == nil {
		return nil
	}
	c := *i
	for _, p := range []**float64{&c.VerbalScore, &c.NonVerbalScore, &c.CheatingScore, &c.FinalScore, &c.Confidence} {
		if *p != nil {
			*p = float64Ptr(**p)
		}
	}
	if c.Summary != nil {
		c.Summary = stringPtr(*c.Summary)
	}
	if c.ErrorMessage != nil {
		c.ErrorMessage = stringPtr(*c.ErrorMessage)
	}
	if c.Transcript != nil {
		t := *c.Transcript
		t.Segments = append([]Segment(nil), c.Transcript.Segments...)
		c.Transcript = &t
	}
	if c.Scores != nil {
		s := *c.Scores
		c.Scores = &s
	}
	return &c
}

// ResetForProcessing clears every outcome field, leaving identity and timestamps intact.
func (i *Interview) ResetForProcessing(candidateID string) {
	i.CandidateID = candidateID
	i.Status = StatusProcessing
	if i.Language == "" {
		i.Language = DefaultLanguage
	}
	i.VerbalScore = nil
	i.NonVerbalScore = nil
	i.CheatingScore = nil
	i.FinalScore = nil
	i.Confidence = nil
	i.Summary = nil
	i.ErrorMessage = nil
	i.Transcript = nil
	i.Scores = nil
}

// Apply overwrites the record with a terminal outcome.
func (i *Interview) Apply(candidateID string, out TerminalOutcome) {
	i.ResetForProcessing(candidateID)
	i.Status = out.Status
	if out.Language != "" {
		i.Language = out.Language
	}
	if out.Transcript != nil {
		t := *out.Transcript
		i.Transcript = &t
	}
	if out.Scores != nil {
		s := *out.Scores
		i.Scores = &s
	}

	switch out.Status {
	case StatusCompleted:
		if r := out.Report; r != nil {
			i.VerbalScore = float64Ptr(r.VerbalScore)
			i.Confidence = float64Ptr(r.Confidence)
			i.FinalScore = float64Ptr(r.FinalScore)
			i.Summary = stringPtr(r.Summary)
			if r.NonVerbalScore != nil {
				i.NonVerbalScore = float64Ptr(*r.NonVerbalScore)
			}
			if r.CheatingScore != nil {
				i.CheatingScore = float64Ptr(*r.CheatingScore)
			}
		}
	case StatusFailed:
		i.ErrorMessage = stringPtr(out.ErrorMessage)
	}
}

// Result projects the durable record onto the client-facing read model.
func (i *Interview) Result() *InterviewResult {
	res := &InterviewResult{
		InterviewID: i.ID,
		CandidateID: i.CandidateID,
		Status:      i.Status,
	}

	switch i.Status {
	case StatusCompleted:
		r := &Report{
			Language: i.Language,
		}
		if i.VerbalScore != nil {
			r.VerbalScore = *i.VerbalScore
		}
		if i.Confidence != nil {
			r.Confidence = *i.Confidence
		}
		if i.FinalScore != nil {
			r.FinalScore = *i.FinalScore
		}
		if i.Summary != nil {
			r.Summary = *i.Summary
		}
		if i.NonVerbalScore != nil {
			r.NonVerbalScore = float64Ptr(*i.NonVerbalScore)
		}
		if i.CheatingScore != nil {
			r.CheatingScore = float64Ptr(*i.CheatingScore)
		}
		if i.Transcript != nil {
			r.Transcript = i.Transcript.Text
		}
		res.Report = r
	case StatusFailed:
		if i.ErrorMessage != nil {
			res.ErrorMessage = *i.ErrorMessage
		}
	}
	return res
}

// InterviewResult is the read model returned to polling clients and held in the cache.
type InterviewResult struct {
	InterviewID  string          `json:"interview_id"`
	CandidateID  string          `json:"candidate_id"`
	Status       InterviewStatus `json:"status"`
	Report       *Report         `json:"report,omitempty"`
	ErrorMessage string          `json:"error_message,omitempty"`
}

// Clone returns a deep copy so cached projections are never shared between callers.
func (r *InterviewResult) Clone() *InterviewResult {
	if r == nil {
		return nil
	}
	c := *r
	if r.Report != nil {
		rep := *r.Report
		if r.Report.NonVerbalScore != nil {
			rep.NonVerbalScore = float64Ptr(*r.Report.NonVerbalScore)
		}
		if r.Report.CheatingScore != nil {
			rep.CheatingScore = float64Ptr(*r.Report.CheatingScore)
		}
		c.Report = &rep
	}
	return &c
}

// InterviewTask is the unit of work handed from ingestion to the orchestrator.
type InterviewTask struct {
	InterviewID    string    `json:"interview_id"`
	CandidateID    string    `json:"candidate_id"`
	VideoPath      string    `json:"video_path"`
	ExpectedAnswer string    `json:"expected_answer"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

// TaskMessage wraps a task with delivery acknowledgement callbacks.
// Tasks dispatched in-process carry no-op callbacks.
type TaskMessage struct {
	Task *InterviewTask
	Ack  func() error
	Nack func(requeue bool) error
}

// SubmitResponse is returned after a successful upload.
type SubmitResponse struct {
	InterviewID string          `json:"interview_id"`
	Status      InterviewStatus `json:"status"`
}

func float64Ptr(v float64) *float64 { return &v }

func stringPtr(v string) *string { return &v }
