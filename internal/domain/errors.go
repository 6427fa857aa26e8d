package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInterviewNotFound is returned when an interview is unknown to both store layers.
	ErrInterviewNotFound = errors.New("interview not found")

	// ErrMissingVideo is returned when an upload carries no video payload.
	ErrMissingVideo = errors.New("video file is required")

	// ErrQueueFull is returned when the processing queue rejects a new job.
	ErrQueueFull = errors.New("processing queue is full, try again later")

	// ErrDispatchFailed is returned when the message broker publish fails.
	ErrDispatchFailed = errors.New("failed to dispatch interview for processing")

	// ErrSourceNotFound is returned when a staged input file is missing or unreadable.
	ErrSourceNotFound = errors.New("source file not found")

	// ErrExtractionFailed is returned when the demuxer exits with an error.
	ErrExtractionFailed = errors.New("audio extraction failed")

	// ErrExtractionTimeout is returned when the demuxer exceeds its hard timeout.
	ErrExtractionTimeout = errors.New("audio extraction timed out")

	// ErrEmptyAudioTrack is returned when extraction produced no audio data.
	ErrEmptyAudioTrack = errors.New("audio extraction produced an empty file, ensure the video has an audio track")

	// ErrEmptyTranscript is returned when STT produced no speech.
	ErrEmptyTranscript = errors.New("no speech detected in the interview audio: the recording may be silent, inaudible, or missing a voice track")

	// ErrScoringFailed is returned when the text scorer fails.
	ErrScoringFailed = errors.New("transcript scoring failed")

	// ErrInterrupted is returned when the server stops before an interview finishes.
	ErrInterrupted = errors.New("interrupted by shutdown")

	// ErrInvalidWeights is returned by weighted averaging on empty or mismatched input.
	ErrInvalidWeights = errors.New("values and weights must be the same length and non-empty")
)

// StageError records the pipeline stage in which a job failed.
type StageError struct {
	Stage string
	Err   error
}

// Error formats the failure for the persisted error message.
func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying error for errors.Is / errors.As.
func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
