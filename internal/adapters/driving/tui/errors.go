package tui

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("tui: answer service is required")

// ErrNoFeedbackService is shown when rating without a feedback service.
var ErrNoFeedbackService = errors.New("feedback is not available")

// ErrNothingToRate is shown when there is no recorded answer to rate.
var ErrNothingToRate = errors.New("no recorded answer to rate")
