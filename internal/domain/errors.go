package domain

import "errors"

var (
	// ErrQuestionNotFound indicates a referenced question id is missing from the bank.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrInvalidQuestion indicates a bank record failed boundary validation (e.g. zero distractors).
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrMatchNotFound indicates the match record could not be loaded.
	ErrMatchNotFound = errors.New("match not found")
	// ErrResultExists indicates a duplicate result append; callers treat it as success.
	ErrResultExists = errors.New("result entry already exists")
	// ErrSessionAborted wraps fatal mid-session failures; no partial score is persisted.
	ErrSessionAborted = errors.New("session aborted")
	// ErrNoParticipant is returned when a result write target cannot be attributed.
	ErrNoParticipant = errors.New("participant identity required")
	// ErrMatchCompleted is returned when joining a match that already finished.
	ErrMatchCompleted = errors.New("match already completed")
	// ErrNotInRoster is returned when a participant joins a match they are not registered for.
	ErrNotInRoster = errors.New("participant not in match roster")
	// ErrAnswerClosed is returned for answer submissions outside the hesitation window.
	ErrAnswerClosed = errors.New("question not open for answers")
)
