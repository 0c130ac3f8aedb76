package domain

// AnswerOutcome tags how answer synthesis finished.
type AnswerOutcome string

const (
	AnswerOutcomeSuccess  AnswerOutcome = "success"
	AnswerOutcomeTimedOut AnswerOutcome = "timed_out"
	AnswerOutcomeErrored  AnswerOutcome = "errored"
)

// Answer is the result of answer synthesis. Text is always populated; for
// TimedOut and Errored outcomes it holds an excerpt-based fallback and Err
// carries the cause.
type Answer struct {
	Outcome AnswerOutcome
	Text    string
	Err     error
}

// Degraded reports whether the answer is a fallback rather than model output.
func (a Answer) Degraded() bool {
	return a.Outcome != AnswerOutcomeSuccess
}
