package models

import (
	"strings"
	"time"
)

// AnswerSeparator joins the accepted answers of a challenge question.
const AnswerSeparator = " -+|+- "

// QuestionAnswerPair is a challenge question shown on public forms.
type QuestionAnswerPair struct {
	ID       int64
	Question string
	Answer   string
}

func (q *QuestionAnswerPair) String() string {
	return q.Question
}

// Answers returns the accepted answers.
func (q *QuestionAnswerPair) Answers() []string {
	if q.Answer == "" {
		return nil
	}
	return strings.Split(q.Answer, AnswerSeparator)
}

// SetAnswers stores the accepted answers, lowercased.
func (q *QuestionAnswerPair) SetAnswers(answers ...string) {
	var kept []string
	for _, a := range answers {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			kept = append(kept, a)
		}
	}
	q.Answer = strings.Join(kept, AnswerSeparator)
}

// CheckAnswer reports whether s matches one of the accepted answers.
func (q *QuestionAnswerPair) CheckAnswer(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, a := range q.Answers() {
		if a == s {
			return true
		}
	}
	return false
}

// SiteMessage is a message left through the public contact form.
type SiteMessage struct {
	ID          int64
	SenderName  string
	SenderEmail string
	MessageBody string
	DateSent    time.Time
	IsSent      bool
}

func (m *SiteMessage) String() string {
	return m.SenderName + " <" + m.SenderEmail + ">"
}
