package notify

import (
	"fmt"

	"github.com/emilythestrangee/qanda/backend/internal/models"
)

// Message is a rendered notification for one user.
type Message struct {
	Recipient models.User
	Subject   string
	Body      string
}

func AnswerAccepted(author models.User, question models.Question) Message {
	return Message{
		Recipient: author,
		Subject:   "Your Answer Has Been Accepted",
		Body: fmt.Sprintf("Hello %s,\n\nYour answer to the question \"%s\" has been marked as accepted by the question author.\n\nRegards,\nYour QA Platform",
			author.Username, question.Title),
	}
}

func NewAnswer(questionAuthor models.User, question models.Question) Message {
	return Message{
		Recipient: questionAuthor,
		Subject:   "New Answer Posted on Your Question",
		Body: fmt.Sprintf("Hello %s,\n\nA new answer has been posted on your question titled \"%s\".",
			questionAuthor.Username, question.Title),
	}
}
