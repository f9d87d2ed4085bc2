package mail

import (
	"context"
	"fmt"
	"gradex/gradex/internal/feedback"
	"html"
)

// GradeNotification tells a student their submission was graded.
type GradeNotification struct {
	StudentName     string
	StudentEmail    string
	AssignmentTitle string
	Marks           int
	MaxMarks        int
	Feedback        string
}

// Mailer sends transactional email.
type Mailer interface {
	SendGradeNotification(ctx context.Context, n GradeNotification) error
}

// message is the rendered form shared by the mailer implementations.
type message struct {
	toName  string
	toAddr  string
	subject string
	text    string
	html    string
}

func renderGradeNotification(n GradeNotification) message {
	subject := fmt.Sprintf("Your submission for %q has been graded", n.AssignmentTitle)
	score := fmt.Sprintf("%d / %d", n.Marks, n.MaxMarks)

	text := fmt.Sprintf("Hi %s,\n\nYour submission for %q was graded: %s.\n", n.StudentName, n.AssignmentTitle, score)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your submission for <strong>%s</strong> was graded: <strong>%s</strong>.</p>",
		escape(n.StudentName), escape(n.AssignmentTitle), score)

	if n.Feedback != "" {
		text += "\nFeedback:\n\n" + feedback.Plain(n.Feedback) + "\n"
		html += "<h3>Feedback</h3>" + feedback.HTML(n.Feedback)
	}

	return message{
		toName:  n.StudentName,
		toAddr:  n.StudentEmail,
		subject: subject,
		text:    text,
		html:    html,
	}
}

func escape(s string) string {
	return html.EscapeString(s)
}
