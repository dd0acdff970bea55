// Package notify delivers new-question notifications to mentors.
package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/mentorlink/internal/models"
	"github.com/hyperjump/mentorlink/pkg/utils"
)

// Notifier tells a mentor about a newly assigned question.
type Notifier interface {
	NotifyMentorNewQuestion(ctx context.Context, mentor models.MentorContact, questionText string, keywords []string) error
}

// LogNotifier writes notifications to the log. It is the default when no
// delivery channel is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier returns a notifier that logs at Info.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: utils.OrNop(logger)}
}

// NotifyMentorNewQuestion logs the notification.
func (n *LogNotifier) NotifyMentorNewQuestion(ctx context.Context, mentor models.MentorContact, questionText string, keywords []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.Info("new question for mentor",
		zap.String("mentor_id", mentor.ID),
		zap.String("mentor_email", mentor.Email),
		zap.String("question", utils.Truncate(questionText, 120)),
		zap.Strings("keywords", keywords))
	return nil
}

// Func adapts a function to Notifier.
type Func func(ctx context.Context, mentor models.MentorContact, questionText string, keywords []string) error

// NotifyMentorNewQuestion calls f.
func (f Func) NotifyMentorNewQuestion(ctx context.Context, mentor models.MentorContact, questionText string, keywords []string) error {
	return f(ctx, mentor, questionText, keywords)
}
