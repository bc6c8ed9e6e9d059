package builtin

import (
	"ai-agent-be/internal/pkg/mailer"
	"ai-agent-be/pkg/tools"
	"context"
	"fmt"
	"net/mail"
)

func SendEmail(sender mailer.IEmailService) tools.Tool {
	return tools.Tool{
		Descriptor: tools.Descriptor{
			Name:        "send_email",
			Description: "Send an email to a single recipient",
			Params: []tools.Param{
				{Name: "receiver", Type: tools.TypeString, Description: "Recipient email address", Required: true},
				{Name: "subject", Type: tools.TypeString, Required: true},
				{Name: "content", Type: tools.TypeString, Description: "Plain-text body", Required: true},
			},
		},
		Run: func(ctx context.Context, args map[string]interface{}) (string, error) {
			receiver, err := tools.String(args, "receiver")
			if err != nil {
				return "", err
			}
			if _, err := mail.ParseAddress(receiver); err != nil {
				return "", fmt.Errorf("%w: receiver %q is not an email address", tools.ErrInvalidArgs, receiver)
			}
			subject, err := tools.String(args, "subject")
			if err != nil {
				return "", err
			}
			content, err := tools.String(args, "content")
			if err != nil {
				return "", err
			}

			if err := sender.Send(receiver, subject, content); err != nil {
				return "", err
			}
			return fmt.Sprintf("Email sent to %s.", receiver), nil
		},
	}
}
