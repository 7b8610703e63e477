// internal/notify/reply.go
package notify

import (
	"context"
	"fmt"

	commonerrors "ticket-triage/internal/common/errors"
	"ticket-triage/internal/common/logger"
	"ticket-triage/internal/triage"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// EmailAPI is the slice of the SES client the dispatcher needs.
type EmailAPI interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// ReplyDispatcher emails the generated first reply to a customer. Sentinel
// rows are skipped: a failure record has no reply worth sending.
type ReplyDispatcher struct {
	ses    EmailAPI
	from   string
	logger logger.Logger
}

func NewReplyDispatcher(api EmailAPI, from string, log logger.Logger) *ReplyDispatcher {
	return &ReplyDispatcher{
		ses:    api,
		from:   from,
		logger: log.With(map[string]interface{}{"component": "reply-dispatcher"}),
	}
}

// Dispatch sends the generated reply for one report row to the given
// address. Returns nil without sending for sentinel rows.
func (d *ReplyDispatcher) Dispatch(ctx context.Context, toAddress string, row triage.ReportRow) error {
	if row.Category == triage.SentinelValue {
		d.logger.Debug("skipping sentinel row", map[string]interface{}{
			"ticketId": row.TicketID,
		})
		return nil
	}

	subject := fmt.Sprintf("Re: your support ticket %s", row.TicketID)

	input := &ses.SendEmailInput{
		Source: aws.String(d.from),
		Destination: &types.Destination{
			ToAddresses: []string{toAddress},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(row.GeneratedReply)},
			},
		},
	}

	if _, err := d.ses.SendEmail(ctx, input); err != nil {
		return commonerrors.NewNotifySendFailedError(fmt.Errorf("send reply for ticket %s: %w", row.TicketID, err))
	}

	d.logger.Info("reply dispatched", map[string]interface{}{
		"ticketId": row.TicketID,
		"to":       toAddress,
	})
	return nil
}
