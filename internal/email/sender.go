// Package email renders and delivers customer emails.
package email

import (
	"context"
	"fmt"

	"fieldservice_backend/platform/logger"
)

// AssignmentEmail is the data shown to a customer once a technician is assigned.
type AssignmentEmail struct {
	CustomerName    string
	TechnicianName  string
	ReferenceNumber string
	Title           string
	ScheduledAt     string
	Address         string
}

// Sender delivers customer emails.
type Sender interface {
	SendAssignmentEmail(ctx context.Context, toEmail string, data AssignmentEmail) error
}

// LogSender logs emails instead of sending them. It is used when SMTP is not configured.
type LogSender struct {
	log *logger.Logger
}

// NewLogSender creates a LogSender.
func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) SendAssignmentEmail(ctx context.Context, toEmail string, data AssignmentEmail) error {
	s.log.WithContext(ctx).Info("[mock] email",
		"to", toEmail,
		"subject", fmt.Sprintf(subjectAssignmentFmt, data.ReferenceNumber),
		"technician", data.TechnicianName,
	)
	return nil
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*LogSender)(nil)
)
