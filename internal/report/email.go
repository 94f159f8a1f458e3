// Package report composes the daily pick summary mail and delivers it
// through an SMTP relay.
package report

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/newer-zhu/investment/internal/store"
	"github.com/newer-zhu/investment/pkg/config"
	"github.com/newer-zhu/investment/pkg/logger"
)

const (
	noFileBody    = "未找到导出的选股文件。请先运行选股脚本生成 CSV。"
	emptyFileBody = "文件存在，但没有选中的股票。"
)

// Sender delivers one composed mail. The SMTP implementation is the
// production one.
type Sender interface {
	Send(subject, body string) error
}

// Report is a composed daily mail. DateKey is empty when no pick file
// was found.
type Report struct {
	Subject string
	Body    string
	DateKey string
}

// Reporter builds the daily summary from the published pick files and
// hands it to a Sender.
type Reporter struct {
	store  *store.CSVStore
	sender Sender
	logger *logger.Logger
}

// NewReporter creates a reporter over the pick store.
func NewReporter(st *store.CSVStore, sender Sender, log *logger.Logger) *Reporter {
	return &Reporter{store: st, sender: sender, logger: log}
}

// Compose builds the report dated now. Today's pick file is preferred,
// falling back to the newest published one. A missing or empty file
// still yields a report so the recipient learns nothing was picked.
func (r *Reporter) Compose(now time.Time) (*Report, error) {
	subject := "股票提醒 " + now.Format("2006-01-02")

	dateKey, err := r.store.TodayOrLatest(now)
	if errors.Is(err, store.ErrNoDataset) {
		return &Report{Subject: subject, Body: noFileBody}, nil
	}
	if err != nil {
		return nil, err
	}

	data, err := r.store.ReadRaw(dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to read pick file for %s: %w", dateKey, err)
	}

	table, err := tableText(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse pick file for %s: %w", dateKey, err)
	}

	filename := filepath.Base(r.store.Path(dateKey))
	return &Report{
		Subject: subject,
		Body:    fmt.Sprintf("今日选股文件: %s\n\n%s", filename, table),
		DateKey: dateKey,
	}, nil
}

// Send composes the report dated now and delivers it.
func (r *Reporter) Send(now time.Time) error {
	rep, err := r.Compose(now)
	if err != nil {
		return err
	}
	if err := r.sender.Send(rep.Subject, rep.Body); err != nil {
		return err
	}

	r.logger.WithFields(map[string]interface{}{
		"subject": rep.Subject,
		"date":    rep.DateKey,
	}).Info("Daily report sent")
	return nil
}

// tableText renders the CSV bytes as a fixed-width text table, or the
// empty-file notice when no rows follow the header.
func tableText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	lines, err := reader.ReadAll()
	if err != nil {
		return "", err
	}
	if len(lines) <= 1 {
		return emptyFileBody, nil
	}

	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)
	for _, line := range lines {
		fmt.Fprintln(w, strings.Join(line, "\t"))
	}
	if err := w.Flush(); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// SMTPSender delivers mail through a plain-auth SMTP relay, upgrading
// to TLS when the relay offers STARTTLS.
type SMTPSender struct {
	cfg config.SMTPConfig
}

// NewSMTPSender creates a sender for the configured relay.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send submits one message to every configured recipient.
func (s *SMTPSender) Send(subject, body string) error {
	if s.cfg.Host == "" {
		return errors.New("smtp host not configured")
	}
	if len(s.cfg.Recipients) == 0 {
		return errors.New("no report recipients configured")
	}

	from := s.cfg.From
	if from == "" {
		from = s.cfg.Username
	}

	msg := buildMessage(from, s.cfg.Recipients, subject, body)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := smtp.SendMail(addr, auth, from, s.cfg.Recipients, msg); err != nil {
		return fmt.Errorf("failed to send report mail: %w", err)
	}
	return nil
}

func buildMessage(from string, to []string, subject, body string) []byte {
	var msg strings.Builder
	fmt.Fprintf(&msg, "From: %s\r\n", from)
	fmt.Fprintf(&msg, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&msg, "Subject: %s\r\n", mime.BEncoding.Encode("utf-8", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)
	return []byte(msg.String())
}
