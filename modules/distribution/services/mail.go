package services

import (
	"context"
	"fmt"
	"io"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrUnavailable marks a mail host that cannot be reached or is not
	// configured. It aborts a batch instead of failing single items.
	ErrUnavailable = errors.New("mail collaborator unavailable")
	ErrAlreadySent = errors.New("email already sent")
	ErrNoEmail     = errors.New("manager has no email address")
)

// Draft is a message waiting to be sent.
type Draft struct {
	To         string
	Subject    string
	HTMLBody   string
	Attachment string
}

type DraftInfo struct {
	ID      string `json:"id"`
	Folder  string `json:"folder"`
	Subject string `json:"subject"`
	To      string `json:"to"`
}

// Mailbox stores drafts in named folders and sends them. A Mailbox handle
// belongs to one batch call and is not shared between goroutines.
type Mailbox interface {
	EnsureFolder(ctx context.Context, name string) error
	CreateDraft(ctx context.Context, folder string, d Draft) (DraftInfo, error)
	ListDrafts(ctx context.Context, folder string) ([]DraftInfo, error)
	Send(ctx context.Context, id string) error
}

// ProgressFunc reports the item just processed.
type ProgressFunc func(current, total int, description string)

type Failure struct {
	Identifier string `json:"identifier"`
	Error      string `json:"error"`
}

type DraftResult struct {
	Created  int       `json:"created"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures"`
}

type SendResult struct {
	Sent     int       `json:"sent"`
	Failed   int       `json:"failed"`
	Failures []Failure `json:"failures"`
}

type Dispatcher struct {
	log     *logrus.Entry
	metrics *Metrics
}

// NewDispatcher wires the batch mail operations. log and metrics may be nil.
func NewDispatcher(log *logrus.Entry, metrics *Metrics) *Dispatcher {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	return &Dispatcher{log: log, metrics: metrics}
}

// CreateDrafts creates one draft per target in folder. Per-target errors are
// collected; ErrUnavailable stops the batch and is returned with the partial
// result.
func (d *Dispatcher) CreateDrafts(ctx context.Context, box Mailbox, folder string, targets []Target, tmpl Templates, progress ProgressFunc) (*DraftResult, error) {
	if folder == "" {
		folder = DefaultFolder
	}
	res := &DraftResult{Failures: []Failure{}}
	if err := box.EnsureFolder(ctx, folder); err != nil {
		return res, errors.Wrapf(err, "prepare folder %q", folder)
	}

	for i, t := range targets {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "draft creation interrupted")
		}
		log := d.log.WithFields(logrus.Fields{"manager.name": t.Name, "email": t.Email})

		err := d.createOne(ctx, box, folder, t, tmpl)
		switch {
		case errors.Is(err, ErrUnavailable):
			return res, err
		case err != nil:
			res.Failed++
			res.Failures = append(res.Failures, Failure{Identifier: t.Name + " <" + t.Email + ">", Error: err.Error()})
			log.WithError(err).Warn("draft creation failed")
			d.metrics.draft("failed")
		default:
			res.Created++
			log.Debug("draft created")
			d.metrics.draft("created")
		}
		if progress != nil {
			progress(i+1, len(targets), t.Name)
		}
	}
	d.log.WithFields(logrus.Fields{"created": res.Created, "failed": res.Failed, "folder": folder}).Info("drafts created")
	return res, nil
}

func (d *Dispatcher) createOne(ctx context.Context, box Mailbox, folder string, t Target, tmpl Templates) error {
	if t.Email == "" {
		return ErrNoEmail
	}
	subject, body := tmpl.Render(t.Name)
	_, err := box.CreateDraft(ctx, folder, Draft{
		To:         t.Email,
		Subject:    subject,
		HTMLBody:   body,
		Attachment: t.Attachment,
	})
	return err
}

// SendDrafts sends the given drafts in order. An already sent draft is a
// failure of that item only.
func (d *Dispatcher) SendDrafts(ctx context.Context, box Mailbox, drafts []DraftInfo, progress ProgressFunc) (*SendResult, error) {
	res := &SendResult{Failures: []Failure{}}
	for i, dr := range drafts {
		if err := ctx.Err(); err != nil {
			return res, errors.Wrap(err, "sending interrupted")
		}
		subject := dr.Subject
		if subject == "" {
			subject = "Unknown"
		}
		log := d.log.WithFields(logrus.Fields{"draft.id": dr.ID, "email": dr.To})

		var desc string
		err := box.Send(ctx, dr.ID)
		switch {
		case errors.Is(err, ErrUnavailable):
			return res, err
		case errors.Is(err, ErrAlreadySent):
			res.Failed++
			res.Failures = append(res.Failures, Failure{Identifier: subject, Error: "Email already sent"})
			desc = fmt.Sprintf("SKIPPED: %s (already sent)", subject)
			d.metrics.email("skipped")
		case err != nil:
			res.Failed++
			res.Failures = append(res.Failures, Failure{Identifier: subject, Error: err.Error()})
			desc = "FAILED: " + subject
			log.WithError(err).Warn("send failed")
			d.metrics.email("failed")
		default:
			res.Sent++
			desc = subject + " → " + dr.To
			log.Debug("draft sent")
			d.metrics.email("sent")
		}
		if progress != nil {
			progress(i+1, len(drafts), desc)
		}
	}
	d.log.WithFields(logrus.Fields{"sent": res.Sent, "failed": res.Failed}).Info("drafts sent")
	return res, nil
}
