package mailbox

import (
	"bytes"
	"context"
	"mime"
	"net/mail"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	"github.com/jacksonlee411/attainment-reports/modules/distribution/services"
)

const (
	draftsDir = "Drafts"
	sentDir   = "Sent"
	ext       = ".eml"
)

var ErrDraftNotFound = errors.New("draft not found")

// Store is a services.Mailbox rooted at a folder:
//
//	<root>/Drafts/<folder>/<id>.eml
//	<root>/Sent/<id>.eml
//
// Draft ids are "<folder>/<uuid>".
type Store struct {
	root      string
	from      string
	transport Transport
	now       func() time.Time
}

var _ services.Mailbox = (*Store)(nil)

// NewStore opens the mailbox at root. transport may be nil, in which case
// drafts can be created but Send reports services.ErrUnavailable.
func NewStore(root, from string, transport Transport) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.Wrap(services.ErrUnavailable, "mail root is not configured")
	}
	for _, dir := range []string{draftsDir, sentDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, errors.Wrapf(services.ErrUnavailable, "mail root %s: %v", root, err)
		}
	}
	return &Store{root: root, from: from, transport: transport, now: time.Now}, nil
}

func (s *Store) EnsureFolder(_ context.Context, name string) error {
	dir, err := s.folderDir(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(services.ErrUnavailable, "create folder %q: %v", name, err)
	}
	return nil
}

func (s *Store) CreateDraft(_ context.Context, folder string, d services.Draft) (services.DraftInfo, error) {
	dir, err := s.folderDir(folder)
	if err != nil {
		return services.DraftInfo{}, err
	}
	msg, err := buildMessage(s.from, d, s.now())
	if err != nil {
		return services.DraftInfo{}, err
	}
	id := uuid.NewString()
	if err := os.WriteFile(filepath.Join(dir, id+ext), msg, 0o644); err != nil {
		return services.DraftInfo{}, errors.Wrap(err, "write draft")
	}
	return services.DraftInfo{ID: folderName(folder) + "/" + id, Folder: folderName(folder), Subject: d.Subject, To: d.To}, nil
}

// ListDrafts returns the drafts of folder sorted by subject.
func (s *Store) ListDrafts(_ context.Context, folder string) ([]services.DraftInfo, error) {
	dir, err := s.folderDir(folder)
	if err != nil {
		return nil, err
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
	if err != nil {
		return nil, errors.Wrap(err, "list drafts")
	}
	out := make([]services.DraftInfo, 0, len(matches))
	for _, m := range matches {
		msg, err := readMessage(m)
		if err != nil {
			return nil, err
		}
		subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
		if err != nil {
			subject = msg.Header.Get("Subject")
		}
		out = append(out, services.DraftInfo{
			ID:      folderName(folder) + "/" + strings.TrimSuffix(filepath.Base(m), ext),
			Folder:  folderName(folder),
			Subject: subject,
			To:      msg.Header.Get("To"),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Subject < out[j].Subject })
	return out, nil
}

// Send delivers the draft id and moves it to Sent.
func (s *Store) Send(ctx context.Context, id string) error {
	folder, name, ok := strings.Cut(id, "/")
	if !ok || name == "" || strings.ContainsAny(name, `/\`) {
		return errors.Wrap(ErrDraftNotFound, id)
	}
	sent := filepath.Join(s.root, sentDir, name+ext)
	if _, err := os.Stat(sent); err == nil {
		return errors.Wrap(services.ErrAlreadySent, id)
	}
	dir, err := s.folderDir(folder)
	if err != nil {
		return err
	}
	src := filepath.Join(dir, name+ext)
	raw, err := os.ReadFile(src)
	if os.IsNotExist(err) {
		return errors.Wrap(ErrDraftNotFound, id)
	}
	if err != nil {
		return errors.Wrapf(err, "read draft %s", id)
	}
	if s.transport == nil {
		return errors.Wrap(services.ErrUnavailable, "no mail transport configured")
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return errors.Wrapf(err, "parse draft %s", id)
	}
	to, err := msg.Header.AddressList("To")
	if err != nil {
		return errors.Wrapf(err, "draft %s recipients", id)
	}
	from := s.from
	if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
		from = addr.Address
	}
	rcpt := make([]string, 0, len(to))
	for _, a := range to {
		rcpt = append(rcpt, a.Address)
	}
	if err := s.transport.Send(ctx, from, rcpt, raw); err != nil {
		return err
	}
	if err := os.Rename(src, sent); err != nil {
		return errors.Wrapf(err, "move %s to sent", id)
	}
	return nil
}

func (s *Store) folderDir(name string) (string, error) {
	n := folderName(name)
	if n == "" || n == "." || n == ".." {
		return "", errors.Errorf("invalid folder name %q", name)
	}
	return filepath.Join(s.root, draftsDir, n), nil
}

func folderName(name string) string {
	if strings.TrimSpace(name) == "" {
		name = services.DefaultFolder
	}
	return identity.SanitizeForFilename(name)
}

func readMessage(path string) (*mail.Message, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()
	msg, err := mail.ReadMessage(f)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return msg, nil
}
