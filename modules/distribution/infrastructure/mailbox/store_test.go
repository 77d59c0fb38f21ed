package mailbox

import (
	"context"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/attainment-reports/modules/distribution/services"
)

type sentMessage struct {
	from string
	to   []string
	raw  []byte
}

type fakeTransport struct {
	sent []sentMessage
	err  error
}

func (f *fakeTransport) Send(_ context.Context, from string, to []string, msg []byte) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMessage{from: from, to: to, raw: msg})
	return nil
}

func newStore(t *testing.T, tr Transport) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), "Sales Compensation <comp@example.com>", tr)
	require.NoError(t, err)
	return s
}

func attachment(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "FY26_Attainment_Bob_20260105.txt")
	require.NoError(t, os.WriteFile(p, []byte("quarterly numbers\n"), 0o644))
	return p
}

func TestNewStore_Unavailable(t *testing.T) {
	_, err := NewStore(" ", "", nil)
	require.ErrorIs(t, err, services.ErrUnavailable)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err = NewStore(file, "", nil)
	require.ErrorIs(t, err, services.ErrUnavailable)
}

func TestStore_DraftLifecycle(t *testing.T) {
	tr := &fakeTransport{}
	s := newStore(t, tr)
	ctx := context.Background()

	require.NoError(t, s.EnsureFolder(ctx, "Manager Report"))
	info, err := s.CreateDraft(ctx, "Manager Report", services.Draft{
		To:         "bob@example.com",
		Subject:    "FY26 Attainment Report - Bob",
		HTMLBody:   "<p>Hi Bob,</p>",
		Attachment: attachment(t),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(info.ID, "Manager Report/"))

	drafts, err := s.ListDrafts(ctx, "Manager Report")
	require.NoError(t, err)
	require.Equal(t, []services.DraftInfo{info}, drafts)

	require.NoError(t, s.Send(ctx, info.ID))
	require.Len(t, tr.sent, 1)
	require.Equal(t, "comp@example.com", tr.sent[0].from)
	require.Equal(t, []string{"bob@example.com"}, tr.sent[0].to)

	drafts, err = s.ListDrafts(ctx, "Manager Report")
	require.NoError(t, err)
	require.Empty(t, drafts)

	require.ErrorIs(t, s.Send(ctx, info.ID), services.ErrAlreadySent)
	require.ErrorIs(t, s.Send(ctx, "Manager Report/missing"), ErrDraftNotFound)
	require.ErrorIs(t, s.Send(ctx, "no-slash"), ErrDraftNotFound)
}

func TestStore_SendFailureKeepsDraft(t *testing.T) {
	s := newStore(t, &fakeTransport{err: errors.New("550 rejected")})
	ctx := context.Background()
	require.NoError(t, s.EnsureFolder(ctx, ""))
	info, err := s.CreateDraft(ctx, "", services.Draft{To: "bob@example.com", Subject: "s"})
	require.NoError(t, err)
	require.Equal(t, services.DefaultFolder, info.Folder)

	require.EqualError(t, s.Send(ctx, info.ID), "550 rejected")
	drafts, err := s.ListDrafts(ctx, "")
	require.NoError(t, err)
	require.Len(t, drafts, 1)
}

func TestStore_SendWithoutTransport(t *testing.T) {
	s := newStore(t, nil)
	ctx := context.Background()
	require.NoError(t, s.EnsureFolder(ctx, "Reports"))
	info, err := s.CreateDraft(ctx, "Reports", services.Draft{To: "bob@example.com", Subject: "s"})
	require.NoError(t, err)
	require.ErrorIs(t, s.Send(ctx, info.ID), services.ErrUnavailable)
}

func TestBuildMessage(t *testing.T) {
	path := attachment(t)
	raw, err := buildMessage("comp@example.com", services.Draft{
		To:         "li.wei@example.com",
		Subject:    "FY26 Attainment Report - Li Wei (李伟)",
		HTMLBody:   "<p>Hi</p>",
		Attachment: path,
	}, time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	subject, err := new(mime.WordDecoder).DecodeHeader(msg.Header.Get("Subject"))
	require.NoError(t, err)
	require.Equal(t, "FY26 Attainment Report - Li Wei (李伟)", subject)

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	require.Equal(t, "multipart/mixed", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	html, err := mr.NextPart()
	require.NoError(t, err)
	require.Equal(t, "text/html; charset=utf-8", html.Header.Get("Content-Type"))
	require.Equal(t, "<p>Hi</p>", decodePart(t, html))

	att, err := mr.NextPart()
	require.NoError(t, err)
	require.Equal(t, filepath.Base(path), att.FileName())
	require.True(t, strings.HasPrefix(att.Header.Get("Content-Type"), "text/plain"))
	require.Equal(t, "quarterly numbers\n", decodePart(t, att))

	_, err = mr.NextPart()
	require.ErrorIs(t, err, io.EOF)
}

func decodePart(t *testing.T, p *multipart.Part) string {
	t.Helper()
	b, err := io.ReadAll(p)
	require.NoError(t, err)
	out, err := base64.StdEncoding.DecodeString(strings.NewReplacer("\r", "", "\n", "").Replace(string(b)))
	require.NoError(t, err)
	return string(out)
}
