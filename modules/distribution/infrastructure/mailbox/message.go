// Package mailbox keeps drafts as .eml files on disk and sends them over SMTP.
package mailbox

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/jacksonlee411/attainment-reports/modules/distribution/services"
)

const lineLength = 76

// buildMessage renders d as multipart/mixed: an HTML part followed by the
// attachment, if any, base64 encoded with its sniffed content type.
func buildMessage(from string, d services.Draft, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := []struct{ key, value string }{
		{"From", from},
		{"To", d.To},
		{"Subject", mime.QEncoding.Encode("utf-8", d.Subject)},
		{"Date", now.Format(time.RFC1123Z)},
		{"Message-ID", "<" + uuid.NewString() + "@attainment-reports>"},
		{"MIME-Version", "1.0"},
		{"Content-Type", `multipart/mixed; boundary="` + mw.Boundary() + `"`},
	}
	for _, h := range header {
		buf.WriteString(h.key + ": " + h.value + "\r\n")
	}
	buf.WriteString("\r\n")

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"text/html; charset=utf-8"},
		"Content-Transfer-Encoding": {"base64"},
	})
	if err != nil {
		return nil, errors.Wrap(err, "html part")
	}
	if err := writeBase64(part, []byte(d.HTMLBody)); err != nil {
		return nil, err
	}

	if d.Attachment != "" {
		data, err := os.ReadFile(d.Attachment)
		if err != nil {
			return nil, errors.Wrapf(err, "read attachment %s", d.Attachment)
		}
		name := filepath.Base(d.Attachment)
		part, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {mimetype.Detect(data).String()},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": name})},
		})
		if err != nil {
			return nil, errors.Wrap(err, "attachment part")
		}
		if err := writeBase64(part, data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, errors.Wrap(err, "close message")
	}
	return buf.Bytes(), nil
}

func writeBase64(w io.Writer, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 0 {
		n := lineLength
		if len(enc) < n {
			n = len(enc)
		}
		if _, err := w.Write([]byte(enc[:n] + "\r\n")); err != nil {
			return errors.Wrap(err, "write part")
		}
		enc = enc[n:]
	}
	return nil
}
