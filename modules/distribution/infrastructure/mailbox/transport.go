package mailbox

import (
	"context"
	"math"
	"math/rand"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/attainment-reports/modules/distribution/services"
)

// Transport delivers a rendered message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	MaxAttempts int
	MaxBackoff  time.Duration
	MaxJitter   time.Duration
}

// SMTPTransport sends through net/smtp and retries failed attempts with
// exponential backoff plus jitter.
type SMTPTransport struct {
	cfg  SMTPConfig
	auth smtp.Auth
	send sendFunc
	rand *rand.Rand
	log  *logrus.Entry
}

func NewSMTPTransport(cfg SMTPConfig, log *logrus.Entry) (*SMTPTransport, error) {
	if cfg.Host == "" {
		return nil, errors.Wrap(services.ErrUnavailable, "smtp host is not configured")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.MaxJitter < 0 {
		cfg.MaxJitter = 0
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	return &SMTPTransport{
		cfg:  cfg,
		auth: auth,
		send: smtp.SendMail,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec
		log:  log,
	}, nil
}

func (t *SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := net.JoinHostPort(t.cfg.Host, strconv.Itoa(t.cfg.Port))
	attempts := max(t.cfg.MaxAttempts, 1)
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = t.send(addr, t.auth, from, to, msg); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		wait := backoff(attempt, t.cfg.MaxBackoff) + jitter(t.rand, t.cfg.MaxJitter)
		t.log.WithError(err).WithFields(logrus.Fields{"attempt": attempt, "retry_in": wait.String()}).Warn("smtp send failed, retrying")
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "smtp send interrupted")
		case <-time.After(wait):
		}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return errors.Wrapf(services.ErrUnavailable, "smtp %s: %v", addr, err)
	}
	return errors.Wrapf(err, "smtp send after %d attempts", attempts)
}

func backoff(attempts int, maxBackoff time.Duration) time.Duration {
	if attempts <= 0 {
		return 0
	}
	// 1s * 2^(attempts-1)
	seconds := math.Pow(2, float64(attempts-1))
	d := time.Duration(seconds * float64(time.Second))
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

func jitter(r *rand.Rand, maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 || r == nil {
		return 0
	}
	// [0, maxJitter]
	return time.Duration(r.Int63n(int64(maxJitter) + 1)) //nolint:gosec
}
