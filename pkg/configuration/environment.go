package configuration

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/go-faster/errors"
	"github.com/go-playground/validator/v10"
	"github.com/iota-uz/utils/fs"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/attainment-reports/pkg/logging"
)

// EnvPrefix is prepended to every variable name.
const EnvPrefix = "ATTAINMENT_"

var ErrInvalidConfiguration = errors.New("invalid configuration")

// LoadEnv loads the env files that exist in the working directory. When none
// does, the files next to the enclosing go.mod are tried instead.
func LoadEnv(envFiles []string) (int, error) {
	existing := existingFiles(envFiles, "")
	if len(existing) == 0 {
		if root, ok := moduleRoot(); ok {
			existing = existingFiles(envFiles, root)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func existingFiles(files []string, dir string) []string {
	out := make([]string, 0, len(files))
	for _, file := range files {
		path := file
		if dir != "" {
			path = filepath.Join(dir, file)
		}
		if fs.FileExists(path) {
			out = append(out, path)
		}
	}
	return out
}

func moduleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fs.FileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type MailOptions struct {
	Root         string `env:"MAIL_ROOT"`
	Folder       string `env:"MAIL_FOLDER" envDefault:"Manager Report" validate:"required"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587" validate:"min=1,max=65535"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	From         string `env:"SMTP_FROM" validate:"omitempty,email"`
	MaxAttempts  int    `env:"SMTP_MAX_ATTEMPTS" envDefault:"3" validate:"min=1,max=10"`
}

type StorageOptions struct {
	Bucket  string `env:"S3_BUCKET"`
	Region  string `env:"S3_REGION"`
	Profile string `env:"S3_PROFILE"`
	Prefix  string `env:"S3_PREFIX" envDefault:"reports"`
}

type Configuration struct {
	Mail    MailOptions
	Storage StorageOptions

	// FiscalYear is detected from the source table when empty.
	FiscalYear      string `env:"FISCAL_YEAR"`
	OutputDir       string `env:"OUTPUT_DIR" envDefault:"reports" validate:"required"`
	SourceSheet     string `env:"SOURCE_SHEET" envDefault:"in" validate:"required"`
	RosterSheet     string `env:"ROSTER_SHEET" envDefault:"Sheet1" validate:"required"`
	RosterHeaderRow int    `env:"ROSTER_HEADER_ROW" envDefault:"4" validate:"min=1"`
	PrefixSuffix    string `env:"REPORT_PREFIX_SUFFIX" envDefault:"Attainment" validate:"required,excludesall=/\\"`
	MatchMode       string `env:"MATCH_MODE" envDefault:"label" validate:"oneof=label id"`
	LayoutFile      string `env:"LAYOUT_FILE"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info" validate:"oneof=silent error warn info debug"`
	LogPath         string `env:"LOG_PATH"`
	LedgerPath      string `env:"LEDGER_PATH" envDefault:"reports/ledger.db"`
	MetricsFile     string `env:"METRICS_FILE"`

	logCloser io.Closer
	logger    *logrus.Logger
}

// Load reads the env files and the process environment.
func Load(envFiles ...string) (*Configuration, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env", ".env.local"}
	}
	if _, err := LoadEnv(envFiles); err != nil {
		return nil, errors.Wrap(err, "load env files")
	}
	c := &Configuration{}
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, errors.Wrap(ErrInvalidConfiguration, err.Error())
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Configuration) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(ErrInvalidConfiguration, err.Error())
	}
	return nil
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger lazily builds the process logger: console only, or a rotating
// file mirrored to the console when LogPath is set.
func (c *Configuration) Logger() *logrus.Logger {
	if c.logger != nil {
		return c.logger
	}
	if c.LogPath == "" {
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
		return c.logger
	}
	logger, closer, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		log.Printf("Failed to open log file %s, logging to console: %v", c.LogPath, err)
		c.logger = logging.ConsoleLogger(c.LogrusLogLevel())
		return c.logger
	}
	c.logCloser = closer
	c.logger = logger
	return c.logger
}

// MailAvailable reports whether a mail root is configured.
func (c *Configuration) MailAvailable() bool {
	return c.Mail.Root != ""
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logCloser != nil {
		if err := c.logCloser.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
