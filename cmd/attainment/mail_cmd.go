package main

import (
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jacksonlee411/attainment-reports/modules/distribution/infrastructure/mailbox"
	"github.com/jacksonlee411/attainment-reports/modules/distribution/infrastructure/objectstore"
	distribution "github.com/jacksonlee411/attainment-reports/modules/distribution/services"
)

func newPublishCmd(g *globalOptions) *cobra.Command {
	var archive string
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upload a report package to the configured S3 bucket",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFile("archive", archive); err != nil {
				return err
			}
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()

			up, err := objectstore.NewUploader(cmd.Context(), objectstore.Options{
				Bucket:  a.cfg.Storage.Bucket,
				Region:  a.cfg.Storage.Region,
				Profile: a.cfg.Storage.Profile,
				Prefix:  a.cfg.Storage.Prefix,
			})
			if err != nil {
				return classify(err)
			}
			key, err := up.Upload(cmd.Context(), archive)
			if err != nil {
				return withCode(exitUnavailable, err)
			}
			a.entry("publish").WithField("key", key).Info("package uploaded")
			return writeJSON(cmd.OutOrStdout(), map[string]string{
				"bucket": a.cfg.Storage.Bucket,
				"key":    key,
			})
		},
	}
	cmd.Flags().StringVar(&archive, "archive", "", "Package archive to upload")
	return cmd
}

func newDraftsCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drafts",
		Short: "Create and send the report mails of a package",
	}
	cmd.AddCommand(newDraftsCreateCmd(g))
	cmd.AddCommand(newDraftsSendCmd(g))
	return cmd
}

// openMailbox opens the configured mail root. Sending needs an SMTP host,
// creating drafts does not.
func (a *app) openMailbox(send bool) (*mailbox.Store, error) {
	if !a.cfg.MailAvailable() {
		return nil, withCode(exitUnavailable, errors.Wrap(distribution.ErrUnavailable, "ATTAINMENT_MAIL_ROOT is not set"))
	}
	var transport mailbox.Transport
	if send {
		t, err := mailbox.NewSMTPTransport(mailbox.SMTPConfig{
			Host:        a.cfg.Mail.SMTPHost,
			Port:        a.cfg.Mail.SMTPPort,
			User:        a.cfg.Mail.SMTPUser,
			Password:    a.cfg.Mail.SMTPPassword,
			MaxAttempts: a.cfg.Mail.MaxAttempts,
		}, a.entry("smtp"))
		if err != nil {
			return nil, classify(err)
		}
		transport = t
	}
	box, err := mailbox.NewStore(a.cfg.Mail.Root, a.cfg.Mail.From, transport)
	if err != nil {
		return nil, classify(err)
	}
	return box, nil
}

type draftsSummary struct {
	*distribution.DraftResult
	Folder    string                      `json:"folder"`
	Unmatched []distribution.ManagerEntry `json:"unmatched"`
}

func newDraftsCreateCmd(g *globalOptions) *cobra.Command {
	var (
		archive    string
		folder     string
		subject    string
		bodyFile   string
		extractDir string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create one draft per manager with an email address",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireFile("archive", archive); err != nil {
				return err
			}
			var body string
			if bodyFile != "" {
				b, err := os.ReadFile(bodyFile)
				if err != nil {
					return withCode(exitIO, errors.Wrap(err, "--body-file"))
				}
				body = string(b)
			}
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()
			if folder == "" {
				folder = a.cfg.Mail.Folder
			}

			dir := extractDir
			if dir == "" {
				if dir, err = os.MkdirTemp("", "attainment-package-*"); err != nil {
					return withCode(exitIO, errors.Wrap(err, "extract folder"))
				}
				defer os.RemoveAll(dir)
			}
			pkg, err := distribution.OpenPackage(archive, dir)
			if err != nil {
				return classify(err)
			}
			log := a.entry("drafts.create")
			for _, m := range pkg.Unmatched {
				log.WithField("manager.name", m.Name).Warn("no email address, draft skipped")
			}

			box, err := a.openMailbox(false)
			if err != nil {
				return err
			}
			tmpl := distribution.Templates{FiscalYear: pkg.Metadata.FiscalYear, Subject: subject, Body: body}
			res, err := distribution.NewDispatcher(log, a.mail).
				CreateDrafts(cmd.Context(), box, folder, pkg.Targets, tmpl, progressPrinter(cmd.ErrOrStderr(), 1))
			if res != nil {
				unmatched := pkg.Unmatched
				if unmatched == nil {
					unmatched = []distribution.ManagerEntry{}
				}
				if werr := writeJSON(cmd.OutOrStdout(), draftsSummary{DraftResult: res, Folder: folder, Unmatched: unmatched}); werr != nil {
					return werr
				}
			}
			if err != nil {
				return classify(err)
			}
			if res.Failed > 0 {
				return withCode(exitPartial, errors.Errorf("%d drafts failed", res.Failed))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&archive, "archive", "", "Package archive produced by the package command")
	cmd.Flags().StringVar(&folder, "folder", "", "Draft folder (default ATTAINMENT_MAIL_FOLDER)")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject template with {manager_name} and {fiscal_year}")
	cmd.Flags().StringVar(&bodyFile, "body-file", "", "Plain text body template")
	cmd.Flags().StringVar(&extractDir, "extract-dir", "", "Keep the extracted reports in this folder")
	return cmd
}

func newDraftsSendCmd(g *globalOptions) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send every draft of a folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(g)
			if err != nil {
				return err
			}
			defer a.close()
			if folder == "" {
				folder = a.cfg.Mail.Folder
			}

			box, err := a.openMailbox(true)
			if err != nil {
				return err
			}
			drafts, err := box.ListDrafts(cmd.Context(), folder)
			if err != nil {
				return classify(err)
			}
			res, err := distribution.NewDispatcher(a.entry("drafts.send"), a.mail).
				SendDrafts(cmd.Context(), box, drafts, progressPrinter(cmd.ErrOrStderr(), 1))
			if res != nil {
				if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil {
					return werr
				}
			}
			if err != nil {
				return classify(err)
			}
			if res.Failed > 0 {
				return withCode(exitPartial, errors.Errorf("%d of %d emails failed", res.Failed, len(drafts)))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "Draft folder (default ATTAINMENT_MAIL_FOLDER)")
	return cmd
}
