package services

import (
	"archive/zip"
	"encoding/json"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/jacksonlee411/attainment-reports/modules/attainment/domain/identity"
	attainment "github.com/jacksonlee411/attainment-reports/modules/attainment/services"
)

// MetadataFile is the sidecar stored at the archive root.
const MetadataFile = "manager_metadata.json"

var (
	ErrNoMetadata    = errors.New("archive has no " + MetadataFile)
	ErrUnsafeArchive = errors.New("archive entry escapes the extraction folder")
)

type ManagerEntry struct {
	Name     string  `json:"name"`
	SafeName string  `json:"safe_name"`
	Region   string  `json:"region"`
	Email    *string `json:"email"`
	FilePath string  `json:"filepath"`
}

type Metadata struct {
	FiscalYear    string         `json:"fiscal_year"`
	GeneratedDate string         `json:"generated_date"`
	TotalReports  int            `json:"total_reports"`
	Managers      []ManagerEntry `json:"managers"`
}

// ArchiveName is the file name of a package built at now.
func ArchiveName(fiscalYear string, now time.Time) string {
	return "Manager_Reports_" + fiscalYear + "_" + now.Format("20060102_150405") + ".zip"
}

// BuildPackage writes every report of result into a zip archive on w as
// <region folder>/<file>, followed by the metadata sidecar.
func BuildPackage(result *attainment.Result, roster *Roster, now time.Time, w io.Writer) (*Metadata, error) {
	meta := &Metadata{
		FiscalYear:    result.FiscalYear,
		GeneratedDate: now.Format("2006-01-02"),
		TotalReports:  result.Total,
		Managers:      make([]ManagerEntry, 0, len(result.Managers)),
	}

	zw := zip.NewWriter(w)
	for _, a := range result.Managers {
		name := path.Join(filepath.Base(filepath.Dir(a.Path)), filepath.Base(a.Path))
		if err := addFile(zw, name, a.Path); err != nil {
			_ = zw.Close()
			return nil, err
		}
		entry := ManagerEntry{
			Name:     identity.DisplayName(a.Label),
			SafeName: a.SafeName,
			Region:   a.Region,
			FilePath: name,
		}
		if email, ok := roster.Email(a.Label); ok {
			entry.Email = &email
		}
		meta.Managers = append(meta.Managers, entry)
	}

	mw, err := zw.Create(MetadataFile)
	if err != nil {
		_ = zw.Close()
		return nil, errors.Wrap(err, "add metadata")
	}
	enc := json.NewEncoder(mw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		_ = zw.Close()
		return nil, errors.Wrap(err, "encode metadata")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "finish archive")
	}
	return meta, nil
}

// WritePackage builds the archive under dir and returns its path.
func WritePackage(result *attainment.Result, roster *Roster, dir string, now time.Time) (string, *Metadata, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", nil, errors.Wrapf(err, "create archive folder %s", dir)
	}
	p := filepath.Join(dir, ArchiveName(result.FiscalYear, now))
	f, err := os.Create(p)
	if err != nil {
		return "", nil, errors.Wrapf(err, "create %s", p)
	}
	meta, err := BuildPackage(result, roster, now, f)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = errors.Wrapf(cerr, "close %s", p)
	}
	if err != nil {
		_ = os.Remove(p)
		return "", nil, err
	}
	return p, meta, nil
}

func addFile(zw *zip.Writer, name, src string) error {
	f, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "open report %s", src)
	}
	defer f.Close()
	w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: time.Now()})
	if err != nil {
		return errors.Wrapf(err, "add %s", name)
	}
	if _, err := io.Copy(w, f); err != nil {
		return errors.Wrapf(err, "copy %s", name)
	}
	return nil
}

// Target is one manager a draft is addressed to.
type Target struct {
	Name       string
	Email      string
	Region     string
	Attachment string
}

// Package is an extracted archive.
type Package struct {
	Dir       string
	Metadata  Metadata
	Targets   []Target
	Unmatched []ManagerEntry
}

// OpenPackage extracts archivePath into dir and reads its sidecar. Managers
// without an email address end up in Unmatched.
func OpenPackage(archivePath, dir string) (*Package, error) {
	zr, err := zip.OpenReader(archivePath)
	if errors.Is(err, zip.ErrInsecurePath) {
		_ = zr.Close()
		return nil, errors.Wrap(ErrUnsafeArchive, archivePath)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "open archive %s", archivePath)
	}
	defer zr.Close()

	found := false
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		if f.Name == MetadataFile {
			found = true
		}
		if err := extract(f, dir); err != nil {
			return nil, err
		}
	}
	if !found {
		return nil, ErrNoMetadata
	}

	b, err := os.ReadFile(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	pkg := &Package{Dir: dir}
	if err := json.Unmarshal(b, &pkg.Metadata); err != nil {
		return nil, errors.Wrap(err, "decode metadata")
	}
	for _, m := range pkg.Metadata.Managers {
		if m.Email == nil || strings.TrimSpace(*m.Email) == "" {
			pkg.Unmatched = append(pkg.Unmatched, m)
			continue
		}
		pkg.Targets = append(pkg.Targets, Target{
			Name:       m.Name,
			Email:      strings.TrimSpace(*m.Email),
			Region:     m.Region,
			Attachment: filepath.Join(dir, filepath.FromSlash(m.FilePath)),
		})
	}
	return pkg, nil
}

func extract(f *zip.File, dir string) error {
	dst := filepath.Join(dir, filepath.FromSlash(f.Name))
	rel, err := filepath.Rel(dir, dst)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return errors.Wrap(ErrUnsafeArchive, f.Name)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "create folder for %s", f.Name)
	}
	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "open entry %s", f.Name)
	}
	defer rc.Close()
	out, err := os.Create(dst)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return errors.Wrapf(err, "extract %s", f.Name)
	}
	if err := out.Close(); err != nil {
		return errors.Wrapf(err, "close %s", dst)
	}
	return nil
}
