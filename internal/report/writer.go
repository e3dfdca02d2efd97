package report

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Bahjat/structured-web-auditor/internal/model"
)

// Report formats.
const (
	FormatText = "text"
	FormatYAML = "yaml"
)

var errUnknownFormat = errors.New("report: unknown format")

// Writer stores page and site reports under one output directory:
//
//	<dir>/pages/<slug>.txt|yaml
//	<dir>/pages/raw_schema/<slug>.json
//	<dir>/sites/<domain>.txt|yaml
type Writer struct {
	dir    string
	format string
}

// NewWriter returns a Writer for dir. An empty format selects text.
func NewWriter(dir, format string) (*Writer, error) {
	switch format {
	case "":
		format = FormatText
	case FormatText, FormatYAML:
	default:
		return nil, fmt.Errorf("%w: %q", errUnknownFormat, format)
	}
	return &Writer{dir: dir, format: format}, nil
}

// Slug names the files of one page: the host with dots replaced by
// underscores, a dash, then the path with slashes replaced by dashes, or
// "home" for the root.
func Slug(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "invalid-url"
	}
	path := strings.ReplaceAll(strings.Trim(u.Path, "/"), "/", "-")
	if path == "" {
		path = "home"
	}
	return strings.ReplaceAll(u.Host, ".", "_") + "-" + path
}

// WritePage writes the page report and its raw JSON-LD file and returns the
// report path.
func (w *Writer) WritePage(r *model.PageAuditResult, score int) (string, error) {
	slug := Slug(r.URL)

	var buf bytes.Buffer
	if w.format == FormatYAML {
		if err := encodeYAML(&buf, model.PageReport{Result: r, Score: score}); err != nil {
			return "", err
		}
	} else if err := RenderPage(&buf, r, score); err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, "pages", slug+w.ext())
	if err := writeFile(path, buf.Bytes()); err != nil {
		return "", err
	}

	raw, err := RawJSONLD(details(r).JSONLD)
	if err != nil {
		return "", err
	}
	if err := writeFile(filepath.Join(w.dir, "pages", "raw_schema", slug+".json"), raw); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSite writes the combined site report and returns its path.
func (w *Writer) WriteSite(rep *model.SiteReport) (string, error) {
	var buf bytes.Buffer
	if w.format == FormatYAML {
		if err := encodeYAML(&buf, rep); err != nil {
			return "", err
		}
	} else if err := RenderSite(&buf, rep); err != nil {
		return "", err
	}

	path := filepath.Join(w.dir, "sites", rep.Site.Domain+w.ext())
	if err := writeFile(path, buf.Bytes()); err != nil {
		return "", err
	}
	return path, nil
}

func (w *Writer) ext() string {
	if w.format == FormatYAML {
		return ".yaml"
	}
	return ".txt"
}

func encodeYAML(buf *bytes.Buffer, v any) error {
	enc := yaml.NewEncoder(buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("report: encode yaml: %w", err)
	}
	return enc.Close()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
