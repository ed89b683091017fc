package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"doc-review-be/pkg/vectorstore"

	"github.com/go-pdf/fpdf"
	"gopkg.in/gomail.v2"
)

const (
	RevisedTextFile   = "revised_document.txt"
	RevisedPDFFile    = "revised_document.pdf"
	InvestorEmailFile = "investor_email.eml"
)

var unsafeDirChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

// Writer renders cleanup artifacts under baseDir/<sessionId>/
type Writer struct {
	baseDir string
}

func NewWriter(baseDir string) *Writer {
	return &Writer{baseDir: baseDir}
}

// SessionDir returns the artifact directory for a session. Unsafe characters
// in the id are replaced; a rewritten id gets a hash suffix so distinct ids
// never share a directory.
func (w *Writer) SessionDir(sessionId string) string {
	name := unsafeDirChars.ReplaceAllString(sessionId, "_")
	if name == "" || name == "." || name == ".." {
		name = "_"
	}
	if name != sessionId {
		key := vectorstore.DeriveKey("artifact_dir", sessionId)
		name = fmt.Sprintf("%s-%016x", name, uint64(key))
	}
	return filepath.Join(w.baseDir, name)
}

func (w *Writer) prepare(sessionId, name string) (string, error) {
	dir := w.SessionDir(sessionId)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact dir: %w", err)
	}
	return filepath.Join(dir, name), nil
}

func (w *Writer) WriteText(sessionId, name, content string) (string, error) {
	path, err := w.prepare(sessionId, name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// WritePDF lays the text out on Letter pages, one MultiCell per paragraph.
func (w *Writer) WritePDF(sessionId, name, title, content string) (string, error) {
	path, err := w.prepare(sessionId, name)
	if err != nil {
		return "", err
	}

	pdf := fpdf.New("P", "mm", "Letter", "")
	pdf.SetTitle(title, true)
	pdf.SetMargins(14, 18, 14)
	pdf.SetAutoPageBreak(true, 18)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if title != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.MultiCell(0, 7, tr(title), "", "L", false)
		pdf.Ln(3)
	}

	pdf.SetFont("Helvetica", "", 10)
	for _, paragraph := range strings.Split(content, "\n") {
		if strings.TrimSpace(paragraph) == "" {
			pdf.Ln(5)
			continue
		}
		pdf.MultiCell(0, 5, tr(paragraph), "", "L", false)
		pdf.Ln(1)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// WriteEmail stores the message in RFC 5322 form so it can be opened by a
// mail client or delivered later.
func (w *Writer) WriteEmail(sessionId, name string, m *gomail.Message) (string, error) {
	path, err := w.prepare(sessionId, name)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer f.Close()

	if _, err := m.WriteTo(f); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

// Exists reports whether an artifact file is present on disk
func Exists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
