package site

import (
	"errors"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jonathan/permitindex/internal/logging"
	"github.com/jonathan/permitindex/internal/types"
)

// Fixed file names at the root of the output tree.
const (
	SitemapFile = "sitemap.xml"
	RobotsFile  = "robots.txt"
	ExportFile  = "permits.json"
)

// Assembler collects every output file in memory. Nothing touches the output
// directory until Commit, and Commit swaps the whole tree in one rename.
type Assembler struct {
	outDir    string
	baseURL   string
	files     map[string][]byte
	pages     map[string]bool
	finalized bool
	log       *logging.Logger
}

// NewAssembler returns an Assembler publishing to outDir for a site served at baseURL.
func NewAssembler(outDir, baseURL string, log *logging.Logger) *Assembler {
	if log == nil {
		log = logging.Nop()
	}
	return &Assembler{
		outDir:  outDir,
		baseURL: strings.TrimRight(baseURL, "/"),
		files:   make(map[string][]byte),
		pages:   make(map[string]bool),
		log:     log,
	}
}

// PageFile maps a site path to its file in the output tree: "/" is
// index.html and "/x/" is x/index.html.
func PageFile(sitePath string) (string, error) {
	if !strings.HasPrefix(sitePath, "/") || !strings.HasSuffix(sitePath, "/") {
		return "", &AssembleError{Path: sitePath, Message: "page paths must start and end with /"}
	}
	rel := strings.Trim(sitePath, "/")
	if rel == "" {
		return "index.html", nil
	}
	if err := checkRelative(rel); err != nil {
		return "", &AssembleError{Path: sitePath, Message: err.Error()}
	}
	return rel + "/index.html", nil
}

func checkRelative(rel string) error {
	if path.Clean(rel) != rel || strings.HasPrefix(rel, "../") || rel == ".." || path.IsAbs(rel) {
		return errors.New("path escapes the output tree")
	}
	return nil
}

// Write stages a rendered page at its site path.
func (a *Assembler) Write(sitePath, content string) error {
	file, err := PageFile(sitePath)
	if err != nil {
		return err
	}
	if err := a.stage(file, []byte(content)); err != nil {
		return err
	}
	a.pages[sitePath] = true
	return nil
}

// WriteFile stages a non-page file, e.g. permits.json or a favicon.
func (a *Assembler) WriteFile(name string, data []byte) error {
	if err := checkRelative(name); err != nil {
		return &AssembleError{Path: name, Message: err.Error()}
	}
	return a.stage(name, data)
}

func (a *Assembler) stage(file string, data []byte) error {
	if a.finalized {
		return &AssembleError{Path: file, Message: "assembler already finalized"}
	}
	if _, dup := a.files[file]; dup {
		return &AssembleError{Path: file, Message: "written twice"}
	}
	a.files[file] = data
	return nil
}

// Finalize checks that the staged pages are exactly the manifest, then
// stages sitemap.xml and robots.txt. It returns the sitemap text.
func (a *Assembler) Finalize(manifest *types.SiteManifest) (string, error) {
	if a.finalized {
		return "", &AssembleError{Message: "assembler already finalized"}
	}

	var missing []string
	expected := make(map[string]bool, len(manifest.Entries))
	for _, e := range manifest.Entries {
		expected[e.Path] = true
		if !a.pages[e.Path] {
			missing = append(missing, e.Path)
		}
	}
	if len(missing) > 0 {
		return "", &AssembleError{Message: "manifest pages not written: " + strings.Join(missing, ", ")}
	}
	var extra []string
	for p := range a.pages {
		if !expected[p] {
			extra = append(extra, p)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return "", &AssembleError{Message: "pages written outside the manifest: " + strings.Join(extra, ", ")}
	}

	sitemap, err := BuildSitemap(manifest, a.baseURL)
	if err != nil {
		return "", err
	}
	if err := a.WriteFile(SitemapFile, sitemap); err != nil {
		return "", err
	}
	if err := a.WriteFile(RobotsFile, BuildRobots(a.baseURL)); err != nil {
		return "", err
	}

	a.finalized = true
	return string(sitemap), nil
}

// Files returns the staged file names in sorted order.
func (a *Assembler) Files() []string {
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Content returns a staged file.
func (a *Assembler) Content(name string) ([]byte, bool) {
	data, ok := a.files[name]
	return data, ok
}

// Pages returns the number of staged HTML pages.
func (a *Assembler) Pages() int {
	return len(a.pages)
}

// Commit writes the staged tree to a sibling directory and renames it over
// the output directory. On failure the previous output is left in place.
func (a *Assembler) Commit() error {
	if !a.finalized {
		return &AssembleError{Message: "commit before finalize"}
	}

	outDir := filepath.Clean(a.outDir)
	parent := filepath.Dir(outDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return &AssembleError{Path: parent, Message: "failed to create parent directory", Cause: err}
	}

	id := uuid.NewString()
	staging := outDir + ".tmp-" + id
	if err := a.writeTree(staging); err != nil {
		_ = os.RemoveAll(staging)
		return err
	}

	backup := ""
	if _, err := os.Stat(outDir); err == nil {
		backup = outDir + ".old-" + id
		if err := os.Rename(outDir, backup); err != nil {
			_ = os.RemoveAll(staging)
			return &AssembleError{Path: outDir, Message: "failed to move previous output aside", Cause: err}
		}
	}

	if err := os.Rename(staging, outDir); err != nil {
		if backup != "" {
			_ = os.Rename(backup, outDir)
		}
		_ = os.RemoveAll(staging)
		return &AssembleError{Path: outDir, Message: "failed to publish output", Cause: err}
	}

	if backup != "" {
		if err := os.RemoveAll(backup); err != nil {
			a.log.Warn("failed to remove previous output", "path", backup, "error", err)
		}
	}

	a.log.Info("published site", "dir", outDir, "files", len(a.files))
	return nil
}

func (a *Assembler) writeTree(root string) error {
	for _, name := range a.Files() {
		dest := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return &AssembleError{Path: name, Message: "failed to create directory", Cause: err}
		}
		if err := os.WriteFile(dest, a.files[name], 0644); err != nil {
			return &AssembleError{Path: name, Message: "failed to write file", Cause: err}
		}
	}
	return nil
}
