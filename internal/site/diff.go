package site

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ChangeKind classifies one file in a DiffReport.
type ChangeKind string

// Change kinds.
const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// FileChange is one differing file. Patch is set for changed text files.
type FileChange struct {
	Path  string
	Kind  ChangeKind
	Patch string
}

// DiffReport lists how the staged tree differs from what is on disk.
type DiffReport struct {
	Changes []FileChange
}

// Clean reports whether the published tree already matches the staged one.
func (r *DiffReport) Clean() bool {
	return len(r.Changes) == 0
}

// Count returns the number of changes of kind k.
func (r *DiffReport) Count(k ChangeKind) int {
	n := 0
	for _, c := range r.Changes {
		if c.Kind == k {
			n++
		}
	}
	return n
}

var textExt = map[string]bool{".html": true, ".xml": true, ".txt": true, ".json": true}

// Diff compares the staged files against the current output directory without
// writing anything. A missing output directory counts every file as added.
func (a *Assembler) Diff() (*DiffReport, error) {
	onDisk := make(map[string]bool)
	root := filepath.Clean(a.outDir)
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == root {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		onDisk[filepath.ToSlash(rel)] = true
		return nil
	})
	if err != nil {
		return nil, &AssembleError{Path: root, Message: "failed to read current output", Cause: err}
	}

	dmp := diffmatchpatch.New()
	report := &DiffReport{}
	for _, name := range a.Files() {
		staged := a.files[name]
		if !onDisk[name] {
			report.Changes = append(report.Changes, FileChange{Path: name, Kind: Added})
			continue
		}
		current, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(name)))
		if err != nil {
			return nil, &AssembleError{Path: name, Message: "failed to read current file", Cause: err}
		}
		if bytes.Equal(current, staged) {
			continue
		}
		change := FileChange{Path: name, Kind: Changed}
		if textExt[strings.ToLower(filepath.Ext(name))] {
			diffs := dmp.DiffMain(string(current), string(staged), false)
			change.Patch = dmp.PatchToText(dmp.PatchMake(string(current), diffs))
		}
		report.Changes = append(report.Changes, change)
	}

	var removed []string
	for name := range onDisk {
		if _, ok := a.files[name]; !ok {
			removed = append(removed, name)
		}
	}
	sort.Strings(removed)
	for _, name := range removed {
		report.Changes = append(report.Changes, FileChange{Path: name, Kind: Removed})
	}
	return report, nil
}
