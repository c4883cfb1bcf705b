package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Parse decodes a catalog document from yaml bytes. Unknown fields are
// rejected so typos in catalog files surface at load time rather than as
// silently missing rules.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(strings.NewReader(string(data)))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return &doc, nil
}

// LoadFile reads a catalog snapshot from a single yaml file or from a
// directory of yaml files. Directory loads merge the per-file documents and
// version the snapshot with a checksum over the merged content.
func LoadFile(path string) (*Catalog, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("catalog path: %w", err)
	}

	var files []string
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, fmt.Errorf("reading catalog dir: %w", err)
		}
		for _, e := range entries {
			ext := filepath.Ext(e.Name())
			if e.IsDir() || (ext != ".yaml" && ext != ".yml") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
		sort.Strings(files)
		if len(files) == 0 {
			return nil, fmt.Errorf("catalog dir %s: no yaml files", path)
		}
	} else {
		files = []string{path}
	}

	merged := &Document{}
	sum := sha256.New()
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		merged.Lenders = append(merged.Lenders, doc.Lenders...)
		merged.Programs = append(merged.Programs, doc.Programs...)
		merged.Coverage = append(merged.Coverage, doc.Coverage...)
		merged.HouseRules = append(merged.HouseRules, doc.HouseRules...)
		merged.ScoringModels = append(merged.ScoringModels, doc.ScoringModels...)
		merged.Patterns = append(merged.Patterns, doc.Patterns...)
		sum.Write(data)
	}

	version := "sha256:" + hex.EncodeToString(sum.Sum(nil))[:12]
	return New(merged, version)
}
