// Package store persists extraction policies, one JSON document per
// domain. The on-disk layout is part of the public contract: users edit
// these files by hand.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/use-agent/qrawl/domain"
	"github.com/use-agent/qrawl/models"
	"github.com/use-agent/qrawl/policy"
)

// PolicyStore is the persistence boundary for policies.
// Get returns (nil, nil) when no policy exists for the domain.
type PolicyStore interface {
	Get(d domain.Domain) (*policy.Policy, error)
	Set(p *policy.Policy) error
	List() ([]*policy.Policy, error)
	Delete(d domain.Domain) error
	DeleteAll() error
}

// document is the on-disk shape: exactly one top-level key, the
// canonical domain, mapping to its config and performance profile.
type document map[string]docEntry

type docEntry struct {
	Config      docConfig                  `json:"config"`
	Performance *policy.PerformanceProfile `json:"performance_profile,omitempty"`
}

type docConfig struct {
	Fetch  policy.FetchConfig  `json:"fetch"`
	Scrape policy.ScrapeConfig `json:"scrape"`
}

// LocalFSStore keeps one <domain>.json file per policy under a single
// directory. Reads always hit the disk; nothing is cached, so external
// edits are picked up immediately.
type LocalFSStore struct {
	dir string
}

// NewLocalFS resolves the policy directory: $QRAWL_HOME/policies when
// QRAWL_HOME is set, else <user config dir>/qrawl/policies.
func NewLocalFS() (*LocalFSStore, error) {
	if home := os.Getenv("QRAWL_HOME"); home != "" {
		return &LocalFSStore{dir: filepath.Join(home, "policies")}, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return nil, models.ErrOther("resolve user config dir", err)
	}
	return &LocalFSStore{dir: filepath.Join(base, "qrawl", "policies")}, nil
}

// NewLocalFSAt uses dir directly as the policy directory.
func NewLocalFSAt(dir string) *LocalFSStore {
	return &LocalFSStore{dir: dir}
}

// Dir returns the directory policies are stored in.
func (s *LocalFSStore) Dir() string { return s.dir }

// fileNameFor rejects domains that cannot be used as a file stem.
func fileNameFor(d domain.Domain) (string, bool) {
	name := string(d)
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, `/\`) {
		return "", false
	}
	return name + ".json", true
}

// Get loads the policy for d. The document must carry d as its exact
// top-level key; a mismatched key or corrupt file is treated as absent
// rather than guessed from the filename.
func (s *LocalFSStore) Get(d domain.Domain) (*policy.Policy, error) {
	name, ok := fileNameFor(d)
	if !ok {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, models.ErrOther(fmt.Sprintf("read policy for %s", d), err)
	}
	return decode(data, d), nil
}

// decode parses a policy document and enforces the exact-key invariant.
// Returns nil for corrupt or mismatched documents.
func decode(data []byte, d domain.Domain) *policy.Policy {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	ent, ok := doc[string(d)]
	if !ok {
		return nil
	}
	return &policy.Policy{
		Domain:      d,
		Fetch:       ent.Config.Fetch,
		Scrape:      ent.Config.Scrape,
		Performance: ent.Performance,
	}
}

// Set writes the policy document atomically (temp file + rename) so a
// concurrent reader never sees a partial file.
func (s *LocalFSStore) Set(p *policy.Policy) error {
	name, ok := fileNameFor(p.Domain)
	if !ok {
		return models.ErrValidation("domain", fmt.Sprintf("unusable as a policy file name: %q", p.Domain))
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return models.ErrOther("create policy dir", err)
	}

	doc := document{string(p.Domain): docEntry{
		Config:      docConfig{Fetch: p.Fetch, Scrape: p.Scrape},
		Performance: p.Performance,
	}}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return models.ErrOther("encode policy", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(s.dir, ".policy-*.tmp")
	if err != nil {
		return models.ErrOther("write policy", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return models.ErrOther("write policy", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return models.ErrOther("write policy", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		os.Remove(tmpName)
		return models.ErrOther("write policy", err)
	}
	return nil
}

// List loads every readable policy, skipping corrupt or mismatched
// files silently, sorted by domain.
func (s *LocalFSStore) List() ([]*policy.Policy, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, models.ErrOther("list policies", err)
	}

	var out []*policy.Policy
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), ".json")
		d := domain.Canonicalize(stem)
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		if p := decode(data, d); p != nil {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}

// Delete removes the policy file for d. A missing file is not an error.
func (s *LocalFSStore) Delete(d domain.Domain) error {
	name, ok := fileNameFor(d)
	if !ok {
		return models.ErrValidation("domain", fmt.Sprintf("unusable as a policy file name: %q", d))
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.ErrOther(fmt.Sprintf("delete policy for %s", d), err)
	}
	return nil
}

// DeleteAll removes every *.json policy file in the directory.
func (s *LocalFSStore) DeleteAll() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return models.ErrOther("list policies", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, os.ErrNotExist) {
			return models.ErrOther("delete policies", err)
		}
	}
	return nil
}
