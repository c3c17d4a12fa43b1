// Package configstore persists the per-target raw config records as YAML
// files under each target's directory, with existed-detection so the engine
// can distinguish first generation from regeneration.
package configstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/vmartowicz/vmz-generator-jhipster/pkg/lifecycle"
	"github.com/vmartowicz/vmz-generator-jhipster/pkg/model"
)

// RecordFile is the name of the per-target config record, stored inside the
// target's output directory.
const RecordFile = ".vmzgen.yml"

// Store reads and writes per-target config records rooted at one output
// directory. Writes merge by key: a written key overwrites its prior value,
// keys the current run did not touch are preserved.
type Store struct {
	root     string
	validate *validator.Validate
}

// NewStore creates a store rooted at the given output directory.
func NewStore(root string) *Store {
	return &Store{
		root:     root,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Path returns the record file path for a target.
func (s *Store) Path(targetID string) string {
	return filepath.Join(s.root, targetID, RecordFile)
}

// Load reads a target's raw config record. existed is true iff a record
// file was found; a missing record yields an empty map and existed=false,
// not an error.
func (s *Store) Load(targetID string) (map[string]interface{}, bool, error) {
	path := s.Path(targetID)

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]interface{}{}, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat config record %s: %w", path, err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
		return nil, false, lifecycle.NewConfigInvalidError(
			fmt.Sprintf("config record %s is not valid YAML", path), err)
	}

	return k.Raw(), true, nil
}

// Save merges the given keys over a target's existing record and writes the
// result. The write is atomic (temp file + rename) so a crashed run never
// leaves a truncated record behind. When the merge changes nothing the file
// is left untouched, so regeneration runs do not feed their own save back
// into anything watching the record.
func (s *Store) Save(targetID string, values map[string]interface{}) error {
	path := s.Path(targetID)

	k := koanf.New(".")
	var existing []byte
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), kyaml.Parser()); err != nil {
			return lifecycle.NewConfigInvalidError(
				fmt.Sprintf("existing config record %s is not valid YAML", path), err)
		}
		existing, _ = os.ReadFile(path)
	}
	if err := k.Load(confmap.Provider(values, "."), nil); err != nil {
		return fmt.Errorf("failed to merge config values: %w", err)
	}

	out, err := k.Marshal(kyaml.Parser())
	if err != nil {
		return fmt.Errorf("failed to marshal config record: %w", err)
	}
	if existing != nil && bytes.Equal(existing, out) {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create target directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, out, 0644); err != nil {
		return fmt.Errorf("failed to write config record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to replace config record: %w", err)
	}
	return nil
}

// Decode converts a raw record map into the typed ConfigRecord and
// validates it. Validation failures are always-fatal config errors naming
// the offending fields.
func (s *Store) Decode(targetID string, raw map[string]interface{}) (model.ConfigRecord, error) {
	var record model.ConfigRecord

	k := koanf.New(".")
	if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
		return record, lifecycle.NewConfigInvalidError(
			fmt.Sprintf("config for %q could not be read", targetID), err)
	}
	if err := k.Unmarshal("", &record); err != nil {
		return record, lifecycle.NewConfigInvalidError(
			fmt.Sprintf("config for %q has wrong field types", targetID), err)
	}

	if err := s.validate.Struct(record); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, len(verrs))
			for i, fe := range verrs {
				fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
			}
			return record, lifecycle.NewConfigInvalidError(
				fmt.Sprintf("config for %q failed validation: %s",
					targetID, strings.Join(fields, ", ")), err)
		}
		return record, lifecycle.NewConfigInvalidError(
			fmt.Sprintf("config for %q failed validation", targetID), err)
	}

	return record, nil
}
