// Package state persists pipeline checkpoints and extraction logs for one
// problem. Every stage writes its result through a Store so an interrupted
// run can resume from the last completed checkpoint.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xijx23/optiAgent/internal/safeio"
	"github.com/xijx23/optiAgent/internal/types"
)

// Checkpoint file names, one per completed stage.
const (
	State0Description        = "state_0_description.json"
	State1Params             = "state_1_params.json"
	State2Objective          = "state_2_objective.json"
	State3Constraints        = "state_3_constraints.json"
	State4ConstraintsModeled = "state_4_constraints_modeled.json"
	State5ObjectiveModeled   = "state_5_objective_modeled.json"
	State6Code               = "state_6_code.json"
)

// Side artifacts kept next to the checkpoints.
const (
	DescriptionFile = "desc.txt"
	ParamsFile      = "params.json"

	ParamsLog             = "params_extraction_log.json"
	ObjectiveLog          = "objective_extraction_log.json"
	ConstraintsLog        = "constraints_extraction_log.json"
	ConstraintModelingLog = "constraint_formulations_log.json"
	ObjectiveModelingLog  = "objective_formulation_log.json"
	CodeGenerationLog     = "code_generation_log.json"
	ExecutionOutput       = "code_execution_output.json"
)

// Checkpoints lists the state files in pipeline order.
var Checkpoints = []string{
	State0Description,
	State1Params,
	State2Objective,
	State3Constraints,
	State4ConstraintsModeled,
	State5ObjectiveModeled,
	State6Code,
}

// Store binds all reads and writes to one problem directory under a base.
type Store struct {
	fs   *safeio.SafeFS
	name string
	root string // absolute problem directory
}

// NewStore opens (or creates) <baseDir>/<problemName>. The problem name is
// resolved through a root-locked filesystem so it cannot escape the base.
func NewStore(baseDir, problemName string) (*Store, error) {
	problemName = strings.TrimSpace(problemName)
	if problemName == "" {
		return nil, errors.New("state: empty problem name")
	}
	fs, err := safeio.NewSafeFS(baseDir)
	if err != nil {
		return nil, err
	}
	root, err := fs.Resolve(problemName)
	if err != nil {
		return nil, fmt.Errorf("state: problem name %q: %w", problemName, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Store{fs: fs, name: problemName, root: root}, nil
}

// Name returns the problem name the store is bound to.
func (s *Store) Name() string { return s.name }

// Root returns the absolute problem directory.
func (s *Store) Root() string { return s.root }

// Path returns the absolute path of an artifact inside the problem directory.
func (s *Store) Path(file string) string {
	return filepath.Join(s.root, file)
}

// Has reports whether an artifact exists.
func (s *Store) Has(file string) bool {
	info, err := os.Stat(s.Path(file))
	return err == nil && !info.IsDir()
}

// HasCheckpoints reports whether any pipeline checkpoint already exists,
// used to refuse clobbering a previous run without an explicit overwrite.
func (s *Store) HasCheckpoints() bool {
	for _, file := range Checkpoints {
		if s.Has(file) {
			return true
		}
	}
	return false
}

// LatestCheckpoint returns the index of the newest checkpoint on disk, or -1
// when none exist. Checkpoint i implies stages 0..i completed.
func (s *Store) LatestCheckpoint() int {
	latest := -1
	for i, file := range Checkpoints {
		if s.Has(file) {
			latest = i
		}
	}
	return latest
}

// SaveJSON writes a value as indented JSON into the problem directory.
func (s *Store) SaveJSON(file string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", file, err)
	}
	return os.WriteFile(s.Path(file), append(b, '\n'), 0o644)
}

// LoadJSON reads a JSON artifact into v.
func (s *Store) LoadJSON(file string, v any) error {
	b, err := s.fs.SafeReadFile(filepath.Join(s.name, file))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("state: decode %s: %w", file, err)
	}
	return nil
}

// SaveState persists a pipeline checkpoint.
func (s *Store) SaveState(file string, st types.State) error {
	return s.SaveJSON(file, st)
}

// LoadState reads a pipeline checkpoint back.
func (s *Store) LoadState(file string) (types.State, error) {
	var st types.State
	if err := s.LoadJSON(file, &st); err != nil {
		return types.State{}, err
	}
	return st, nil
}

// SaveDescription keeps the raw problem text next to the checkpoints.
func (s *Store) SaveDescription(description string) error {
	return os.WriteFile(s.Path(DescriptionFile), []byte(description), 0o644)
}

// NewInitialState builds the stage-zero checkpoint from the raw description.
func NewInitialState(problemName, description string) (types.State, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return types.State{}, errors.New("state: problem description cannot be empty")
	}
	return types.State{
		Description: description,
		Parameters:  map[string]types.Parameter{},
		Variables:   map[string]types.Variable{},
		Meta: types.Meta{
			ProblemName: problemName,
			CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		},
	}, nil
}
