package tables

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/turnstile/internal/flow"
	"github.com/roach88/turnstile/internal/game"
)

//go:embed schema.cue
var schemaSrc string

// LoadError reports a table file that does not compile or does not satisfy
// the #Tables schema.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return err
}

// raw mirrors #Tables with plain string keys for decoding.
type raw struct {
	Commands map[string]CommandTraits `json:"commands"`
	Windows  map[string]struct {
		Allow    []string `json:"allow"`
		ReopenOn []string `json:"reopen_on"`
	} `json:"windows"`
	Phases flow.Graph `json:"phases"`
}

// Parse compiles CUE source, unifies it with #Tables and decodes it.
// name is used in error positions.
func Parse(name string, src []byte) (Tables, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Tables{}, fmt.Errorf("tables schema: %w", formatCUEError(err))
	}

	data := ctx.CompileBytes(src, cue.Filename(name))
	if err := data.Err(); err != nil {
		return Tables{}, formatCUEError(err)
	}

	v := schema.LookupPath(cue.ParsePath("#Tables")).Unify(data)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return Tables{}, formatCUEError(err)
	}

	var r raw
	if err := v.Decode(&r); err != nil {
		return Tables{}, formatCUEError(err)
	}

	t := Tables{
		Commands: make(map[game.CommandType]CommandTraits, len(r.Commands)),
		Windows:  make(map[string]WindowTraits, len(r.Windows)),
		Phases:   r.Phases,
	}
	for k, c := range r.Commands {
		t.Commands[game.CommandType(k)] = c
	}
	for k, w := range r.Windows {
		wt := WindowTraits{}
		for _, a := range w.Allow {
			wt.Allow = append(wt.Allow, game.CommandType(a))
		}
		for _, e := range w.ReopenOn {
			wt.ReopenOn = append(wt.ReopenOn, game.EventType(e))
		}
		t.Windows[k] = wt
	}

	if err := t.Phases.Validate(); err != nil {
		return Tables{}, &LoadError{Field: "phases", Message: err.Error()}
	}
	return t, nil
}

// MustParse is like Parse but panics on error. Use for tables embedded in
// rule-set packages, where a bad file is a programming error.
func MustParse(name string, src []byte) Tables {
	t, err := Parse(name, src)
	if err != nil {
		panic(err)
	}
	return t
}

// LoadFile reads and parses a table file.
func LoadFile(path string) (Tables, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Tables{}, fmt.Errorf("read tables: %w", err)
	}
	return Parse(filepath.Base(path), src)
}
