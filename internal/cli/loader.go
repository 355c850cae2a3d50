package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ScriptExt is the extension of script files found by directory walks.
const ScriptExt = ".test"

// GeneratedExt is appended to a script path to name its completed copy.
const GeneratedExt = ".generated"

// ErrNoScripts is returned when the given paths hold no script files.
var ErrNoScripts = errors.New("no input script specified")

// Script is a loaded script file.
type Script struct {
	Path string
	Text []byte
}

// FindScripts expands paths into script files. Files are taken as given;
// directories are walked for *.test files in lexical order.
func FindScripts(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot open script: %w", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && filepath.Ext(path) == ScriptExt {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", p, err)
		}
	}

	if len(files) == 0 {
		return nil, ErrNoScripts
	}
	return files, nil
}

// LoadScript reads the script at path.
func LoadScript(path string) (Script, error) {
	text, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("cannot open script: %w", err)
	}
	return Script{Path: path, Text: text}, nil
}

// GeneratedPath returns where the completed copy of script is written.
func GeneratedPath(script string) string {
	return script + GeneratedExt
}
