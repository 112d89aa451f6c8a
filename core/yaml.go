package core

import (
	"os"

	"github.com/goccy/go-yaml"
)

// ReadYaml loads the YAML file at path into dst, then fails fast: a
// malformed config file is a startup error, not
// something the daemon tries to run with.
func ReadYaml(dst any, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, dst)
}
