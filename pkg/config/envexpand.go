package config

import "os"

// ExpandEnv expands ${VAR} and $VAR references in YAML content using the
// standard library. Missing variables expand to an empty string; validation
// catches any required field left empty as a result.
func ExpandEnv(data []byte) []byte {
	return []byte(os.ExpandEnv(string(data)))
}
