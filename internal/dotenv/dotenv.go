// Package dotenv loads a local .env file into the process environment
// for development runs. Production deployments set CONVONET_* variables
// directly and never ship a .env file.
package dotenv

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// LoadFile loads KEY=VALUE pairs from path into the process environment.
// A missing file is not an error. Variables already present in the
// environment win over file values, so a .env file can never override a
// deployment's real configuration.
func LoadFile(path string) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open env file %q: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		key, val, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return fmt.Errorf("set env %q from %q: %w", key, path, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan env file %q: %w", path, err)
	}
	return nil
}

// parseLine extracts one KEY=VALUE pair. Blank lines and comments yield
// ok=false. Unquoted values may carry a trailing # comment; quoted values
// keep their content verbatim.
func parseLine(line string) (key, val string, ok bool) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return "", "", false
	}

	line = strings.TrimPrefix(line, "export ")
	idx := strings.Index(line, "=")
	if idx <= 0 {
		return "", "", false
	}

	key = strings.TrimSpace(line[:idx])
	if key == "" {
		return "", "", false
	}

	val = strings.TrimSpace(line[idx+1:])
	if len(val) >= 2 {
		if strings.HasPrefix(val, `"`) && strings.HasSuffix(val, `"`) {
			return key, val[1 : len(val)-1], true
		}
		if strings.HasPrefix(val, "'") && strings.HasSuffix(val, "'") {
			return key, val[1 : len(val)-1], true
		}
	}
	if hash := strings.Index(val, " #"); hash >= 0 {
		val = strings.TrimSpace(val[:hash])
	}
	return key, val, true
}
