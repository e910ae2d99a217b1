package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/blackcoderx/courier/pkg/exchange"
)

// varPattern matches {{VAR_NAME}} or {{env:VAR_NAME}}
var varPattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// LoadEnvironment loads the named environment from baseDir/environments.
func LoadEnvironment(baseDir, name string) (map[string]string, error) {
	filePath, err := environmentPath(baseDir, name)
	if err != nil {
		return nil, err
	}
	return LoadEnvironmentFile(filePath)
}

// LoadEnvironmentFile loads environment variables from a YAML file
func LoadEnvironmentFile(filePath string) (map[string]string, error) {
	env, err := readEnvironmentFile(filePath)
	if err != nil {
		return nil, err
	}

	// Resolve any {{env:VAR}} references to actual environment variables
	for key, value := range env {
		env[key] = resolveEnvRefs(value)
	}

	return env, nil
}

// SetVariables merges vars into the named environment, creating it if
// needed. Existing {{env:VAR}} references are written back unresolved.
func SetVariables(baseDir, name string, vars map[string]string) error {
	filePath, err := environmentPath(baseDir, name)
	if err != nil {
		return err
	}

	env, err := readEnvironmentFile(filePath)
	if errors.Is(err, ErrNotFound) {
		env = map[string]string{}
	} else if err != nil {
		return err
	}

	for k, v := range vars {
		env[k] = v
	}
	return writeYAML(filePath, env)
}

func readEnvironmentFile(filePath string) (map[string]string, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("environment %s: %w", filepath.Base(filePath), ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read environment file: %w", err)
	}

	var env map[string]string
	if err := yaml.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("failed to parse environment YAML: %w", err)
	}
	if env == nil {
		env = map[string]string{}
	}
	return env, nil
}

func environmentPath(baseDir, name string) (string, error) {
	stem := Slug(name)
	if stem == "" {
		return "", fmt.Errorf("invalid environment name %q", name)
	}
	return withinBase(filepath.Join("environments", stem+".yaml"), baseDir)
}

// ListEnvironments lists all environment files
func ListEnvironments(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(EnvironmentsDir(baseDir))
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read environments directory: %w", err)
	}

	var envs []string
	for _, entry := range entries {
		if !entry.IsDir() && isYAML(entry.Name()) {
			name := strings.TrimSuffix(strings.TrimSuffix(entry.Name(), ".yaml"), ".yml")
			envs = append(envs, name)
		}
	}
	sort.Strings(envs)
	return envs, nil
}

// SubstituteVariables replaces {{VAR}} placeholders with values from the environment
func SubstituteVariables(text string, env map[string]string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		varName := strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{"))

		// Check for env: prefix (reference to system environment)
		if strings.HasPrefix(varName, "env:") {
			if val := os.Getenv(strings.TrimPrefix(varName, "env:")); val != "" {
				return val
			}
			return match
		}

		if val, ok := env[varName]; ok {
			return val
		}
		return match // Keep original if not found
	})
}

// ApplyEnvironment returns a copy of req with placeholders substituted in
// every user-editable text field. req itself is not modified.
func ApplyEnvironment(req exchange.Request, env map[string]string) exchange.Request {
	applied := req.Clone()
	sub := func(s string) string { return SubstituteVariables(s, env) }

	applied.URL = sub(applied.URL)
	for i := range applied.QueryParams {
		applied.QueryParams[i].Key = sub(applied.QueryParams[i].Key)
		applied.QueryParams[i].Value = sub(applied.QueryParams[i].Value)
	}
	for i := range applied.Headers {
		applied.Headers[i].Key = sub(applied.Headers[i].Key)
		applied.Headers[i].Value = sub(applied.Headers[i].Value)
	}
	applied.AuthToken = sub(applied.AuthToken)
	applied.Body = sub(applied.Body)
	applied.GraphQLQuery = sub(applied.GraphQLQuery)
	applied.GraphQLVariables = sub(applied.GraphQLVariables)

	return applied
}

// resolveEnvRefs resolves {{env:VAR}} references in a string
func resolveEnvRefs(text string) string {
	return varPattern.ReplaceAllStringFunc(text, func(match string) string {
		varName := strings.TrimSpace(strings.TrimPrefix(strings.TrimSuffix(match, "}}"), "{{"))

		if strings.HasPrefix(varName, "env:") {
			if val := os.Getenv(strings.TrimPrefix(varName, "env:")); val != "" {
				return val
			}
		}
		return match
	})
}
