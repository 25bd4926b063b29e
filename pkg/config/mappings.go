package config

import (
	"reflect"
	"strings"
	"sync"
)

// FieldMapping ties a config path to the environment variable and CLI flag
// that can set it.
type FieldMapping struct {
	ConfigPath string
	EnvVar     string
	CLIFlag    string
}

var (
	cachedMappings []FieldMapping
	mappingsOnce   sync.Once
)

// GenerateMappings extracts field mappings from the Config struct tags.
func GenerateMappings() []FieldMapping {
	mappingsOnce.Do(func() {
		cachedMappings = extractMappings(reflect.TypeOf(Config{}), "")
	})
	return cachedMappings
}

func extractMappings(t reflect.Type, prefix string) []FieldMapping {
	var mappings []FieldMapping
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		koanfTag := field.Tag.Get("koanf")
		if koanfTag == "" || koanfTag == "-" {
			continue
		}
		configPath := koanfTag
		if prefix != "" {
			configPath = prefix + "." + koanfTag
		}

		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			mappings = append(mappings, extractMappings(field.Type, configPath)...)
			continue
		}
		envTag := field.Tag.Get("env")
		cliTag := field.Tag.Get("cli")
		if envTag == "-" {
			envTag = ""
		}
		if envTag == "" && cliTag == "" {
			continue
		}
		mappings = append(mappings, FieldMapping{
			ConfigPath: configPath,
			EnvVar:     envTag,
			CLIFlag:    cliTag,
		})
	}
	return mappings
}

// GenerateEnvToConfigMap generates a map from env var to config path
func GenerateEnvToConfigMap() map[string]string {
	result := make(map[string]string)
	for _, m := range GenerateMappings() {
		if m.EnvVar != "" {
			result[m.EnvVar] = m.ConfigPath
		}
	}
	return result
}

// GenerateCLIFlagMap generates a map from CLI flag name to config path
func GenerateCLIFlagMap() map[string]string {
	result := make(map[string]string)
	for _, m := range GenerateMappings() {
		if m.CLIFlag != "" {
			result[m.CLIFlag] = m.ConfigPath
		}
	}
	return result
}

// GetEnvVarForConfigPath returns the environment variable for a given config path
func GetEnvVarForConfigPath(configPath string) string {
	for _, m := range GenerateMappings() {
		if m.ConfigPath == configPath {
			return m.EnvVar
		}
	}
	return ""
}

// IsSensitiveConfigPath checks if a config path is marked as sensitive
func IsSensitiveConfigPath(configPath string) bool {
	return checkSensitiveField(reflect.TypeOf(Config{}), strings.Split(configPath, "."))
}

func checkSensitiveField(t reflect.Type, pathParts []string) bool {
	if len(pathParts) == 0 {
		return false
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if field.Tag.Get("koanf") != pathParts[0] {
			continue
		}
		if len(pathParts) == 1 {
			if field.Type == reflect.TypeOf(SensitiveString("")) {
				return true
			}
			return field.Tag.Get("sensitive") == "true"
		}
		if field.Type.Kind() == reflect.Struct && field.Type.PkgPath() != "time" {
			return checkSensitiveField(field.Type, pathParts[1:])
		}
		return false
	}
	return false
}

// RedactedMap returns a copy of m with every non-empty sensitive leaf
// replaced by [REDACTED]. A sensitive path holding a non-string value, such
// as an object set by an override, is redacted as a whole.
func RedactedMap(m map[string]any) map[string]any {
	return redactMap("", m)
}

func redactMap(prefix string, m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if IsSensitiveConfigPath(path) {
			out[k] = redactLeaf(v)
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = redactMap(path, nested)
			continue
		}
		out[k] = v
	}
	return out
}

func redactLeaf(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		if x == "" {
			return ""
		}
	case SensitiveString:
		if x == "" {
			return ""
		}
	}
	return redacted
}
