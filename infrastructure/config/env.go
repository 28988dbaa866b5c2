package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/voxmind/voxmind/domain/config"
)

var (
	bracketPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-[^}]*|:\?[^}]*)?\}`)
	simplePattern  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// envExpander expands environment variables in configuration strings.
type envExpander struct {
	// strict fails if a referenced variable is not set.
	strict bool
	// missing tracks missing environment variables.
	missing []string
}

// Expand expands environment variables in the input string.
// Supported patterns:
//   - ${VAR} - expands to the value of VAR
//   - ${VAR:-default} - expands to VAR or "default" if not set
//   - ${VAR:?error message} - fails if VAR is not set
//   - $VAR - simple expansion (not recommended, use ${VAR})
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	result := bracketPattern.ReplaceAllStringFunc(input, e.expandBracketed)
	result = simplePattern.ReplaceAllStringFunc(result, e.expandSimple)

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}

	return result, nil
}

func (e *envExpander) expandBracketed(match string) string {
	inner := match[2 : len(match)-1] // strip ${ and }

	parts := strings.SplitN(inner, ":", 2)
	varName := parts[0]
	var modifier string
	if len(parts) > 1 {
		modifier = parts[1]
	}

	value, exists := os.LookupEnv(varName)

	switch {
	case strings.HasPrefix(modifier, "-"):
		// Default value: ${VAR:-default}
		if !exists || value == "" {
			return modifier[1:]
		}
	case strings.HasPrefix(modifier, "?"):
		// Required: ${VAR:?error message}
		if !exists || value == "" {
			e.missing = append(e.missing, fmt.Sprintf("%s: %s", varName, modifier[1:]))
			return match
		}
	default:
		if !exists {
			if e.strict {
				e.missing = append(e.missing, varName)
			}
			return ""
		}
	}

	return value
}

func (e *envExpander) expandSimple(match string) string {
	varName := match[1:]
	value, exists := os.LookupEnv(varName)
	if !exists {
		if e.strict {
			e.missing = append(e.missing, varName)
		}
		return ""
	}
	return value
}

// ExpandEnv is a convenience function that expands environment variables.
func ExpandEnv(input string) string {
	e := &envExpander{strict: false}
	result, _ := e.Expand(input)
	return result
}

// ExpandEnvStrict expands environment variables and returns an error for missing vars.
func ExpandEnvStrict(input string) (string, error) {
	e := &envExpander{strict: true}
	return e.Expand(input)
}
