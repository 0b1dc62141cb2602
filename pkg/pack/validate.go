package pack

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/oakmund/crier/pkg/config"
)

var (
	idPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

	// Semantic version grammar: MAJOR.MINOR.PATCH with optional pre-release
	// and build metadata.
	versionPattern = regexp.MustCompile(`^\d+\.\d+\.\d+(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?$`)
)

// Result is the outcome of validating a bundle. Valid is true iff Errors is
// empty; Errors lists every violation, manifest violations first.
type Result struct {
	Valid  bool
	Errors []string
}

// Validate checks a bundle without side effects or network access. Checks
// are independent: errors accumulate rather than short-circuit, so one call
// reports every problem in the bundle.
func Validate(b Bundle) Result {
	errs := validateManifest(b.Manifest)
	errs = append(errs, validateOperatorConfig(b.OperatorYAML)...)
	return Result{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

func validateManifest(m Manifest) []string {
	var errs []string

	if m.SchemaVersion != SchemaVersion {
		errs = append(errs, fmt.Sprintf("manifest: unsupported schemaVersion %d (expected %d)", m.SchemaVersion, SchemaVersion))
	}
	if m.ID == "" {
		errs = append(errs, "manifest: id is required")
	} else if !idPattern.MatchString(m.ID) {
		errs = append(errs, fmt.Sprintf("manifest: id '%s' must match %s", m.ID, idPattern.String()))
	}
	if strings.TrimSpace(m.Name) == "" {
		errs = append(errs, "manifest: name is required")
	}
	if m.Version == "" {
		errs = append(errs, "manifest: version is required")
	} else if !versionPattern.MatchString(m.Version) {
		errs = append(errs, fmt.Sprintf("manifest: version '%s' is not a valid semantic version", m.Version))
	}

	for key, value := range m.Files {
		if _, ok := value.(string); !ok {
			errs = append(errs, fmt.Sprintf("manifest: files.%s must be a string path", key))
		}
	}

	if m.Tags != nil {
		tags, ok := m.Tags.([]any)
		if !ok {
			errs = append(errs, "manifest: tags must be an array of strings")
		} else {
			for i, tag := range tags {
				if _, ok := tag.(string); !ok {
					errs = append(errs, fmt.Sprintf("manifest: tags[%d] must be a string", i))
				}
			}
		}
	}

	if m.Requirements != nil {
		if _, ok := m.Requirements.(map[string]any); !ok {
			errs = append(errs, "manifest: requirements must be a structured object")
		}
	}

	return errs
}

func validateOperatorConfig(text string) []string {
	if strings.TrimSpace(text) == "" {
		return []string{"config: operator document is empty"}
	}

	cfg, err := config.Decode([]byte(text))
	if err != nil {
		return []string{fmt.Sprintf("config: %v", err)}
	}

	// Mirror the runtime pipeline: defaults apply before validation, so a
	// bundle the validator accepts is exactly one the loader accepts. This
	// includes a bare `briefing: {}` section, which satisfies the work-product
	// rule through the default prompt, same as at runtime.
	cfg.SetDefaults()

	return cfg.CollectErrors()
}
