package checker

import (
	"os"
	"path/filepath"

	"docsnip/internal/snippet"
)

// Prerequisite is a file a language workspace needs before its toolchain
// can run.
type Prerequisite struct {
	Name        string   // e.g., "go.mod"
	Description string   // e.g., "Go module file"
	Paths       []string // Relative to the toolchain directory
	Required    bool     // True = must exist, False = warning only
}

// PrerequisiteStatus represents the status of a prerequisite check.
type PrerequisiteStatus struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Found       bool   `json:"found"`
	Path        string `json:"path,omitempty"`
	Required    bool   `json:"required"`
}

// WorkspacePrerequisites maps languages to their workspace requirements.
var WorkspacePrerequisites = map[snippet.Language][]Prerequisite{
	snippet.LangGo: {
		{
			Name:        "go.mod",
			Description: "Go module file",
			Paths:       []string{"go.mod"},
			Required:    true,
		},
	},
	snippet.LangTypeScript: {
		{
			Name:        "package.json",
			Description: "Node.js package manifest with a test script",
			Paths:       []string{"package.json"},
			Required:    true,
		},
		{
			Name:        "node_modules",
			Description: "Installed dependencies (npm i)",
			Paths:       []string{"node_modules"},
			Required:    true,
		},
		{
			Name:        "tsconfig.json",
			Description: "TypeScript configuration",
			Paths:       []string{"tsconfig.json"},
			Required:    false,
		},
	},
	snippet.LangPython: {
		{
			Name:        "venv",
			Description: "Virtual environment (virtualenv ./venv)",
			Paths:       []string{"venv/bin/activate"},
			Required:    true,
		},
		{
			Name:        "requirements.txt",
			Description: "Python requirements",
			Paths:       []string{"requirements.txt"},
			Required:    false,
		},
	},
}

// CheckPrerequisites reports which of lang's workspace files exist in dir.
func CheckPrerequisites(dir string, lang snippet.Language) []PrerequisiteStatus {
	prereqs := WorkspacePrerequisites[lang]
	statuses := make([]PrerequisiteStatus, 0, len(prereqs))

	for _, p := range prereqs {
		status := PrerequisiteStatus{
			Name:        p.Name,
			Description: p.Description,
			Required:    p.Required,
		}
		for _, rel := range p.Paths {
			full := filepath.Join(dir, rel)
			if _, err := os.Stat(full); err == nil {
				status.Found = true
				status.Path = full
				break
			}
		}
		statuses = append(statuses, status)
	}

	return statuses
}

// MissingRequired returns the names of required prerequisites not found.
func MissingRequired(statuses []PrerequisiteStatus) []string {
	var missing []string
	for _, s := range statuses {
		if s.Required && !s.Found {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
