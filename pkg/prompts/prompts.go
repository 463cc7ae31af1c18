package prompts

import (
	"fmt"
	"strings"
	"text/template"
)

// Message represents a single turn in a chat-like conversation with the LLM.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// PromptData is the typed record substituted into templates. User content is
// injected as data through text/template, so it can never collide with
// placeholder syntax the way raw string interpolation could.
type PromptData struct {
	Request         string // the user's natural-language request
	Selection       string // selected code, when the command operates on one
	Language        string // language hint for the selection or target file
	FilePath        string // file the operation targets
	Context         string // project context summary from the scanner
	Architecture    string // detected or forced architecture label
	PlanFeature     string // feature title from the architect step
	FileDescription string // per-file description from the plan
}

// Template names.
const (
	TemplateArchitect = "architect"
	TemplateCoder     = "coder"
	TemplateExplain   = "explain"
	TemplateOptimize  = "optimize"
	TemplateRefactor  = "refactor"
	TemplateChat      = "chat"
	TemplateCreate    = "create"
)

var builtinTemplates = map[string]string{
	TemplateArchitect: `You are an expert software architect. Design the file layout for the following feature.

Feature request: {{.Request}}
{{if .Architecture}}The project follows the {{.Architecture}} convention; place files accordingly.{{end}}
{{if .Context}}Project context:
{{.Context}}{{end}}
Return ONLY valid JSON, no markdown and no explanations, in this shape:
{"feature": "short title", "files": [{"path": "relative/path.ext", "description": "what this file contains"}]}

List the files in the order they should be created. Paths must be unique.`,

	TemplateCoder: `You are an expert developer implementing one file of a planned feature.

Feature: {{.PlanFeature}}
File to write: {{.FilePath}}
Purpose: {{.FileDescription}}
{{if .Architecture}}The project follows the {{.Architecture}} convention.{{end}}
{{if .Context}}Project context:
{{.Context}}{{end}}
Write the COMPLETE contents of {{.FilePath}}. Return only the file content,
optionally inside a single fenced code block. No explanations.`,

	TemplateExplain: `Explain the following {{.Language}} code clearly and concisely.
{{if .FilePath}}It comes from {{.FilePath}}.{{end}}
{{if .Context}}Project context:
{{.Context}}{{end}}
Code:
{{.Selection}}`,

	TemplateOptimize: `Improve the performance and clarity of the following {{.Language}} code.
Keep behavior identical. Return the complete improved code in one fenced block,
followed by a short list of the changes.
{{if .Context}}Project context:
{{.Context}}{{end}}
Code:
{{.Selection}}`,

	TemplateRefactor: `Refactor the following {{.Language}} code for readability and maintainability.
{{if .Architecture}}Respect the project's {{.Architecture}} convention.{{end}}
Return the complete refactored code in one fenced block, followed by a short
list of the changes.
{{if .Context}}Project context:
{{.Context}}{{end}}
Code:
{{.Selection}}`,

	TemplateChat: `{{if .Context}}Here is context about the user's project:
{{.Context}}

{{end}}{{.Request}}`,

	TemplateCreate: `You are an expert developer. Create a single file for the following request.

Request: {{.Request}}
{{if .FilePath}}Target path: {{.FilePath}}{{end}}
{{if .Architecture}}The project follows the {{.Architecture}} convention.{{end}}
{{if .Context}}Project context:
{{.Context}}{{end}}
Return only the file content, optionally inside a single fenced code block.`,
}

// SystemMessage is the default system prompt sent with chat requests.
const SystemMessage = "You are a helpful coding assistant. You answer precisely and produce complete, working code."

// Render fills the named template with data. Overrides from configuration
// take precedence over the built-in template of the same name.
func Render(name string, overrides map[string]string, data PromptData) (string, error) {
	text, ok := builtinTemplates[name]
	if !ok {
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
	if overrides != nil {
		if custom, ok := overrides[name]; ok && custom != "" {
			text = custom
		}
	}

	tmpl, err := template.New(name).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template %q: %w", name, err)
	}
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template %q: %w", name, err)
	}
	return strings.TrimSpace(buf.String()) + "\n", nil
}

// TemplateNames lists the built-in template names, for help output.
func TemplateNames() []string {
	return []string{
		TemplateArchitect, TemplateCoder, TemplateExplain,
		TemplateOptimize, TemplateRefactor, TemplateChat, TemplateCreate,
	}
}
