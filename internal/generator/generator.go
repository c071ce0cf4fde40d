package generator

import (
	"embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"unicode"

	"github.com/klauern/hubhooks/internal/constants"
	"github.com/klauern/hubhooks/internal/core"
)

//go:embed templates/*
var templates embed.FS

// eventTypes names the event record of every hook
var eventTypes = map[core.HookName]string{
	core.OnTimer:                   "TimerEvent",
	core.OnParsedMsgChat:           "ChatEvent",
	core.OnParsedMsgPM:             "PrivateMessageEvent",
	core.OnParsedMsgSearch:         "SearchEvent",
	core.OnParsedMsgSR:             "SearchResultEvent",
	core.OnParsedMsgMyINFO:         "MyINFOEvent",
	core.OnParsedMsgValidateNick:   "ValidateNickEvent",
	core.OnParsedMsgConnectToMe:    "ConnectToMeEvent",
	core.OnParsedMsgRevConnectToMe: "RevConnectToMeEvent",
	core.OnParsedMsgSupports:       "SupportsEvent",
	core.OnUserLogin:               "UserLoginEvent",
	core.OnUserLogout:              "UserLogoutEvent",
	core.OnUserDisconnected:        "UserDisconnectedEvent",
	core.OnNewConn:                 "NewConnEvent",
	core.OnCloseConn:               "CloseConnEvent",
	core.OnHubCommand:              "HubCommandEvent",
	core.OnOperatorCommand:         "OperatorCommandEvent",
	core.OnOperatorKicks:           "OperatorKicksEvent",
	core.OnOperatorDrops:           "OperatorDropsEvent",
	core.OnValidateTag:             "ValidateTagEvent",
	core.OnUserInList:              "UserInListEvent",
	core.OnUnknownMsg:              "UnknownMsgEvent",
	core.OnFlood:                   "FloodEvent",
}

// HookBinding is one hook the generated script handles
type HookBinding struct {
	Name   core.HookName // e.g. OnUserLogin
	Event  string        // event record type, e.g. UserLoginEvent
	Method string        // handler method, e.g. onUserLogin
}

// TemplateData holds data for template rendering
type TemplateData struct {
	Name        string // PascalCase name (e.g., "BadWords")
	LowerName   string // snake_case name (e.g., "bad_words")
	Description string // Human readable description
	Priority    int
	Hooks       []HookBinding
	ModulePath  string
}

// Generator handles script code generation
type Generator struct {
	outputDir string
	out       io.Writer
}

// NewGenerator creates a new generator instance writing into outputDir.
// Progress and registration hints are printed to out.
func NewGenerator(outputDir string, out io.Writer) *Generator {
	if outputDir == "" {
		outputDir = constants.InternalHooksDir
	}
	if out == nil {
		out = io.Discard
	}
	return &Generator{outputDir: outputDir, out: out}
}

// GenerateScript renders a new bundled script bound to hooks and, when
// includeTest is set, a test for it. It returns the written paths.
func (g *Generator) GenerateScript(name, description string, hooks []core.HookName, includeTest bool) ([]string, error) {
	if err := ValidateScriptName(name); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, fmt.Errorf("script description cannot be empty")
	}
	bindings, err := Bindings(hooks)
	if err != nil {
		return nil, err
	}

	data := TemplateData{
		Name:        toPascalCase(name),
		LowerName:   toSnakeCase(name),
		Description: description,
		Priority:    constants.DefaultPriority,
		Hooks:       bindings,
		ModulePath:  constants.ModulePath,
	}

	var written []string
	path, err := g.generateFile("script.go.tmpl", data, data.LowerName+".go")
	if err != nil {
		return written, fmt.Errorf("failed to generate script file: %w", err)
	}
	written = append(written, path)

	if includeTest {
		path, err := g.generateFile("script_test.go.tmpl", data, data.LowerName+"_test.go")
		if err != nil {
			return written, fmt.Errorf("failed to generate test file: %w", err)
		}
		written = append(written, path)
	}

	g.showRegistrationInstructions(data)
	return written, nil
}

func (g *Generator) generateFile(templateName string, data TemplateData, outputFileName string) (string, error) {
	templateContent, err := templates.ReadFile("templates/" + templateName)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s: %w", templateName, err)
	}

	tmpl, err := template.New(templateName).Parse(string(templateContent))
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	if err := os.MkdirAll(g.outputDir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(g.outputDir, outputFileName)
	// refuse to clobber an existing script
	file, err := os.OpenFile(outputPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 - controlled output directory
	if err != nil {
		return "", fmt.Errorf("failed to create output file %s: %w", outputPath, err)
	}
	defer func() { _ = file.Close() }()

	if err := tmpl.Execute(file, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	fmt.Fprintf(g.out, "Generated: %s\n", outputPath)
	return outputPath, nil
}

func (g *Generator) showRegistrationInstructions(data TemplateData) {
	fmt.Fprintln(g.out, "\nRegistration:")
	fmt.Fprintf(g.out, "Add the following entry to the RegisterBatch call in %s/registry.go:\n", constants.InternalHooksDir)
	fmt.Fprintf(g.out, "    %q: New%sHook,\n", data.LowerName, data.Name)
	fmt.Fprintln(g.out, "\nTesting:")
	fmt.Fprintf(g.out, "    go test ./%s -run Test%sHook\n", constants.InternalHooksDir, data.Name)
	fmt.Fprintln(g.out, "\nConfiguration:")
	fmt.Fprintf(g.out, "    scripts:\n      - key: %s\n", data.LowerName)
}

// Bindings resolves hook names into template bindings. At least one hook
// is required and every name must be in the catalogue.
func Bindings(hooks []core.HookName) ([]HookBinding, error) {
	if len(hooks) == 0 {
		return nil, fmt.Errorf("at least one hook is required")
	}
	seen := make(map[core.HookName]bool, len(hooks))
	out := make([]HookBinding, 0, len(hooks))
	for _, h := range hooks {
		event, ok := eventTypes[h]
		if !ok {
			return nil, fmt.Errorf("unknown hook %q", h)
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, HookBinding{
			Name:   h,
			Event:  event,
			Method: "on" + strings.TrimPrefix(string(h), "On"),
		})
	}
	return out, nil
}

// ValidateScriptName checks if a script name is valid
func ValidateScriptName(name string) error {
	if name == "" {
		return fmt.Errorf("script name cannot be empty")
	}
	if strings.Contains(name, " ") {
		return fmt.Errorf("script name cannot contain spaces (use underscores or hyphens)")
	}
	for _, r := range name {
		if r != '_' && r != '-' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return fmt.Errorf("script name %q contains invalid character %q", name, r)
		}
	}
	if first := []rune(name)[0]; !unicode.IsLetter(first) {
		return fmt.Errorf("script name %q must start with a letter", name)
	}
	// names taken by the bundled scripts
	reserved := []string{"chatlog", "floodguard", "greeter", "seen", "uptime"}
	lowerName := strings.ToLower(name)
	for _, r := range reserved {
		if lowerName == r {
			return fmt.Errorf("script name '%s' is reserved", name)
		}
	}
	return nil
}

// Helper functions for name conversion

func toPascalCase(s string) string {
	// Convert snake_case or kebab-case to PascalCase
	s = strings.ReplaceAll(s, "-", "_")
	parts := strings.Split(s, "_")
	var b strings.Builder
	for _, part := range parts {
		if len(part) > 0 {
			b.WriteString(strings.ToUpper(part[:1]) + part[1:])
		}
	}
	return b.String()
}

func toSnakeCase(s string) string {
	// Convert PascalCase or kebab-case to snake_case
	s = strings.ReplaceAll(s, "-", "_")

	var result []rune
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) && result[len(result)-1] != '_' {
			result = append(result, '_')
		}
		result = append(result, unicode.ToLower(r))
	}
	return string(result)
}
