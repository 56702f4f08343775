package config

import (
	"bytes"
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"

	"github.com/charmbracelet/log"
)

//go:embed all:templates
var templateFS embed.FS

// templatesRoot is the top-level directory in the embedded FS that contains
// all project templates.
const templatesRoot = "templates"

// DefaultTemplate is the template used by "stepwise init" when none is named.
const DefaultTemplate = "basic"

// TemplateVars holds variables available to .tmpl files.
type TemplateVars struct {
	// ProjectName is written to [project].name and into sample wizards.
	ProjectName string
	// StepDelay is written to [run].step_delay.
	StepDelay string
}

// ListTemplates returns the names of all embedded project templates, sorted.
func ListTemplates() ([]string, error) {
	entries, err := templateFS.ReadDir(templatesRoot)
	if err != nil {
		return nil, fmt.Errorf("reading templates directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// TemplateExists reports whether a template with the given name exists.
func TemplateExists(name string) bool {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return false
	}
	info, err := fs.Stat(templateFS, path.Join(templatesRoot, name))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// RenderTemplate writes the named template's files into destDir. Files
// ending in ".tmpl" are executed with vars and written without the suffix;
// other files are copied as-is. Existing files are skipped unless force is
// set. It returns the paths written, in walk order.
func RenderTemplate(name string, destDir string, vars TemplateVars, force bool) ([]string, error) {
	if !TemplateExists(name) {
		return nil, fmt.Errorf("template %q not found", name)
	}

	root := path.Join(templatesRoot, name)
	var created []string

	walkErr := fs.WalkDir(templateFS, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking template %s: %w", p, err)
		}
		if d.IsDir() {
			return nil
		}

		rel := strings.TrimPrefix(p, root+"/")
		isTmpl := strings.HasSuffix(rel, ".tmpl")
		destFile := filepath.Join(destDir, filepath.FromSlash(strings.TrimSuffix(rel, ".tmpl")))

		if _, statErr := os.Stat(destFile); statErr == nil && !force {
			log.Debug("skipping existing file", "path", destFile)
			return nil
		}

		content, readErr := templateFS.ReadFile(p)
		if readErr != nil {
			return fmt.Errorf("reading embedded file %s: %w", p, readErr)
		}
		if isTmpl {
			content, err = execute(d.Name(), content, vars)
			if err != nil {
				return err
			}
		}

		if mkErr := os.MkdirAll(filepath.Dir(destFile), 0o755); mkErr != nil {
			return fmt.Errorf("creating directory for %s: %w", destFile, mkErr)
		}
		if writeErr := os.WriteFile(destFile, content, 0o644); writeErr != nil {
			return fmt.Errorf("writing file %s: %w", destFile, writeErr)
		}

		log.Debug("created template file", "path", destFile)
		created = append(created, destFile)
		return nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return created, nil
}

func execute(name string, content []byte, vars TemplateVars) ([]byte, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return nil, fmt.Errorf("executing template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}
