package latex

import (
	"bytes"
	_ "embed"
	"fmt"
	"text/template"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
)

// FileName is the name of the rendered complaint.
const FileName = "plangere.tex"

//go:embed complaint.tex.tmpl
var complaintTemplate string

// Section is one entity and the violations reported against it.
type Section struct {
	Entity     string
	Violations []string
}

type document struct {
	Cfg      config.ComplaintConfig
	Sections []Section
}

// Renderer fills the complaint template.
type Renderer struct {
	cfg     config.ComplaintConfig
	escaper Escaper
	tmpl    *template.Template
}

var _ ports.ComplaintRenderer = (*Renderer)(nil)

// NewRenderer parses the embedded template for cfg.
func NewRenderer(cfg config.ComplaintConfig) (*Renderer, error) {
	r := &Renderer{
		cfg:     cfg,
		escaper: Escaper{MinDigits: cfg.MinIDDigits, MaxDigits: cfg.MaxIDDigits},
	}
	tmpl, err := template.New("complaint").
		Delims("<<", ">>").
		Funcs(template.FuncMap{"esc": r.escaper.Escape}).
		Parse(complaintTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse complaint template: %w", err)
	}
	r.tmpl = tmpl
	return r, nil
}

// Render writes one subsection per entity, in the order given.
func (r *Renderer) Render(entities []string, groups map[string][]string) ([]byte, error) {
	doc := document{Cfg: r.cfg}
	for _, e := range entities {
		doc.Sections = append(doc.Sections, Section{Entity: e, Violations: groups[e]})
	}

	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("render complaint: %w", err)
	}
	return buf.Bytes(), nil
}
