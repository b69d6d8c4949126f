package presentation

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"strings"

	apperrors "go-glow-ai/internal/errors"
	"go-glow-ai/pkg/models"
	"go-glow-ai/pkg/validation"
)

// NeutralGray replaces any color the model returned in a non-hex form.
const NeutralGray = "#9E9E9E"

//go:embed templates/*.html
var templateFS embed.FS

// Display is a result coerced to what the templates expect.
type Display struct {
	Season      string
	Description string
	BestColors  []string
	WorstColor  string
	YogaTitle   string
	YogaText    string
	IsDemo      bool
}

// NewDisplay coerces result for rendering. Colors that are not hex are
// shown as NeutralGray.
func NewDisplay(result *models.AnalysisResult) Display {
	if result == nil {
		return Display{}
	}
	d := Display{
		Season:      result.Season,
		Description: result.Description,
		WorstColor:  hexOrGray(result.WorstColor),
		YogaTitle:   result.YogaTitle,
		YogaText:    result.YogaText,
		IsDemo:      result.IsDemo,
		BestColors:  make([]string, 0, len(result.BestColors)),
	}
	for _, c := range result.BestColors {
		d.BestColors = append(d.BestColors, hexOrGray(c))
	}
	return d
}

func hexOrGray(c string) string {
	if validation.IsHexColor(c) {
		return c
	}
	return NeutralGray
}

type page struct {
	View        *View
	Display     Display
	ResultField string
	Preview     template.URL
	ChannelLink string
	CrashText   string
}

// Renderer writes views as HTML pages.
type Renderer struct {
	tmpl        *template.Template
	channelLink string
}

// NewRenderer parses the embedded templates.
func NewRenderer(channelLink string) (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, channelLink: channelLink}, nil
}

// Render writes v. Nothing is written when the template fails.
func (r *Renderer) Render(w io.Writer, v *View) error {
	p := page{
		View:        v,
		Display:     NewDisplay(v.Result),
		ResultField: ResultField(v.Result),
		ChannelLink: r.channelLink,
	}
	// Only our own JPEG data URIs are trusted as image sources.
	if strings.HasPrefix(v.Preview, "data:image/jpeg;base64,") {
		p.Preview = template.URL(v.Preview)
	}
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "page.html", p); err != nil {
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}

// RenderCrash writes the generic crash page.
func (r *Renderer) RenderCrash(w io.Writer) error {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, "crash.html", page{CrashText: apperrors.MsgCrash}); err != nil {
		_, err = io.WriteString(w, template.HTMLEscapeString(apperrors.MsgCrash))
		return err
	}
	_, err := buf.WriteTo(w)
	return err
}
