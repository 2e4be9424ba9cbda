package web

import (
	"embed"
	"html/template"
	"io"
	"strings"

	"chat-with-pdf-be/internal/constant"
	"chat-with-pdf-be/internal/dto"
)

//go:embed templates/*.html
var files embed.FS

var funcs = template.FuncMap{
	"isUser": func(role string) bool { return role == constant.ChatMessageRoleUser },
	"excerpt": func(s string, n int) string {
		r := []rune(strings.TrimSpace(s))
		if len(r) <= n {
			return string(r)
		}
		return string(r[:n]) + "…"
	},
}

var indexTemplate = template.Must(template.New("index.html").Funcs(funcs).ParseFS(files, "templates/index.html"))

type BackendOption struct {
	Value   string
	Label   string
	Checked bool
}

type IndexPage struct {
	Title    string
	Status   dto.SessionStatusResponse
	Messages []*dto.ChatMessageDTO
	Backends []BackendOption
	Accept   string
}

// NewIndexPage fills the page for the given session state.
func NewIndexPage(status dto.SessionStatusResponse, messages []*dto.ChatMessageDTO) IndexPage {
	backends := []BackendOption{
		{Value: constant.BackendLocal, Label: constant.BackendLabelLocal},
		{Value: constant.BackendRemote, Label: constant.BackendLabelRemote},
	}
	for i := range backends {
		backends[i].Checked = backends[i].Value == status.Backend
	}
	return IndexPage{
		Title:    constant.AppTitle,
		Status:   status,
		Messages: messages,
		Backends: backends,
		Accept:   constant.PDFMimeType,
	}
}

func RenderIndex(w io.Writer, page IndexPage) error {
	return indexTemplate.Execute(w, page)
}
