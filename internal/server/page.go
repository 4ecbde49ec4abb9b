package server

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed page.html
var pageHTML string

var pageTemplate = template.Must(template.New("page").Parse(pageHTML))

type pageData struct {
	Name    string
	Owner   string
	Partner string
	Key     string
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	name := id.Name
	if name == "" {
		name = id.Owner
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Referrer-Policy", "no-referrer")
	if err := pageTemplate.Execute(w, pageData{
		Name:    name,
		Owner:   id.Owner,
		Partner: id.Partner,
		Key:     id.Key,
	}); err != nil {
		s.logger.Error("render page", "error", err)
	}
}
