package api

import (
	"net/http"
	"strconv"

	"github.com/dgallion1/qaindex/internal/document"
	"github.com/dgallion1/qaindex/internal/parser"
	"github.com/go-chi/chi/v5"
)

const previewRunes = 200

type documentSummary struct {
	Path     string   `json:"path"`
	Title    string   `json:"title"`
	Tags     []string `json:"tags,omitempty"`
	Hash     string   `json:"hash"`
	Sections int      `json:"sections"`
	Warnings []string `json:"warnings,omitempty"`
}

type codeBlockView struct {
	Lang         string `json:"lang"`
	Info         string `json:"info,omitempty"`
	Code         string `json:"code"`
	Line         int    `json:"line"`
	Unterminated bool   `json:"unterminated,omitempty"`
}

type sectionView struct {
	ID         int             `json:"id"`
	Path       string          `json:"path"`
	Title      string          `json:"title"`
	Level      int             `json:"level"`
	Heading    string          `json:"heading"`
	Breadcrumb []string        `json:"breadcrumb"`
	Line       int             `json:"line"`
	Body       string          `json:"body"`
	HTML       string          `json:"html"`
	Preview    string          `json:"preview"`
	CodeBlocks []codeBlockView `json:"code_blocks"`
	Malformed  bool            `json:"malformed"`
	Warnings   []string        `json:"warnings,omitempty"`
}

// handleListDocuments lists the documents of the live corpus.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs := s.corpus.Documents()
	out := make([]documentSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, documentSummary{
			Path:     d.Path,
			Title:    d.Title,
			Tags:     d.Tags,
			Hash:     d.Hash,
			Sections: len(d.Sections),
			Warnings: d.Warnings,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

// handleGetSection returns one section with its rendered body.
func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 0 {
		jsonError(w, "section id must be a non-negative integer", http.StatusBadRequest)
		return
	}

	sec, doc, ok := s.corpus.Section(id)
	if !ok {
		jsonError(w, "section not found", http.StatusNotFound)
		return
	}

	view, err := newSectionView(sec, doc)
	if err != nil {
		s.log.Error("render section", "id", id, "error", err)
		jsonError(w, "failed to render section", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func newSectionView(sec *document.Section, doc *document.Document) (sectionView, error) {
	html, err := parser.RenderHTML(sec.Body)
	if err != nil {
		return sectionView{}, err
	}
	preview, err := parser.Preview(sec.Body, previewRunes)
	if err != nil {
		return sectionView{}, err
	}

	blocks := make([]codeBlockView, 0, len(sec.CodeBlocks))
	for _, cb := range sec.CodeBlocks {
		blocks = append(blocks, codeBlockView{
			Lang:         cb.Lang,
			Info:         cb.Info,
			Code:         cb.Code,
			Line:         cb.Line,
			Unterminated: cb.Unterminated,
		})
	}
	breadcrumb := sec.Breadcrumb
	if breadcrumb == nil {
		breadcrumb = []string{}
	}

	return sectionView{
		ID:         sec.ID,
		Path:       doc.Path,
		Title:      doc.Title,
		Level:      sec.Level,
		Heading:    sec.Heading,
		Breadcrumb: breadcrumb,
		Line:       sec.Line,
		Body:       sec.Body,
		HTML:       html,
		Preview:    preview,
		CodeBlocks: blocks,
		Malformed:  sec.Malformed,
		Warnings:   sec.Warnings,
	}, nil
}
