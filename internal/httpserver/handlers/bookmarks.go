package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/cuemark/internal/domain"
	"github.com/MrSnakeDoc/cuemark/internal/httpserver/deps"
	"github.com/MrSnakeDoc/cuemark/internal/session"
)

type bookmarkItem struct {
	Number    int                 `json:"number"`
	ID        string              `json:"id"`
	File      string              `json:"file"`
	Filename  string              `json:"filename"`
	TimeMs    int                 `json:"time_ms"`
	Clock     string              `json:"clock"`
	Name      string              `json:"name"`
	Type      domain.BookmarkType `json:"type"`
	Timestamp string              `json:"timestamp"`
}

type bookmarkGroup struct {
	Filename  string         `json:"filename"`
	Bookmarks []bookmarkItem `json:"bookmarks"`
}

type listResponse struct {
	Count  int             `json:"count"`
	Groups []bookmarkGroup `json:"groups"`
}

// ListBookmarks serves the published view grouped by file.
func ListBookmarks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view := d.Index.View()
		resp := listResponse{Count: view.Len(), Groups: []bookmarkGroup{}}

		for i, b := range view.Entries {
			if n := len(resp.Groups); n == 0 || resp.Groups[n-1].Filename != b.Filename {
				resp.Groups = append(resp.Groups, bookmarkGroup{Filename: b.Filename})
			}
			g := &resp.Groups[len(resp.Groups)-1]
			g.Bookmarks = append(g.Bookmarks, bookmarkItem{
				Number:    i + 1,
				ID:        b.StableID(),
				File:      b.File,
				Filename:  b.Filename,
				TimeMs:    b.TimeMs,
				Clock:     domain.FormatClock(b.TimeMs),
				Name:      b.Name,
				Type:      b.Type,
				Timestamp: b.Timestamp,
			})
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

type addRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// AddBookmark marks the current play head.
func AddBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addRequest
		dec := json.NewDecoder(io.LimitReader(r.Body, 64<<10))
		if err := dec.Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: invalid JSON body: %w", domain.ErrValidation, err))
			return
		}
		typ, err := domain.ParseBookmarkType(req.Type)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		dispatch(w, r, d, session.AddBookmark{Name: req.Name, Type: typ}, http.StatusCreated)
	}
}

// DeleteBookmark removes the entry with the given list number.
func DeleteBookmark(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := strconv.Atoi(chi.URLParam(r, "n"))
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("%w: bookmark number must be an integer", domain.ErrValidation))
			return
		}
		b, ok := d.Index.Bookmark(n)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("%w: no bookmark number %d", domain.ErrNotFound, n))
			return
		}
		dispatch(w, r, d, session.DeleteBookmark{Key: b.Key()}, http.StatusOK)
	}
}

// DeleteBookmarkByID removes the entry with the given stable id, so callers
// are not affected by renumbering between list and delete.
func DeleteBookmarkByID(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		b, _, ok := d.Index.Lookup(id)
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Errorf("%w: no bookmark with id %q", domain.ErrNotFound, id))
			return
		}
		dispatch(w, r, d, session.DeleteBookmark{Key: b.Key()}, http.StatusOK)
	}
}
