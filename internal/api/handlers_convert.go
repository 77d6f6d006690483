package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dgallion1/wordpub/internal/outline"
	"github.com/dgallion1/wordpub/internal/report"
)

// handleConvert runs the full conversion on an uploaded document. The
// default response is a JSON envelope with the XML and the anomaly list;
// format=xml returns the bare XML document.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}

	res, err := s.converter.Convert(r.Context(), data)
	if err != nil {
		jsonError(w, "conversion failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	id := uuid.NewString()
	w.Header().Set("X-Conversion-ID", id)

	if r.FormValue("format") == "xml" {
		w.Header().Set("Content-Type", "application/xml")
		w.Write(res.XML)
		return
	}

	anomalies := make([]map[string]string, 0, len(res.Anomalies))
	for _, a := range res.Anomalies {
		anomalies = append(anomalies, map[string]string{
			"kind":   string(a.Kind),
			"detail": a.Detail,
		})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"conversion_id": id,
		"filename":      filename,
		"stats":         res.Stats,
		"anomalies":     anomalies,
		"xml":           string(res.XML),
	})
}

// handleReport converts the upload and returns the HTML conversion report.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}

	res, err := s.converter.Convert(r.Context(), data)
	if err != nil {
		jsonError(w, "conversion failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}

	html, err := report.HTML(filename, res)
	if err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(html)
}

// handleOutline returns the heading outline without converting.
func (s *Server) handleOutline(w http.ResponseWriter, r *http.Request) {
	data, filename, ok := s.uploadedFile(w, r)
	if !ok {
		return
	}

	out, err := outline.Build(bytes.NewReader(data), filename, s.styles)
	if err != nil {
		jsonError(w, "outline failed: "+err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// uploadedFile reads the multipart "file" field, enforcing the configured
// upload limit. It writes the error response itself when ok is false.
func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) (data []byte, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "file is required: "+err.Error(), http.StatusBadRequest)
		return nil, "", false
	}
	defer file.Close()

	filename = sanitizeFilename(header.Filename)
	data, err = io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return nil, "", false
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return nil, "", false
	}
	return data, filename, true
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
