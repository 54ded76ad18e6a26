package httpapi

import (
	"errors"
	"io"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/booklending/catalog"
)

const (
	headerContentType = "Content-Type"
	contentTypeJSON   = "application/json"
	maxRequestBytes   = 1 << 20
)

var wire = jsoniter.ConfigCompatibleWithStandardLibrary

type recordDTO struct {
	ID       int64  `json:"id,omitempty"`
	Title    string `json:"title"`
	Author   string `json:"author"`
	ISBN     string `json:"isbn"`
	CoverURL string `json:"coverUrl"`
	Status   string `json:"status"`
}

type pageDTO struct {
	Content       []recordDTO `json:"content"`
	TotalElements int64       `json:"totalElements"`
	TotalPages    int         `json:"totalPages"`
	Last          bool        `json:"last"`
	Size          int         `json:"size"`
	Number        int         `json:"number"`
}

type credentialsDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type newUserDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type userDTO struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

type errorDTO struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func toRecordDTO(r catalog.Record) recordDTO {
	return recordDTO{
		ID:       r.ID,
		Title:    r.Title,
		Author:   r.Author,
		ISBN:     r.ISBN,
		CoverURL: r.CoverURL,
		Status:   r.Status.String(),
	}
}

func toPageDTO(p catalog.Page) pageDTO {
	content := make([]recordDTO, 0, len(p.Content))
	for _, r := range p.Content {
		content = append(content, toRecordDTO(r))
	}

	return pageDTO{
		Content:       content,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Last:          p.Last,
		Size:          p.Size,
		Number:        p.Number,
	}
}

// toDraft converts a request body. An empty status means the default.
func (d recordDTO) toDraft() (catalog.Draft, error) {
	draft := catalog.Draft{
		Title:    d.Title,
		Author:   d.Author,
		ISBN:     d.ISBN,
		CoverURL: d.CoverURL,
	}

	if d.Status == "" {
		return draft, nil
	}

	status, err := catalog.ParseStatus(d.Status)
	if err != nil {
		return catalog.Draft{}, errors.Join(catalog.ErrValidation, err)
	}

	draft.Status = status

	return draft, nil
}

func decodeBody(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		return errors.Join(errBadRequest, err)
	}

	if err = wire.Unmarshal(body, v); err != nil {
		return errors.Join(errBadRequest, err)
	}

	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	body, err := wire.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(code)
	_, _ = w.Write(body)
}
