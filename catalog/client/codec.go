package client

import (
	"errors"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/AntonStoeckl/booklending/catalog"
)

var wire = jsoniter.ConfigCompatibleWithStandardLibrary

// recordDTO is the wire shape of a book. Status is kept as a string so that a single unknown value
// can be rejected per record instead of failing the whole page.
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

type errorDTO struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (d recordDTO) toRecord() (catalog.Record, error) {
	status, err := catalog.ParseStatus(d.Status)
	if err != nil {
		return catalog.Record{}, err
	}

	return catalog.Record{
		ID:       d.ID,
		Title:    d.Title,
		Author:   d.Author,
		ISBN:     d.ISBN,
		CoverURL: d.CoverURL,
		Status:   status,
	}, nil
}

func recordToDTO(r catalog.Record) recordDTO {
	return recordDTO{
		ID:       r.ID,
		Title:    r.Title,
		Author:   r.Author,
		ISBN:     r.ISBN,
		CoverURL: r.CoverURL,
		Status:   r.Status.String(),
	}
}

func draftToDTO(d catalog.Draft) recordDTO {
	status := d.Status
	if !status.IsValid() {
		status = catalog.StatusAvailable
	}

	return recordDTO{
		Title:    d.Title,
		Author:   d.Author,
		ISBN:     d.ISBN,
		CoverURL: d.CoverURL,
		Status:   status.String(),
	}
}

func decodeRecord(body []byte) (catalog.Record, error) {
	var dto recordDTO
	if err := wire.Unmarshal(body, &dto); err != nil {
		return catalog.Record{}, errors.Join(catalog.ErrTransport, ErrDecodingResponseFailed, err)
	}

	record, err := dto.toRecord()
	if err != nil {
		return catalog.Record{}, errors.Join(catalog.ErrTransport, err)
	}

	return record, nil
}

// decodePage decodes a list response. Records with an unknown status are skipped
// and returned separately so the caller can log them.
func decodePage(body []byte) (catalog.Page, []recordDTO, error) {
	var dto pageDTO
	if err := wire.Unmarshal(body, &dto); err != nil {
		return catalog.Page{}, nil, errors.Join(catalog.ErrTransport, ErrDecodingResponseFailed, err)
	}

	page := catalog.Page{
		Content:       make(catalog.Records, 0, len(dto.Content)),
		TotalElements: dto.TotalElements,
		TotalPages:    dto.TotalPages,
		Last:          dto.Last,
		Size:          dto.Size,
		Number:        dto.Number,
	}

	var rejected []recordDTO

	for _, raw := range dto.Content {
		record, err := raw.toRecord()
		if err != nil {
			rejected = append(rejected, raw)
			continue
		}

		page.Content = append(page.Content, record)
	}

	return page, rejected, nil
}

// decodeErrorMessage extracts a human-readable message from an error body.
// Bodies may be JSON ({"message": ...} or {"error": ...}) or plain text.
func decodeErrorMessage(body []byte) string {
	var dto errorDTO
	if err := wire.Unmarshal(body, &dto); err == nil {
		if dto.Message != "" {
			return dto.Message
		}

		if dto.Error != "" {
			return dto.Error
		}
	}

	return strings.TrimSpace(string(body))
}
