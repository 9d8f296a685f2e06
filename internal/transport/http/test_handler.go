package http

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quiz-testing-service/internal/app"
	"quiz-testing-service/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/jinzhu/copier"
)

const maxCSVUpload = 5 << 20

type TestHandler struct {
	catalog *app.CatalogService
}

func NewTestHandler(catalog *app.CatalogService) *TestHandler {
	return &TestHandler{catalog: catalog}
}

type questionRequest struct {
	QuestionNo    int       `json:"questionNo" validate:"required,min=1"`
	Question      string    `json:"question" validate:"required"`
	Options       [4]string `json:"options" validate:"dive,required"`
	CorrectOption int       `json:"correctOption" validate:"required,min=1,max=4"`
}

type createTestRequest struct {
	Title       string            `json:"title" validate:"required,max=200"`
	Description string            `json:"description" validate:"required"`
	TimeLimit   int               `json:"timeLimit" validate:"required,gt=0"`
	Questions   []questionRequest `json:"questions" validate:"required,min=1,dive"`
}

type questionResponse struct {
	ID         string    `json:"id"`
	QuestionNo int       `json:"questionNo"`
	Text       string    `json:"question"`
	Options    [4]string `json:"options"`
	Answer     *int      `json:"correctOption,omitempty"`
}

type testResponse struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	TimeLimit   int                `json:"timeLimit"`
	CreatedBy   string             `json:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt"`
	Questions   []questionResponse `json:"questions"`
}

type importResponse struct {
	Test   testResponse `json:"test"`
	Report interface{}  `json:"report"`
}

// toTestResponse reveals correct options to admins only.
func toTestResponse(test domain.Test, admin bool) (testResponse, error) {
	var resp testResponse
	if err := copier.Copy(&resp, &test); err != nil {
		return testResponse{}, err
	}
	if resp.Questions == nil {
		resp.Questions = []questionResponse{}
	}
	if admin {
		for i := range resp.Questions {
			correct := test.Questions[i].CorrectOption
			resp.Questions[i].Answer = &correct
		}
	}
	return resp, nil
}

func (h *TestHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	tests, err := h.catalog.List(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	out := make([]testResponse, 0, len(tests))
	for _, t := range tests {
		resp, err := toTestResponse(t, id.Admin)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out = append(out, resp)
	}
	writeOK(w, r, http.StatusOK, out)
}

func (h *TestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	test, err := h.catalog.Get(r.Context(), chi.URLParam(r, "testID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := toTestResponse(test, id.Admin)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, resp)
}

func (h *TestHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	var req createTestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	in := app.CreateTestInput{
		Title:       req.Title,
		Description: req.Description,
		TimeLimit:   req.TimeLimit,
		CreatedBy:   id.UserID,
	}
	for _, q := range req.Questions {
		in.Questions = append(in.Questions, app.QuestionInput{
			QuestionNo:    q.QuestionNo,
			Text:          q.Question,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
		})
	}
	test, err := h.catalog.Create(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp, err := toTestResponse(test, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, resp)
}

func (h *TestHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.catalog.Delete(r.Context(), chi.URLParam(r, "testID")); err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusOK, map[string]bool{"deleted": true})
}

// Import accepts the question CSV either as the raw body or as the "file"
// part of a multipart form. Test fields come from query or form values.
func (h *TestHandler) Import(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, maxCSVUpload)

	var body io.Reader = r.Body
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		file, _, err := r.FormFile("file")
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFail(w, r, http.StatusRequestEntityTooLarge, domain.KindInvalidArgument.String(), "csv upload too large", nil)
			return
		}
		if err != nil {
			writeFail(w, r, http.StatusBadRequest, domain.KindInvalidArgument.String(), "missing csv file part", nil)
			return
		}
		defer file.Close()
		body = file
	}

	timeLimit, err := strconv.Atoi(strings.TrimSpace(r.FormValue("timeLimit")))
	if err != nil {
		writeFail(w, r, http.StatusBadRequest, domain.KindInvalidArgument.String(), "timeLimit must be an integer", nil)
		return
	}

	test, report, err := h.catalog.Import(r.Context(), app.ImportInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		TimeLimit:   timeLimit,
		CreatedBy:   id.UserID,
		CSV:         body,
	})
	if err != nil {
		var data interface{}
		if report != nil {
			data = report
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeFail(w, r, http.StatusRequestEntityTooLarge, domain.KindInvalidArgument.String(), "csv upload too large", nil)
			return
		}
		writeErrorWithData(w, r, err, data)
		return
	}

	resp, err := toTestResponse(test, true)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, http.StatusCreated, importResponse{Test: resp, Report: report})
}
