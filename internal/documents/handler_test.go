package documents_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"procurement-backend/internal/bootstrap"
	"procurement-backend/internal/shared/config"
)

func buildApp(t *testing.T) (*bootstrap.App, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := config.Config{
		Port:            "0",
		CORSAllowOrigin: []string{"http://localhost:5173"},
		ObjectStoreType: "local",
		UploadDir:       dir,
		Env:             "dev",
	}
	app, err := bootstrap.Build(cfg)
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	return app, dir
}

func multipartBody(t *testing.T, filename, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	for k, v := range fields {
		if err := writer.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func doRequest(router *gin.Engine, req *http.Request, userID string, admin bool) *httptest.ResponseRecorder {
	req.Header.Set("X-User-Id", userID)
	if admin {
		req.Header.Set("X-Admin", "true")
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

type documentPayload struct {
	Document struct {
		ID               string   `json:"id"`
		UploadedBy       string   `json:"uploadedBy"`
		OriginalFilename string   `json:"originalFilename"`
		Status           string   `json:"status"`
		DocumentType     string   `json:"documentType"`
		AnalysisSummary  string   `json:"analysisSummary"`
		ExtractedText    string   `json:"extractedText"`
		Tags             []string `json:"tags"`
		Notes            string   `json:"notes"`
	} `json:"document"`
}

func decodeDocument(t *testing.T, resp *httptest.ResponseRecorder) documentPayload {
	t.Helper()
	var payload documentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return payload
}

func TestDocumentLifecycle(t *testing.T) {
	app, _ := buildApp(t)
	router := app.Router

	content := []byte("Statement of Work\n\nScope of Work:\nAcme Consulting LLC delivers by 2024-06-30 for $9,000.")
	body, contentType := multipartBody(t, "SOW_Phase1.doc", "application/msword", content, map[string]string{
		"notes": "phase one scope",
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := doRequest(router, req, "7", false)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	created := decodeDocument(t, resp)
	if created.Document.ID == "" {
		t.Fatalf("expected document id")
	}
	if created.Document.Status != "pending" {
		t.Fatalf("expected pending, got %q", created.Document.Status)
	}
	if created.Document.UploadedBy != "7" {
		t.Fatalf("owner not recorded: %q", created.Document.UploadedBy)
	}
	id := created.Document.ID

	// Classify.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+id+"/classify", nil)
	resp = doRequest(router, req, "7", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("classify: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	classified := decodeDocument(t, resp)
	if classified.Document.Status != "classified" {
		t.Fatalf("expected classified, got %q", classified.Document.Status)
	}
	if classified.Document.DocumentType != "sow" {
		t.Fatalf("expected sow, got %q", classified.Document.DocumentType)
	}

	// Analyze.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+id+"/analyze", nil)
	resp = doRequest(router, req, "7", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("analyze: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	analyzed := decodeDocument(t, resp)
	if analyzed.Document.Status != "ready" {
		t.Fatalf("expected ready, got %q", analyzed.Document.Status)
	}
	if analyzed.Document.AnalysisSummary == "" || analyzed.Document.ExtractedText == "" {
		t.Fatalf("analysis fields missing: %+v", analyzed.Document)
	}

	// Stream as owner.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id+"/stream", nil)
	resp = doRequest(router, req, "7", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("stream: expected 200, got %d", resp.Code)
	}
	if !bytes.Equal(resp.Body.Bytes(), content) {
		t.Fatalf("stream body mismatch")
	}
	if cd := resp.Header().Get("Content-Disposition"); !strings.HasPrefix(cd, "inline;") {
		t.Fatalf("expected inline disposition, got %q", cd)
	}
	if ct := resp.Header().Get("Content-Type"); ct != "application/msword" {
		t.Fatalf("unexpected content type %q", ct)
	}

	// Stream as another non-admin user.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id+"/stream", nil)
	resp = doRequest(router, req, "9", false)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-owner, got %d", resp.Code)
	}
	if bytes.Contains(resp.Body.Bytes(), content[:17]) {
		t.Fatalf("denied response leaked file bytes")
	}

	// Stream as admin.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id+"/stream", nil)
	resp = doRequest(router, req, "1", true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin, got %d", resp.Code)
	}

	// Search finds it.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/search?q=acme", nil)
	resp = doRequest(router, req, "7", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("search: expected 200, got %d", resp.Code)
	}
	var searched struct {
		Documents []json.RawMessage `json:"documents"`
		Count     int               `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searched); err != nil {
		t.Fatalf("decode search: %v", err)
	}
	if searched.Count != 1 {
		t.Fatalf("expected one hit, got %d", searched.Count)
	}

	// Patch tags and notes.
	patch := strings.NewReader(`{"tags":["vendor","2024"],"notes":"reviewed"}`)
	req = httptest.NewRequest(http.MethodPatch, "/api/v1/documents/"+id, patch)
	req.Header.Set("Content-Type", "application/json")
	resp = doRequest(router, req, "7", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("patch: expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	patched := decodeDocument(t, resp)
	if len(patched.Document.Tags) != 2 || patched.Document.Notes != "reviewed" {
		t.Fatalf("patch not applied: %+v", patched.Document)
	}

	// Delete.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/documents/"+id, nil)
	resp = doRequest(router, req, "7", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", resp.Code)
	}
	req = httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+id, nil)
	resp = doRequest(router, req, "7", false)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.Code)
	}
}

func TestUploadRejectsDisallowedMime(t *testing.T) {
	app, dir := buildApp(t)

	body, contentType := multipartBody(t, "notes.txt", "text/plain", []byte("plain text"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := doRequest(app.Router, req, "7", false)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if envelope.Error.Code != "validation_error" {
		t.Fatalf("expected validation_error, got %q", envelope.Error.Code)
	}

	// No orphaned object in the store.
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			t.Fatalf("unexpected stored object %s", filepath.Join(dir, e.Name()))
		}
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	app, _ := buildApp(t)

	big := bytes.Repeat([]byte("a"), (20<<20)+1)
	body, contentType := multipartBody(t, "big.doc", "application/msword", big, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := doRequest(app.Router, req, "7", false)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "File size exceeds 20MB limit") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}

func TestPatchWithoutFields(t *testing.T) {
	app, _ := buildApp(t)

	body, contentType := multipartBody(t, "doc.doc", "application/msword", []byte("body text here"), nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	resp := doRequest(app.Router, req, "7", false)
	if resp.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d", resp.Code)
	}
	id := decodeDocument(t, resp).Document.ID

	req = httptest.NewRequest(http.MethodPatch, "/api/v1/documents/"+id, strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	resp = doRequest(app.Router, req, "7", false)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty patch, got %d", resp.Code)
	}
}

func TestMissingIdentityRejected(t *testing.T) {
	app, _ := buildApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without identity, got %d", resp.Code)
	}
}

func TestListPaginationAndTotalCount(t *testing.T) {
	app, _ := buildApp(t)
	router := app.Router

	for i := 0; i < 3; i++ {
		body, contentType := multipartBody(t, "receipt.doc", "application/msword", []byte("expense receipt body"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
		req.Header.Set("Content-Type", contentType)
		resp := doRequest(router, req, "7", false)
		if resp.Code != http.StatusCreated {
			t.Fatalf("seed upload %d: %d", i, resp.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?limit=2", nil)
	resp := doRequest(router, req, "7", false)
	if resp.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", resp.Code)
	}
	if got := resp.Header().Get("X-Total-Count"); got != "3" {
		t.Fatalf("expected X-Total-Count 3, got %q", got)
	}
	var listed struct {
		Documents []json.RawMessage `json:"documents"`
		Total     int               `json:"total"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Documents) != 2 || listed.Total != 3 {
		t.Fatalf("unexpected page: %d of %d", len(listed.Documents), listed.Total)
	}
}
