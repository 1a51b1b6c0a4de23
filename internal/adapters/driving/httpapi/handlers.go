package httpapi

import (
	"encoding/base64"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Januuus/chatbot/internal/core/domain"
	"github.com/Januuus/chatbot/internal/core/ports/driving"
)

type handlers struct {
	documents   driving.DocumentService
	chat        driving.ChatService
	training    driving.TrainingService
	trainingDir string
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

type chatBody struct {
	Query          string `json:"query"`
	IncludeContext *bool  `json:"includeContext"`
	ImageID        string `json:"imageId"`
}

type chatUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type chatResponse struct {
	ID            string    `json:"id"`
	Response      string    `json:"response"`
	HasImage      bool      `json:"hasImage"`
	ContextChunks int       `json:"contextChunks"`
	Usage         chatUsage `json:"usage"`
}

func (h *handlers) chatQuery(c *fiber.Ctx) error {
	req := driving.ChatRequest{IncludeContext: true}

	if isMultipart(c) {
		req.Query = c.FormValue("query")
		req.ImageID = c.FormValue("imageId")
		if v := c.FormValue("includeContext"); v != "" {
			req.IncludeContext = parseBool(v, true)
		}

		if fh, err := c.FormFile("image"); err == nil {
			upload, err := readUpload(fh)
			if err != nil {
				return err
			}
			if err := h.documents.Validate(upload); err != nil {
				return err
			}
			if domain.ParseMediaKind(upload.MimeType) != domain.MediaImage {
				return fiber.NewError(fiber.StatusUnsupportedMediaType, "image must be a JPEG, PNG, WebP or GIF file")
			}
			req.Image = &domain.ImageData{
				MimeType: upload.MimeType,
				Base64:   encodeBase64(upload.Data),
			}
		}

		if fh, err := c.FormFile("document"); err == nil {
			upload, err := readUpload(fh)
			if err != nil {
				return err
			}
			req.Attachment = upload
		}
	} else {
		var body chatBody
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		req.Query = body.Query
		req.ImageID = body.ImageID
		if body.IncludeContext != nil {
			req.IncludeContext = *body.IncludeContext
		}
	}

	result, err := h.chat.ProcessQuery(c.UserContext(), req)
	if err != nil {
		return err
	}

	return c.JSON(chatResponse{
		ID:            result.ConversationID,
		Response:      result.Response,
		HasImage:      result.HasImage,
		ContextChunks: result.ContextChunks,
		Usage: chatUsage{
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
		},
	})
}

func (h *handlers) uploadDocument(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "No file uploaded")
	}
	upload, err := readUpload(fh)
	if err != nil {
		return err
	}

	result, err := h.documents.Ingest(c.UserContext(), upload, driving.IngestOptions{
		IsReference: parseBool(c.FormValue("isReference"), false),
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":       result.Document.ID,
		"filename": result.Document.Filename,
		"chunks":   len(result.Chunks),
	})
}

func (h *handlers) searchDocuments(c *fiber.Ctx) error {
	term := strings.TrimSpace(c.Query("query"))
	if term == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Search query is required")
	}

	docs, err := h.documents.Search(c.UserContext(), term, c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	if docs == nil {
		docs = []domain.DocumentSummary{}
	}
	return c.JSON(docs)
}

type chunkResponse struct {
	ID       string               `json:"id"`
	Index    int                  `json:"index"`
	Content  string               `json:"content"`
	Metadata domain.ChunkMetadata `json:"metadata"`
}

type documentResponse struct {
	ID          string          `json:"id"`
	Filename    string          `json:"filename"`
	MimeType    string          `json:"mimeType"`
	FileSize    int64           `json:"fileSize"`
	IsReference bool            `json:"isReference"`
	Content     string          `json:"content"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
	Chunks      []chunkResponse `json:"chunks"`
}

func (h *handlers) getDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	doc, err := h.documents.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	chunks, err := h.documents.Chunks(c.UserContext(), id)
	if err != nil {
		return err
	}

	resp := documentResponse{
		ID:          doc.ID,
		Filename:    doc.Filename,
		MimeType:    doc.MimeType,
		FileSize:    doc.FileSize,
		IsReference: doc.IsReference,
		Content:     doc.Content,
		CreatedAt:   doc.CreatedAt,
		UpdatedAt:   doc.UpdatedAt,
		Chunks:      make([]chunkResponse, 0, len(chunks)),
	}
	for _, ch := range chunks {
		resp.Chunks = append(resp.Chunks, chunkResponse{
			ID:       ch.ID,
			Index:    ch.Index,
			Content:  ch.Content,
			Metadata: ch.Metadata,
		})
	}
	return c.JSON(resp)
}

func (h *handlers) deleteDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.documents.Delete(c.UserContext(), id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"id": id, "deleted": true})
}

func (h *handlers) conversations(c *fiber.Ctx) error {
	convs, err := h.chat.History(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return err
	}
	if convs == nil {
		convs = []domain.Conversation{}
	}
	return c.JSON(convs)
}

type trainingResult struct {
	Filename   string `json:"filename"`
	Status     string `json:"status"`
	DocumentID string `json:"documentId,omitempty"`
	Chunks     int    `json:"chunks"`
	Error      string `json:"error,omitempty"`
}

func (h *handlers) processTraining(c *fiber.Ctx) error {
	results, err := h.training.ProcessDirectory(c.UserContext(), h.trainingDir)
	if err != nil {
		return err
	}

	out := make([]trainingResult, 0, len(results))
	for _, r := range results {
		tr := trainingResult{
			Filename:   r.Filename,
			Status:     "success",
			DocumentID: r.DocumentID,
			Chunks:     r.Chunks,
		}
		if !r.OK() {
			tr.Status = "error"
			tr.Error = r.Err.Error()
		}
		out = append(out, tr)
	}
	return c.JSON(fiber.Map{"results": out})
}

func isMultipart(c *fiber.Ctx) bool {
	return strings.HasPrefix(strings.ToLower(c.Get(fiber.HeaderContentType)), fiber.MIMEMultipartForm)
}

func parseBool(v string, fallback bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return b
}

// readUpload reads a multipart file into memory. The MIME type comes from
// the part header, falling back to the filename extension.
func readUpload(fh *multipart.FileHeader) (*domain.Upload, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, errors.Join(fiber.NewError(fiber.StatusBadRequest, "Unable to read uploaded file"), err)
	}

	return &domain.Upload{
		Filename: filepath.Base(fh.Filename),
		MimeType: uploadMIME(fh),
		Size:     fh.Size,
		Data:     data,
	}, nil
}

func uploadMIME(fh *multipart.FileHeader) string {
	ct := strings.TrimSpace(fh.Header.Get(fiber.HeaderContentType))
	if ct != "" && !strings.HasPrefix(ct, fiber.MIMEOctetStream) {
		return ct
	}
	if mt := domain.MIMETypeForPath(fh.Filename); mt != "" {
		return mt
	}
	if mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(fh.Filename))); mt != "" {
		return mt
	}
	return ct
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}
