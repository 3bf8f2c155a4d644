package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"filesystem-api/internal/config"
	"filesystem-api/internal/database"
	"filesystem-api/internal/models"
	"filesystem-api/internal/requests"
	"filesystem-api/internal/services"
	"filesystem-api/internal/storage"
	"filesystem-api/internal/utils"

	"github.com/gofiber/fiber/v2"
	pkgConfig "github.com/kerimovok/go-pkg-utils/config"
	"github.com/kerimovok/go-pkg-utils/httpx"
	"github.com/kerimovok/go-pkg-utils/validator"
	"gorm.io/gorm"
)

// FileHandler handles file-related HTTP requests
type FileHandler struct {
	fileService *services.FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler() *FileHandler {
	return &FileHandler{
		fileService: services.NewFileService(
			database.DB,
			storage.Disks,
			config.GetConfig().Storage,
			pkgConfig.GetEnv("GO_ENV"),
		),
	}
}

// UploadFile ingests either a binary file part or one or more URL strings.
func (h *FileHandler) UploadFile(c *fiber.Ctx) error {
	if file, err := c.FormFile("file"); err == nil && file != nil {
		return h.uploadBinary(c, file)
	}
	return h.uploadURLs(c)
}

func (h *FileHandler) uploadBinary(c *fiber.Ctx, file *multipart.FileHeader) error {
	var settings requests.UploadSettings
	if raw := c.FormValue("settings"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &settings); err != nil {
			response := httpx.BadRequest("Invalid settings", err)
			return httpx.SendResponse(c, response)
		}
	}
	if err := validator.ValidateStruct(&settings); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}
	if err := h.validateUpload(file); err != nil {
		response := httpx.BadRequest("File validation failed", err)
		return httpx.SendResponse(c, response)
	}

	created, err := h.fileService.Store(file, "", toStoreSettings(settings))
	if err != nil {
		response := httpx.InternalServerError("Failed to process file upload", err)
		return httpx.SendResponse(c, response)
	}
	if created == nil {
		response := httpx.BadRequest("Unsupported upload content", nil)
		return httpx.SendResponse(c, response)
	}

	response := httpx.Created("File uploaded successfully", h.present(created))
	return httpx.SendResponse(c, response)
}

func (h *FileHandler) uploadURLs(c *fiber.Ctx) error {
	var input requests.UploadFileRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}
	if input.URL != "" {
		input.URLs = append(input.URLs, input.URL)
	}
	if len(input.URLs) == 0 {
		response := httpx.BadRequest("No file or url provided", nil)
		return httpx.SendResponse(c, response)
	}
	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	created := make([]models.FileResponse, 0, len(input.URLs))
	for _, rawURL := range input.URLs {
		if strings.TrimSpace(rawURL) == "" {
			continue
		}
		file, err := h.fileService.Store(nil, rawURL, toStoreSettings(input.Settings))
		if err != nil {
			response := httpx.InternalServerError("Failed to process url", err)
			return httpx.SendResponse(c, response)
		}
		if file == nil {
			response := httpx.BadRequest(fmt.Sprintf("Unsupported url: %s", rawURL), nil)
			return httpx.SendResponse(c, response)
		}
		created = append(created, h.present(file))
	}

	response := httpx.Created("Files created successfully", created)
	return httpx.SendResponse(c, response)
}

func toStoreSettings(settings requests.UploadSettings) services.StoreSettings {
	out := services.StoreSettings{
		Path:       settings.Path,
		Visibility: settings.Visibility,
	}
	if opt := settings.Optimization; opt != nil {
		out.SkipOptimization = opt.Disabled
		out.Optimization = services.OptimizerOverrides{
			Width:   opt.Width,
			Height:  opt.Height,
			Quality: opt.Quality,
			Webp:    opt.Webp,
		}
	}
	return out
}

// validateUpload enforces the configured size and extension limits.
func (h *FileHandler) validateUpload(file *multipart.FileHeader) error {
	cfg := config.GetConfig().Storage.Upload

	if file.Size > cfg.MaxFileSize {
		return fmt.Errorf("file size exceeds maximum allowed size of %d bytes", cfg.MaxFileSize)
	}

	ext := utils.FileExtension(file.Filename)
	if ext == "" {
		return errors.New("file must have a valid extension")
	}
	for _, blocked := range cfg.BlockedExtensions {
		if ext == blocked {
			return fmt.Errorf("file type .%s is not allowed", ext)
		}
	}
	return nil
}

func (h *FileHandler) present(file *models.File) models.FileResponse {
	store, _ := storage.Disks.Disk(file.Disk)
	return file.Response(store)
}

// GetFile retrieves file information
func (h *FileHandler) GetFile(c *fiber.Ctx) error {
	var file models.File
	if err := database.DB.First(&file, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response := httpx.NotFound("File not found")
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to fetch file", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("File retrieved successfully", h.present(&file))
	return httpx.SendResponse(c, response)
}

// DownloadFile streams a locally stored file; entities stored elsewhere
// redirect to their resolved endpoint.
func (h *FileHandler) DownloadFile(c *fiber.Ctx) error {
	var file models.File
	if err := database.DB.First(&file, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response := httpx.NotFound("File not found")
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to fetch file", err)
		return httpx.SendResponse(c, response)
	}

	if file.Disk == "local" && file.Path != "" {
		store, err := storage.Disks.Disk("local")
		if err != nil {
			response := httpx.InternalServerError("Failed to resolve disk", err)
			return httpx.SendResponse(c, response)
		}
		local := store.(*storage.LocalStore)
		return c.Download(local.AbsolutePath(file.Path), file.Name)
	}

	endpoint := file.Endpoint(nil, false, false)
	if endpoint == models.Endpoint404 {
		response := httpx.NotFound("File has no downloadable content")
		return httpx.SendResponse(c, response)
	}
	return c.Redirect(endpoint, fiber.StatusFound)
}

// UpdateFile updates file metadata
func (h *FileHandler) UpdateFile(c *fiber.Ctx) error {
	var input requests.UpdateFileRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}
	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	var file models.File
	if err := database.DB.First(&file, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response := httpx.NotFound("File not found")
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to fetch file", err)
		return httpx.SendResponse(c, response)
	}

	updates := make(map[string]interface{})
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Alt != nil {
		updates["alt"] = *input.Alt
	}
	if input.Description != nil {
		file.Data.Description = *input.Description
		updates["data"] = file.Data
	}

	if len(updates) > 0 {
		if err := database.DB.Model(&file).Updates(updates).Error; err != nil {
			response := httpx.InternalServerError("Failed to update file", err)
			return httpx.SendResponse(c, response)
		}
	}

	if input.Visibility != nil && *input.Visibility != file.Visibility {
		if err := h.fileService.SetVisibility(&file, *input.Visibility); err != nil {
			response := httpx.InternalServerError("Failed to set visibility", err)
			return httpx.SendResponse(c, response)
		}
	}

	response := httpx.OK("File updated successfully", h.present(&file))
	return httpx.SendResponse(c, response)
}

// DeleteFile deletes a file and its storage objects
func (h *FileHandler) DeleteFile(c *fiber.Ctx) error {
	var file models.File
	if err := database.DB.First(&file, "id = ?", c.Params("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response := httpx.NotFound("File not found")
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to fetch file", err)
		return httpx.SendResponse(c, response)
	}

	if err := h.fileService.Delete(&file); err != nil {
		if errors.Is(err, services.ErrProductionDelete) {
			response := httpx.BadRequest("Production files cannot be deleted from this environment", err)
			return httpx.SendResponse(c, response)
		}
		response := httpx.InternalServerError("Failed to delete file", err)
		return httpx.SendResponse(c, response)
	}

	response := httpx.OK("File deleted successfully", nil)
	return httpx.SendResponse(c, response)
}

// SearchFiles searches for files based on criteria
func (h *FileHandler) SearchFiles(c *fiber.Ctx) error {
	var input requests.FileSearchRequest
	if err := c.QueryParser(&input); err != nil {
		response := httpx.BadRequest("Invalid query parameters", err)
		return httpx.SendResponse(c, response)
	}
	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	// Set defaults
	if input.Page <= 0 {
		input.Page = 1
	}
	if input.Limit <= 0 {
		input.Limit = 20
	}
	if input.SortBy == "" {
		input.SortBy = "created_at"
	}
	if input.SortOrder == "" {
		input.SortOrder = "desc"
	}

	query := database.DB.Model(&models.File{})

	if input.Query != "" {
		query = query.Where("name LIKE ?", "%"+input.Query+"%")
	}
	query = applyMimeFilter(query, input.Mime)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		response := httpx.InternalServerError("Failed to count files", err)
		return httpx.SendResponse(c, response)
	}

	offset := (input.Page - 1) * input.Limit
	query = query.Order(input.SortBy + " " + input.SortOrder).
		Offset(offset).
		Limit(input.Limit)

	var files []models.File
	if err := query.Find(&files).Error; err != nil {
		response := httpx.InternalServerError("Failed to fetch files", err)
		return httpx.SendResponse(c, response)
	}

	items := make([]models.FileResponse, 0, len(files))
	for i := range files {
		items = append(items, h.present(&files[i]))
	}

	result := map[string]interface{}{
		"files": items,
		"pagination": map[string]interface{}{
			"page":       input.Page,
			"limit":      input.Limit,
			"total":      total,
			"totalPages": (total + int64(input.Limit) - 1) / int64(input.Limit),
		},
	}

	response := httpx.OK("Files retrieved successfully", result)
	return httpx.SendResponse(c, response)
}

// applyMimeFilter narrows a query to a comma-separated list of MIME patterns.
// The pseudo-value "file" selects everything that is not media.
func applyMimeFilter(query *gorm.DB, mime string) *gorm.DB {
	if mime == "" {
		return query
	}

	session := query.Session(&gorm.Session{})
	filter := session
	first := true
	for _, value := range strings.Split(mime, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}

		var clause *gorm.DB
		if value == "file" {
			clause = session.
				Where("mime NOT LIKE ?", "image/%").
				Where("mime NOT LIKE ?", "video/%").
				Where("mime NOT LIKE ?", "audio/%").
				Where("mime <> ?", models.MimeYoutube)
		} else {
			clause = session.Where("mime LIKE ?", strings.ReplaceAll(value, "*", "%"))
		}

		if first {
			filter = clause
			first = false
		} else {
			filter = filter.Or(clause)
		}
	}
	if first {
		return query
	}
	return query.Where(filter)
}
