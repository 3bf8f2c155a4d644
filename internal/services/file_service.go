package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"filesystem-api/internal/config"
	"filesystem-api/internal/constants"
	"filesystem-api/internal/models"
	"filesystem-api/internal/storage"
	"filesystem-api/internal/utils"

	pkgErrors "github.com/kerimovok/go-pkg-utils/errors"
	"gorm.io/gorm"
)

// ErrProductionDelete guards production files on remote stores against
// deletion from another environment. Hard stop, never retried.
var ErrProductionDelete = errors.New("refusing to delete a production file from a non-production environment")

// defaultOEmbedURL is the third-party lookup used for best-effort YouTube
// metadata (title, thumbnail).
const defaultOEmbedURL = "https://noembed.com/embed"

// StoreSettings carries caller options for an ingestion call.
type StoreSettings struct {
	Path             string
	Visibility       string
	SkipOptimization bool
	Optimization     OptimizerOverrides
}

// FileService orchestrates ingestion, optimization and deletion of files.
type FileService struct {
	db    *gorm.DB
	disks *storage.Manager
	cfg   config.StorageConfig
	env   string

	// OEmbedBaseURL and Client are overridable for tests.
	OEmbedBaseURL string
	Client        *http.Client
}

// NewFileService creates a file service bound to a database, a store
// registry and the current execution environment.
func NewFileService(db *gorm.DB, disks *storage.Manager, cfg config.StorageConfig, env string) *FileService {
	return &FileService{
		db:            db,
		disks:         disks,
		cfg:           cfg,
		env:           env,
		OEmbedBaseURL: defaultOEmbedURL,
		Client:        &http.Client{Timeout: 15 * time.Second},
	}
}

// Store ingests exactly one piece of content. A URL string is tried as a
// YouTube reference first, then as a remote image; a binary upload goes to
// local/remote storage. Branches that do not match are silent no-ops; a nil
// entity with a nil error means nothing applied and the caller should report
// a validation failure.
func (s *FileService) Store(upload *multipart.FileHeader, rawURL string, settings StoreSettings) (*models.File, error) {
	if rawURL != "" {
		if file, err := s.StoreYoutube(rawURL); file != nil || err != nil {
			return file, err
		}
		return s.StoreImageURL(rawURL)
	}
	if upload != nil {
		return s.StoreUpload(upload, settings)
	}
	return nil, nil
}

// StoreYoutube persists a YouTube reference. The video id is extracted from
// the URL; title and thumbnail come from a best-effort oEmbed lookup that
// falls back to the bare id. This path never touches the storage gateway.
func (s *FileService) StoreYoutube(rawURL string) (*models.File, error) {
	vid := utils.YoutubeVideoID(rawURL)
	if vid == "" {
		return nil, nil
	}

	name := vid
	thumbnail := ""
	if info, err := s.youtubeInfo(rawURL); err == nil {
		if info.Title != "" {
			name = info.Title
		}
		thumbnail = info.ThumbnailURL
	}

	file := &models.File{
		ID:   models.NewID(),
		Name: name,
		Mime: models.MimeYoutube,
		URL:  rawURL,
		Data: models.FileData{
			Vid:       vid,
			Thumbnail: thumbnail,
			Embed:     "https://www.youtube.com/embed/" + vid,
		},
	}

	if err := s.db.Create(file).Error; err != nil {
		return nil, pkgErrors.InternalError("FILE_CREATE_ERROR", fmt.Sprintf("Failed to save youtube reference: %v", err))
	}
	return file, nil
}

type oembedInfo struct {
	Title        string `json:"title"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (s *FileService) youtubeInfo(rawURL string) (*oembedInfo, error) {
	endpoint := s.OEmbedBaseURL + "?dataType=json&url=" + url.QueryEscape(rawURL)
	resp, err := s.Client.Get(endpoint)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected oembed status %d", resp.StatusCode)
	}

	var info oembedInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

// StoreImageURL persists a remote image reference when the URL probes as a
// fetchable image. No bytes are stored locally; the entity keeps the URL.
func (s *FileService) StoreImageURL(rawURL string) (*models.File, error) {
	mime, width, height, ok := s.probeImageURL(rawURL)
	if !ok {
		return nil, nil
	}

	file := &models.File{
		ID:     models.NewID(),
		Name:   rawURL,
		Mime:   mime,
		URL:    rawURL,
		Width:  &width,
		Height: &height,
	}

	if err := s.db.Create(file).Error; err != nil {
		return nil, pkgErrors.InternalError("FILE_CREATE_ERROR", fmt.Sprintf("Failed to save image reference: %v", err))
	}
	return file, nil
}

func (s *FileService) probeImageURL(rawURL string) (mime string, width, height int, ok bool) {
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return "", 0, 0, false
	}

	resp, err := s.Client.Get(rawURL)
	if err != nil {
		return "", 0, 0, false
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", 0, 0, false
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 32*1024*1024))
	if err != nil {
		return "", 0, 0, false
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", 0, 0, false
	}
	return mimeForFormat(format), cfg.Width, cfg.Height, true
}

// StoreUpload persists a binary upload to the default backing store and
// triggers optimization for images. An upload with no readable content is a
// silent no-op so the orchestrator can try other branches.
func (s *FileService) StoreUpload(upload *multipart.FileHeader, settings StoreSettings) (*models.File, error) {
	tmpPath, err := s.spoolUpload(upload)
	if err != nil {
		return nil, nil
	}
	defer os.Remove(tmpPath)

	extension := utils.FileExtension(upload.Filename)
	mime := constants.ResolveMime(extension, upload.Header.Get("Content-Type"))
	kb := utils.RoundKB(upload.Size)

	var width, height *int
	if strings.HasPrefix(mime, "image/") {
		// Unreadable dimensions are tolerated; image entities may carry
		// null width/height.
		if data, err := os.ReadFile(tmpPath); err == nil {
			if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
				width, height = &cfg.Width, &cfg.Height
			}
		}
	}

	store, err := s.disks.Default()
	if err != nil {
		return nil, pkgErrors.InternalError("DISK_ERROR", err.Error())
	}

	visibility := settings.Visibility
	if visibility == "" {
		visibility = storage.VisibilityPublic
	}

	file := &models.File{
		ID:         models.NewID(),
		Name:       upload.Filename,
		Extension:  extension,
		Mime:       mime,
		KB:         kb,
		Disk:       store.Name(),
		Width:      width,
		Height:     height,
		Visibility: visibility,
		Env:        s.env,
	}
	if err := s.db.Create(file).Error; err != nil {
		return nil, pkgErrors.InternalError("FILE_CREATE_ERROR", fmt.Sprintf("Failed to save file record: %v", err))
	}

	saveAs := utils.RandomString(30) + "." + extension
	folder := utils.JoinPath(store.Folder(), settings.Path)

	storedPath, err := store.Put(folder, tmpPath, saveAs, visibility)
	if err != nil {
		return nil, pkgErrors.InternalError("FILE_STORE_ERROR", fmt.Sprintf("Failed to store file: %v", err))
	}

	file.Path = storedPath
	if storage.IsRemote(file.Disk) {
		// Remote URLs are computed eagerly; the local store resolves its
		// URL lazily from the disk path at read time.
		file.URL = store.URL(storedPath)
	}
	if err := s.db.Model(file).Updates(map[string]interface{}{"path": file.Path, "url": file.URL}).Error; err != nil {
		return nil, pkgErrors.InternalError("FILE_UPDATE_ERROR", fmt.Sprintf("Failed to update file record: %v", err))
	}

	if settings.SkipOptimization {
		return file, nil
	}
	return s.Optimize(file, settings.Optimization)
}

// spoolUpload copies the multipart part to a readable temp file.
func (s *FileService) spoolUpload(upload *multipart.FileHeader) (string, error) {
	src, err := upload.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "upload-*")
	if err != nil {
		return "", err
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", err
	}
	return tmp.Name(), nil
}

// Optimize produces and persists an optimized derivative for an image
// entity. Non-image entities pass through unchanged. Every failure inside
// derivative generation is swallowed: the entity stays valid without a
// derivative.
func (s *FileService) Optimize(file *models.File, overrides OptimizerOverrides) (*models.File, error) {
	if !file.IsImage() || file.Path == "" {
		return file, nil
	}

	store, err := s.disks.Disk(file.Disk)
	if err != nil {
		log.Printf("optimize %s: %v", file.ID, err)
		return file, nil
	}

	output, err := s.generateDerivative(file, store, overrides)
	if err != nil {
		log.Printf("optimize %s: %v", file.ID, err)
		return file, nil
	}
	if output == "" {
		return file, nil
	}
	// Scratch cleanup is unconditional, even when the push below fails.
	defer os.Remove(output)

	isWebp := strings.HasSuffix(output, "--webp.webp")
	extension := file.Extension
	if isWebp {
		extension = "webp"
	}

	// The derivative name must match what OptimizedPath reconstructs from
	// the flags: <base>--o.<ext> next to the source object.
	filename := file.Filename()
	if idx := strings.LastIndex(filename, "."); idx > 0 {
		filename = filename[:idx]
	}
	derivativeName := filename + models.OptimizedSuffix + "." + extension

	folder := path.Dir(file.Path)
	if folder == "." {
		folder = ""
	}

	// A previous run may have materialized a derivative with a different
	// extension; drop it so at most one derivative object ever exists.
	if stale := file.OptimizedPath(); stale != "" && !strings.HasSuffix(stale, "."+extension) {
		if err := store.Delete(stale); err != nil {
			log.Printf("optimize %s: failed to delete stale derivative: %v", file.ID, err)
		}
	}

	if _, err := store.Put(folder, output, derivativeName, file.Visibility); err != nil {
		log.Printf("optimize %s: failed to push derivative: %v", file.ID, err)
		return file, nil
	}

	file.IsResized = !isWebp
	file.IsConvertedToWebp = isWebp
	if err := s.db.Model(file).Updates(map[string]interface{}{
		"is_resized":           file.IsResized,
		"is_converted_to_webp": file.IsConvertedToWebp,
	}).Error; err != nil {
		log.Printf("optimize %s: failed to persist flags: %v", file.ID, err)
	}
	return file, nil
}

func (s *FileService) generateDerivative(file *models.File, store storage.Store, overrides OptimizerOverrides) (string, error) {
	// Local objects are read straight from disk; remote ones through their
	// resolved endpoint, bypassing the authorization predicate.
	source := file.Endpoint(store, true, false)
	if local, ok := store.(*storage.LocalStore); ok {
		source = local.AbsolutePath(file.Path)
	}

	defaults := OptimizerSettings{
		Width:   s.cfg.Optimization.Width,
		Height:  s.cfg.Optimization.Height,
		Quality: s.cfg.Optimization.Quality,
	}
	if s.cfg.Optimization.Webp != nil {
		defaults.Webp = *s.cfg.Optimization.Webp
	} else {
		defaults.Webp = true
	}

	optimizer, err := NewOptimizer(source, s.cfg.ScratchDir).Settings(defaults, overrides)
	if err != nil {
		return "", err
	}
	return optimizer.Optimize()
}

// Delete removes the entity and its storage objects. The derivative goes
// first, then the primary object; the row is removed only after storage
// cleanup succeeded so no object is ever orphaned without a record.
func (s *FileService) Delete(file *models.File) error {
	if err := s.guardProductionDelete(file); err != nil {
		return err
	}

	if file.Path != "" {
		store, err := s.disks.Disk(file.Disk)
		if err != nil {
			return pkgErrors.InternalError("DISK_ERROR", err.Error())
		}

		if derived := file.OptimizedPath(); derived != "" {
			if err := store.Delete(derived); err != nil {
				return pkgErrors.InternalError("FILE_DELETE_ERROR", fmt.Sprintf("Failed to delete derivative: %v", err))
			}
		}
		if err := store.Delete(file.Path); err != nil {
			return pkgErrors.InternalError("FILE_DELETE_ERROR", fmt.Sprintf("Failed to delete file: %v", err))
		}
	}

	if err := s.db.Delete(file).Error; err != nil {
		return pkgErrors.InternalError("FILE_DELETE_ERROR", fmt.Sprintf("Failed to delete file record: %v", err))
	}
	return nil
}

// guardProductionDelete blocks cross-environment deletion of production
// objects on remote stores. Entities without a stored path bypass the guard;
// there is nothing to delete.
func (s *FileService) guardProductionDelete(file *models.File) error {
	if !storage.IsRemote(file.Disk) {
		return nil
	}
	if file.Path == "" {
		return nil
	}
	if file.Env == "production" && s.env != "production" {
		return ErrProductionDelete
	}
	return nil
}

// SetVisibility updates the object ACL and the entity row. Local-disk files
// have no per-object ACL and pass through unchanged.
func (s *FileService) SetVisibility(file *models.File, visibility string) error {
	if file.Disk == "local" {
		return nil
	}

	store, err := s.disks.Disk(file.Disk)
	if err != nil {
		return pkgErrors.InternalError("DISK_ERROR", err.Error())
	}
	if err := store.SetVisibility(file.Path, visibility); err != nil {
		return pkgErrors.InternalError("VISIBILITY_ERROR", fmt.Sprintf("Failed to set visibility: %v", err))
	}

	file.Visibility = visibility
	return s.db.Model(file).Update("visibility", visibility).Error
}

// OptimizeAll optimizes every image entity that has no derivative yet, in
// ascending id order. Per-entity failures are swallowed by Optimize's
// failure policy, so the batch always runs to completion.
func (s *FileService) OptimizeAll(logf func(format string, args ...interface{})) error {
	var files []models.File
	err := s.db.
		Where("mime LIKE ?", "image/%").
		Where("is_resized = ?", false).
		Where("is_converted_to_webp = ?", false).
		Order("id asc").
		Find(&files).Error
	if err != nil {
		return err
	}

	for i := range files {
		logf("Optimizing %s...", files[i].Path)
		if _, err := s.Optimize(&files[i], OptimizerOverrides{}); err != nil {
			logf("optimize %s: %v", files[i].ID, err)
		}
	}
	return nil
}
