package controllers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/filebox/middleware"
	"github.com/cppla/filebox/models"
	"github.com/cppla/filebox/utils"
)

const (
	uploadField = "file"
	// room for multipart boundaries and part headers on top of the file ceiling
	multipartSlack = 1 << 20
	// parts larger than this spill to temp files while parsing
	multipartMemory = 8 << 20
)

// FileController serves upload, list, rename, delete and download of the caller's files.
type FileController struct {
	store           *models.FileStore
	policy          utils.UploadPolicy
	cache           *utils.Cache
	strictOwnership bool
}

// NewFileController creates a new FileController. cache may be nil.
// With strictOwnership, rename/delete that match no row answer 404 instead of 200.
func NewFileController(db *gorm.DB, policy utils.UploadPolicy, cache *utils.Cache, strictOwnership bool) *FileController {
	return &FileController{
		store:           models.NewFileStore(db),
		policy:          policy,
		cache:           cache,
		strictOwnership: strictOwnership,
	}
}

// listGenKey holds the user's list generation; every write bumps it.
func listGenKey(userID uint) string {
	return fmt.Sprintf("files:list:gen:%d", userID)
}

func listCacheKey(userID uint, gen int64) string {
	return fmt.Sprintf("files:list:%d:%d", userID, gen)
}

// Upload stores a single multipart file under the caller's directory and records its metadata.
func (f *FileController) Upload(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	fh, err := f.receive(ctx)
	if err != nil {
		fail(ctx, err)
		return
	}

	stored, err := f.policy.Save(fh, userID)
	if err != nil {
		if errors.Is(err, utils.ErrTooLarge) {
			fail(ctx, newError(ErrUpload, "Error uploading file: "+err.Error(), err))
			return
		}
		fail(ctx, newError(ErrUploadIO, "Error uploading file", err))
		return
	}

	record := models.File{
		UserID:   userID,
		FileName: filepath.Base(fh.Filename),
		FileSize: stored.Size,
		FileType: fh.Header.Get("Content-Type"),
		Path:     stored.RelPath,
	}
	if err := f.store.Create(ctx.Request.Context(), &record); err != nil {
		// compensate: the bytes must not outlive a failed insert
		if derr := f.policy.Discard(stored.RelPath); derr != nil {
			utils.Sugar.Errorw("orphaned file left on disk", "path", stored.AbsPath, "user_id", userID, "err", derr)
		}
		fail(ctx, newError(ErrMetadataPersist, "Error saving file info", err))
		return
	}

	f.cache.Bump(ctx.Request.Context(), listGenKey(userID))
	utils.Sugar.Infow("file uploaded", "user_id", userID, "file_id", record.FileID, "size", record.FileSize, "path", record.Path)
	ctx.JSON(http.StatusCreated, gin.H{"message": "File uploaded successfully", "file": record})
}

// receive parses the multipart body and returns the single file under uploadField.
func (f *FileController) receive(ctx *gin.Context) (*multipart.FileHeader, error) {
	if f.policy.MaxBytes > 0 {
		ctx.Request.Body = http.MaxBytesReader(ctx.Writer, ctx.Request.Body, f.policy.MaxBytes+multipartSlack)
	}

	if err := ctx.Request.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return nil, newError(ErrMissingFile, "No file provided", err)
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, newError(ErrUpload, "Error uploading file: "+utils.ErrTooLarge.Error(), err)
		}
		return nil, newError(ErrUpload, "Error uploading file: "+err.Error(), err)
	}

	form := ctx.Request.MultipartForm
	for field := range form.File {
		if field != uploadField {
			return nil, newError(ErrUpload, "Error uploading file: unexpected field "+strconv.Quote(field), nil)
		}
	}
	files := form.File[uploadField]
	switch len(files) {
	case 0:
		return nil, newError(ErrMissingFile, "No file provided", nil)
	case 1:
		return files[0], nil
	default:
		return nil, newError(ErrUpload, "Error uploading file: only one file is accepted", nil)
	}
}

// List returns the caller's files that are not soft-deleted.
func (f *FileController) List(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	// The generation is read before the store so a fill that races a write lands on a retired key.
	gen, cacheable := f.cache.Generation(ctx.Request.Context(), listGenKey(userID))
	var files []models.File
	if cacheable && f.cache.GetJSON(ctx.Request.Context(), listCacheKey(userID, gen), &files) {
		ctx.JSON(http.StatusOK, files)
		return
	}

	files, err := f.store.ListActive(ctx.Request.Context(), userID)
	if err != nil {
		fail(ctx, newError(ErrStoreQuery, "Error fetching files", err))
		return
	}
	if cacheable {
		f.cache.SetJSON(ctx.Request.Context(), listCacheKey(userID, gen), files)
	}
	ctx.JSON(http.StatusOK, files)
}

// Rename changes the display name of one of the caller's files. The new name is stored verbatim.
func (f *FileController) Rename(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var req struct {
		NewFileName *string `json:"newFileName" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		fail(ctx, newError(ErrBadRequest, "invalid request payload", err))
		return
	}

	var affected int64
	if fileID, ok := parseFileID(ctx); ok {
		n, err := f.store.Rename(ctx.Request.Context(), fileID, userID, *req.NewFileName)
		if err != nil {
			fail(ctx, newError(ErrStoreQuery, "Error renaming file", err))
			return
		}
		affected = n
	}
	if affected == 0 && f.strictOwnership {
		fail(ctx, newError(ErrNotFound, "File not found", nil))
		return
	}

	f.cache.Bump(ctx.Request.Context(), listGenKey(userID))
	utils.Message(ctx, http.StatusOK, "File renamed successfully")
}

// Delete soft-deletes one of the caller's files. Repeating it is harmless.
func (f *FileController) Delete(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	var affected int64
	if fileID, ok := parseFileID(ctx); ok {
		n, err := f.store.SoftDelete(ctx.Request.Context(), fileID, userID)
		if err != nil {
			fail(ctx, newError(ErrStoreQuery, "Error deleting file", err))
			return
		}
		affected = n
	}
	if affected == 0 && f.strictOwnership {
		fail(ctx, newError(ErrNotFound, "File not found", nil))
		return
	}

	f.cache.Bump(ctx.Request.Context(), listGenKey(userID))
	utils.Message(ctx, http.StatusOK, "File deleted successfully")
}

// Download streams the bytes of one of the caller's active files as an attachment.
func (f *FileController) Download(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "unauthorized")
		return
	}

	fileID, ok := parseFileID(ctx)
	if !ok {
		fail(ctx, newError(ErrNotFound, "File not found", nil))
		return
	}
	record, err := f.store.FindActive(ctx.Request.Context(), fileID, userID)
	if err != nil {
		fail(ctx, newError(ErrNotFound, "File not found", err))
		return
	}

	abs, err := f.policy.Resolve(record.Path)
	if err != nil {
		fail(ctx, newError(ErrStorageIntegrity, "File content missing", err))
		return
	}
	info, err := os.Stat(abs)
	if err != nil || info.IsDir() {
		if err == nil {
			err = fmt.Errorf("%s is a directory", abs)
		}
		fail(ctx, newError(ErrStorageIntegrity, "File content missing", err))
		return
	}

	ctx.FileAttachment(abs, record.FileName)
}

// parseFileID reads the :id route parameter. Ids that are not positive integers match no record.
func parseFileID(ctx *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
