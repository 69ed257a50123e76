package handlers

import (
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"gestionale/internal/audit"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var mediaRoot = "./media"

// SetMediaRoot points uploads at the configured storage directory.
func SetMediaRoot(path string) {
	if path != "" {
		mediaRoot = path
	}
}

type driveFolderRequest struct {
	Name   *string `json:"name"`
	Parent *uint   `json:"parent"`
	Notes  *string `json:"notes"`
}

func (r driveFolderRequest) apply(f *models.DriveFolder) {
	if r.Name != nil {
		f.Name = strings.TrimSpace(*r.Name)
	}
	if r.Parent != nil {
		if *r.Parent == 0 {
			f.ParentID = nil
		} else {
			f.ParentID = r.Parent
		}
	}
	if r.Notes != nil {
		f.Notes = *r.Notes
	}
}

func driveFolderAuditView(f *models.DriveFolder) map[string]any {
	if f == nil {
		return map[string]any{}
	}
	return map[string]any{
		"name":   f.Name,
		"parent": f.ParentID,
		"notes":  f.Notes,
	}
}

// validateFolderParent rejects unknown parents and cycles (a folder can
// never sit under itself or one of its descendants).
func validateFolderParent(f *models.DriveFolder, fieldErrors map[string]any) {
	if f.ParentID == nil {
		return
	}
	if f.ID != 0 && *f.ParentID == f.ID {
		fieldErrors["parent"] = "Una cartella non può contenere sé stessa."
		return
	}

	seen := map[uint]bool{f.ID: true}
	current := *f.ParentID
	for current != 0 {
		if seen[current] {
			fieldErrors["parent"] = "Una cartella non può contenere sé stessa."
			return
		}
		seen[current] = true

		var parent models.DriveFolder
		if err := database.DB.First(&parent, current).Error; err != nil {
			fieldErrors["parent"] = "Cartella inesistente."
			return
		}
		if parent.ParentID == nil {
			return
		}
		current = *parent.ParentID
	}
}

func ListDriveFolders(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.DriveFolder{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if parent := c.Query("parent"); parent != "" {
		if parent == "0" || parent == "root" {
			q = q.Where("parent_id IS NULL")
		} else {
			q = q.Where("parent_id = ?", parent)
		}
	}
	q = applySearch(q, p.Search, "name", "notes")
	q = q.Order("name")

	var rows []models.DriveFolder
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

// GetDriveFolder returns one folder plus its direct children and files,
// enough for one level of tree navigation per request.
func GetDriveFolder(c *gin.Context) {
	obj, ok := getEntity[models.DriveFolder](c, false)
	if !ok {
		return
	}

	var children []models.DriveFolder
	if err := database.DB.Where("parent_id = ?", obj.ID).Order("name").Find(&children).Error; err != nil {
		fail(c, err)
		return
	}
	var files []models.DriveFile
	if err := database.DB.Where("folder_id = ?", obj.ID).Order("name").Find(&files).Error; err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"folder":   obj,
		"children": children,
		"files":    files,
	})
}

func CreateDriveFolder(c *gin.Context) {
	var req driveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	var obj models.DriveFolder
	req.apply(&obj)

	fieldErrors := map[string]any{}
	if obj.Name == "" {
		fieldErrors["name"] = "Campo obbligatorio."
	}
	validateFolderParent(&obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	actor := middleware.CurrentUser(c)
	if actor != nil {
		obj.CreatedByID = &actor.ID
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   actor,
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, driveFolderAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

func UpdateDriveFolder(c *gin.Context) {
	obj, ok := getEntity[models.DriveFolder](c, false)
	if !ok {
		return
	}

	var req driveFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := driveFolderAuditView(obj)
	req.apply(obj)

	fieldErrors := map[string]any{}
	if obj.Name == "" {
		fieldErrors["name"] = "Campo obbligatorio."
	}
	validateFolderParent(obj, fieldErrors)
	if len(fieldErrors) > 0 {
		failValidation(c, fieldErrors)
		return
	}

	if err := database.DB.Save(obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionUpdate,
		Target:  obj,
		Changes: audit.BuildChanges(before, driveFolderAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

func DeleteDriveFolder(c *gin.Context) { softDeleteEntity[models.DriveFolder](c) }

func RestoreDriveFolder(c *gin.Context) { restoreEntity[models.DriveFolder](c) }

func driveFileAuditView(f *models.DriveFile) map[string]any {
	if f == nil {
		return map[string]any{}
	}
	return map[string]any{
		"folder":    f.FolderID,
		"name":      f.Name,
		"mime_type": f.MimeType,
		"size":      f.Size,
		"notes":     f.Notes,
	}
}

func ListDriveFiles(c *gin.Context) {
	p := getListParams(c)

	q := database.WithDeletedFilters(database.DB.Model(&models.DriveFile{}), p.IncludeDeleted, p.OnlyDeleted, false)
	if folder := c.Query("folder"); folder != "" {
		if folder == "0" || folder == "root" {
			q = q.Where("folder_id IS NULL")
		} else {
			q = q.Where("folder_id = ?", folder)
		}
	}
	q = applySearch(q, p.Search, "name", "notes")
	q = q.Order("name")

	var rows []models.DriveFile
	count, err := paginate(q, p, &rows)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, listEnvelope(count, rows))
}

func GetDriveFile(c *gin.Context) {
	obj, ok := getEntity[models.DriveFile](c, false)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, obj)
}

// UploadDriveFile stores a multipart upload under an opaque uuid name;
// the original filename survives only as display metadata.
func UploadDriveFile(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		failValidation(c, map[string]any{"file": "Campo obbligatorio."})
		return
	}

	obj := models.DriveFile{
		Name: filepath.Base(fh.Filename),
		Size: fh.Size,
	}
	if folder := c.PostForm("folder"); folder != "" && folder != "0" {
		var parent models.DriveFolder
		if err := database.DB.First(&parent, folder).Error; err != nil {
			failValidation(c, map[string]any{"folder": "Cartella inesistente."})
			return
		}
		obj.FolderID = &parent.ID
	}
	obj.Notes = c.PostForm("notes")

	ext := obj.Extension()
	obj.MimeType = mime.TypeByExtension(ext)
	if obj.MimeType == "" {
		obj.MimeType = fh.Header.Get("Content-Type")
	}
	obj.StorageKey = filepath.Join("drive", uuid.NewString()+ext)

	dst := filepath.Join(mediaRoot, obj.StorageKey)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		fail(c, err)
		return
	}
	if err := c.SaveUploadedFile(fh, dst); err != nil {
		fail(c, err)
		return
	}

	actor := middleware.CurrentUser(c)
	if actor != nil {
		obj.CreatedByID = &actor.ID
	}

	if err := database.DB.Create(&obj).Error; err != nil {
		os.Remove(dst)
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   actor,
		Action:  models.ActionCreate,
		Target:  &obj,
		Changes: audit.BuildChanges(map[string]any{}, driveFileAuditView(&obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusCreated, &obj)
}

type driveFileRequest struct {
	Name   *string `json:"name"`
	Folder *uint   `json:"folder"`
	Notes  *string `json:"notes"`
}

func UpdateDriveFile(c *gin.Context) {
	obj, ok := getEntity[models.DriveFile](c, false)
	if !ok {
		return
	}

	var req driveFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		failValidation(c, map[string]any{"detail": "Payload non valido."})
		return
	}

	before := driveFileAuditView(obj)

	if req.Name != nil {
		obj.Name = strings.TrimSpace(*req.Name)
	}
	if req.Folder != nil {
		if *req.Folder == 0 {
			obj.FolderID = nil
		} else {
			var parent models.DriveFolder
			if err := database.DB.First(&parent, *req.Folder).Error; err != nil {
				failValidation(c, map[string]any{"folder": "Cartella inesistente."})
				return
			}
			obj.FolderID = req.Folder
		}
	}
	if req.Notes != nil {
		obj.Notes = *req.Notes
	}
	if obj.Name == "" {
		failValidation(c, map[string]any{"name": "Campo obbligatorio."})
		return
	}

	if err := database.DB.Save(obj).Error; err != nil {
		fail(c, err)
		return
	}

	audit.LogEvent(database.DB, audit.Entry{
		Actor:   middleware.CurrentUser(c),
		Action:  models.ActionUpdate,
		Target:  obj,
		Changes: audit.BuildChanges(before, driveFileAuditView(obj)),
		Request: c.Request,
	})

	c.JSON(http.StatusOK, obj)
}

// DownloadDriveFile streams the stored bytes under the display name.
func DownloadDriveFile(c *gin.Context) {
	obj, ok := getEntity[models.DriveFile](c, false)
	if !ok {
		return
	}

	path := filepath.Join(mediaRoot, obj.StorageKey)
	if _, err := os.Stat(path); err != nil {
		failNotFound(c)
		return
	}
	c.FileAttachment(path, obj.Name)
}

func DeleteDriveFile(c *gin.Context) { softDeleteEntity[models.DriveFile](c) }

func RestoreDriveFile(c *gin.Context) { restoreEntity[models.DriveFile](c) }
