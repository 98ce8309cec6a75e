package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/dori/zenith/internal/model"
)

// NameRequest is the body of every create and rename endpoint
type NameRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

// UpdateSubjectRequest is the body of PATCH /api/subjects/:id
type UpdateSubjectRequest struct {
	Name  string `json:"name" validate:"omitempty,max=200"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

// TagRequest is the body of PUT /api/folders/:id/files/:fileId/tag. A null
// subject clears the tag.
type TagRequest struct {
	SubjectID *string `json:"subjectId"`
}

func (s *Server) listSubjects(c echo.Context) error {
	return c.JSON(http.StatusOK, s.services.Store.Subjects())
}

func (s *Server) subjectProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, s.services.Store.Progress())
}

func (s *Server) createSubject(c echo.Context) error {
	var req NameRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	sub, err := s.services.Store.AddSubject(req.Name)
	if sub == nil && err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Subject name must not be blank")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusCreated, sub)
}

func (s *Server) updateSubject(c echo.Context) error {
	var req UpdateSubjectRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	id := c.Param("id")
	sub, ok := s.services.Store.LookupSubject(&id)
	if !ok {
		return notFound("Subject")
	}

	if req.Name != "" {
		updated, err := s.services.Store.RenameSubject(id, req.Name)
		s.storeError(c, err)
		if updated != nil {
			sub = *updated
		}
	}
	if req.Color != "" {
		updated, err := s.services.Store.RecolorSubject(id, req.Color)
		s.storeError(c, err)
		if updated != nil {
			sub = *updated
		}
	}
	return c.JSON(http.StatusOK, sub)
}

func (s *Server) deleteSubject(c echo.Context) error {
	ok, err := s.services.Store.DeleteSubject(c.Param("id"))
	if !ok {
		return notFound("Subject")
	}
	s.storeError(c, err)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) createChapter(c echo.Context) error {
	var req NameRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	chapter, err := s.services.Store.AddChapter(c.Param("id"), req.Name)
	if chapter == nil && err == nil {
		return notFound("Subject")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusCreated, chapter)
}

func (s *Server) renameChapter(c echo.Context) error {
	var req NameRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	chapter, err := s.services.Store.RenameChapter(c.Param("id"), c.Param("chapterId"), req.Name)
	if chapter == nil && err == nil {
		return notFound("Chapter")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusOK, chapter)
}

func (s *Server) toggleChapter(c echo.Context) error {
	chapter, err := s.services.Store.ToggleChapter(c.Param("id"), c.Param("chapterId"))
	if chapter == nil && err == nil {
		return notFound("Chapter")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusOK, chapter)
}

func (s *Server) deleteChapter(c echo.Context) error {
	ok, err := s.services.Store.DeleteChapter(c.Param("id"), c.Param("chapterId"))
	if !ok {
		return notFound("Chapter")
	}
	s.storeError(c, err)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) listFolders(c echo.Context) error {
	return c.JSON(http.StatusOK, s.services.Store.Folders())
}

func (s *Server) createFolder(c echo.Context) error {
	var req NameRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	folder, err := s.services.Store.AddFolder(req.Name)
	if folder == nil && err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Folder name must not be blank")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusCreated, folder)
}

func (s *Server) renameFolder(c echo.Context) error {
	var req NameRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ok, err := s.services.Store.RenameFolder(c.Param("id"), req.Name)
	if !ok {
		return notFound("Folder")
	}
	s.storeError(c, err)
	folder, _ := s.services.Store.Folder(c.Param("id"))
	return c.JSON(http.StatusOK, folder)
}

func (s *Server) deleteFolder(c echo.Context) error {
	id := c.Param("id")
	if _, ok := s.services.Store.Folder(id); !ok {
		return notFound("Folder")
	}
	ok, err := s.services.Store.DeleteFolder(id)
	if !ok {
		return echo.NewHTTPError(http.StatusConflict, "The last folder cannot be deleted")
	}
	s.storeError(c, err)
	return c.NoContent(http.StatusNoContent)
}

// uploadFile stores a multipart "file" field inline in the folder
func (s *Server) uploadFile(c echo.Context) error {
	folderID := c.Param("id")
	if _, ok := s.services.Store.Folder(folderID); !ok {
		return notFound("Folder")
	}

	header, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file field")
	}
	if header.Size > s.maxUploadBytes() {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File is too large")
	}
	f, err := header.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file").SetInternal(err)
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, s.maxUploadBytes()+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable file").SetInternal(err)
	}
	if int64(len(data)) > s.maxUploadBytes() {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File is too large")
	}

	mime := header.Header.Get(echo.HeaderContentType)
	if mime == "" {
		mime = http.DetectContentType(data)
	}
	file, err := s.services.Store.AddFile(folderID, header.Filename, mime, data)
	if file == nil && err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "File name must not be blank")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusCreated, file)
}

func (s *Server) downloadFile(c echo.Context) error {
	file, ok := s.services.Store.File(c.Param("id"), c.Param("fileId"))
	if !ok {
		return notFound("File")
	}
	mime, data, err := model.DecodeDataURL(file.DataURL)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Stored file is corrupt").SetInternal(err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, "inline; filename="+strconv.Quote(file.Name))
	return c.Blob(http.StatusOK, mime, data)
}

func (s *Server) tagFile(c echo.Context) error {
	var req TagRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ok, err := s.services.Store.TagFile(c.Param("id"), c.Param("fileId"), req.SubjectID)
	if !ok {
		return notFound("File")
	}
	s.storeError(c, err)
	file, _ := s.services.Store.File(c.Param("id"), c.Param("fileId"))
	return c.JSON(http.StatusOK, file)
}

func (s *Server) deleteFile(c echo.Context) error {
	ok, err := s.services.Store.DeleteFile(c.Param("id"), c.Param("fileId"))
	if !ok {
		return notFound("File")
	}
	s.storeError(c, err)
	return c.NoContent(http.StatusNoContent)
}
