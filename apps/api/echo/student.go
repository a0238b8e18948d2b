package echoapi

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/group"
	exportsvc "github.com/trezcool/aula/services/export"
)

const rosterFilename = "alumnos.xlsx"

type studentApi struct {
	store group.Store
	dir   group.Directory
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, store group.Store, dir group.Directory) {
	api := studentApi{store: store, dir: dir}

	sg := g.Group("/students", jwt, adminMiddleware())
	sg.GET("", api.query)
	sg.POST("/import", api.importRoster)
}

// Handlers

// query lists the students of a grade and section; format=xlsx downloads them as a roster.
func (api *studentApi) query(ctx echo.Context) error {
	grade := core.CleanString(ctx.QueryParam("grade"))
	section := core.CleanString(ctx.QueryParam("section"))
	students, err := api.store.GetEligibleStudents(ctx.Request().Context(), grade, section)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}

	format, err := exportsvc.ParseFormat(ctx.QueryParam("format"))
	if err != nil {
		return err
	}
	switch format {
	case exportsvc.FormatJSON:
		if students == nil {
			students = []group.Student{}
		}
		return ctx.JSON(http.StatusOK, students)
	case exportsvc.FormatXLSX:
		buf := new(bytes.Buffer)
		if err = exportsvc.WriteRoster(buf, students); err != nil {
			return errors.Wrap(err, "writing roster")
		}
		ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+rosterFilename+`"`)
		return ctx.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
	}
	return exportsvc.ErrUnknownFormat
}

func (api *studentApi) importRoster(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "an xlsx file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close()

	imp, err := exportsvc.ImportRoster(f)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "file", Error: "not a valid xlsx roster"})
	}
	n, err := api.dir.SaveStudents(ctx.Request().Context(), imp.Students...)
	if err != nil {
		return errors.Wrap(err, "saving students")
	}
	if imp.Skipped == nil {
		imp.Skipped = []int{}
	}
	return ctx.JSON(http.StatusOK, ImportResponse{Imported: n, Skipped: imp.Skipped})
}

// ImportResponse reports the imported students and the spreadsheet rows skipped for a missing id or name.
type ImportResponse struct {
	Imported int   `json:"imported"`
	Skipped  []int `json:"skipped"`
}
