package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/aula/core"
	"github.com/trezcool/aula/core/attendance"
	exportsvc "github.com/trezcool/aula/services/export"
	"github.com/trezcool/aula/services/monitoring"
)

const weekLayout = "2006-01-02"

type reportApi struct {
	svc        *attendance.Service
	validate   *validator.Validate
	schoolName string
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service, validate *validator.Validate, schoolName string) {
	api := reportApi{
		svc:        svc,
		validate:   validate,
		schoolName: schoolName,
	}

	rg := g.Group("/reports", jwt)
	rg.GET("/attendance", api.attendance)
	rg.POST("/attendance", api.record, adminMiddleware())
}

// Handlers

func (api *reportApi) attendance(ctx echo.Context) error {
	filter := attendance.QueryFilter{
		Audience: ctx.QueryParam("audience"),
		Level:    ctx.QueryParam("level"),
	}
	filter.Clean()
	if err := api.validate.Struct(filter); err != nil {
		return err
	}

	week := attendance.WeekStart(nowFunc())
	if w := ctx.QueryParam("week"); w != "" {
		t, err := time.Parse(weekLayout, w)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "week", Error: "must be a date formatted as " + weekLayout})
		}
		week = t
	}

	format, err := exportsvc.ParseFormat(ctx.QueryParam("format"))
	if err != nil {
		return err
	}

	rep, err := api.svc.WeeklyReport(ctx.Request().Context(), filter, week)
	if err != nil {
		return errors.Wrap(err, "building weekly report")
	}

	buf := new(bytes.Buffer)
	switch format {
	case exportsvc.FormatJSON:
		return ctx.JSON(http.StatusOK, rep)
	case exportsvc.FormatSVG, exportsvc.FormatPNG:
		if err = exportsvc.ReportChart(buf, rep.Weekly, ctx.QueryParam("chart"), format); err != nil {
			return errors.Wrap(err, "rendering chart")
		}
		monitoring.ObserveChartRender(string(format))
	case exportsvc.FormatXLSX:
		err = exportsvc.WriteWorkbook(buf, rep.Weekly)
	case exportsvc.FormatPDF:
		err = exportsvc.WritePDF(buf, rep, api.schoolName)
	}
	if err != nil {
		return errors.Wrapf(err, "exporting %s", format)
	}

	if !format.IsImage() {
		ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+format.Filename(rep.Weekly)+`"`)
	}
	return ctx.Blob(http.StatusOK, format.ContentType(), buf.Bytes())
}

func (api *reportApi) record(ctx echo.Context) error {
	var data RecordRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	n, err := api.svc.Record(ctx.Request().Context(), data.Records...)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"saved": n})
}

type RecordRequest struct {
	Records []attendance.DailyRecord `json:"records" validate:"required,min=1,dive"`
}
