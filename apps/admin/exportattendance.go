package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/aula/core/attendance"
	exportsvc "github.com/trezcool/aula/services/export"
)

var nowFunc = time.Now // mockable

func (cli *commandLine) exportAttendance(audience, level, week, format, out string) error {
	f, err := exportsvc.ParseFormat(format)
	if err != nil {
		return err
	}

	weekStart := attendance.WeekStart(nowFunc())
	if week != "" {
		if weekStart, err = time.Parse("2006-01-02", week); err != nil {
			return errors.Wrap(err, "parsing week")
		}
	}

	filter := attendance.QueryFilter{Audience: audience, Level: level}
	filter.Clean()
	if err = cli.validate.Struct(filter); err != nil {
		return err
	}
	rep, err := cli.attSvc.WeeklyReport(context.Background(), filter, weekStart)
	if err != nil {
		return err
	}

	file, err := os.Create(out)
	if err != nil {
		return errors.Wrap(err, "creating output file")
	}
	defer file.Close()

	switch f {
	case exportsvc.FormatJSON:
		enc := json.NewEncoder(file)
		enc.SetIndent("", "  ")
		err = enc.Encode(rep)
	case exportsvc.FormatSVG, exportsvc.FormatPNG:
		err = exportsvc.ReportChart(file, rep.Weekly, exportsvc.ChartPie, f)
	case exportsvc.FormatXLSX:
		err = exportsvc.WriteWorkbook(file, rep.Weekly)
	case exportsvc.FormatPDF:
		err = exportsvc.WritePDF(file, rep, cli.school)
	}
	if err != nil {
		return errors.Wrapf(err, "writing %s", f)
	}

	fmt.Fprintf(cli.out, "%s written to %s\n", f.Filename(rep.Weekly), out)
	return nil
}
