package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pkg/errors"

	exportsvc "github.com/trezcool/aula/services/export"
)

func (cli *commandLine) importStudents(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "opening roster")
	}
	defer f.Close()

	imp, err := exportsvc.ImportRoster(f)
	if err != nil {
		return err
	}
	n, err := cli.dir.SaveStudents(context.Background(), imp.Students...)
	if err != nil {
		return errors.Wrap(err, "saving students")
	}

	fmt.Fprintf(cli.out, "%d students imported\n", n)
	for _, row := range imp.Skipped {
		fmt.Fprintf(cli.out, "row %d skipped: missing id or name\n", row)
	}
	return nil
}
