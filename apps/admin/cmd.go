package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	"github.com/go-playground/validator/v10"
	"golang.org/x/term"

	"github.com/trezcool/aula/core/attendance"
	"github.com/trezcool/aula/core/group"
	"github.com/trezcool/aula/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations need the postgres storage engine")
)

type commandLine struct {
	db       *sql.DB // postgres engine only
	usrSvc   *user.Service
	store    group.Store
	dir      group.Directory
	att      attendance.Repository
	attSvc   *attendance.Service
	validate *validator.Validate
	school   string
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  adduser -name NAME -username USERNAME -email EMAIL [-admin] - create a user; the password is prompted next")
	fmt.Fprintln(cli.out, "  importstudents -file ROSTER.xlsx - import students from a roster spreadsheet")
	fmt.Fprintln(cli.out, "  exportattendance -audience students|teachers [-level LEVEL] [-week YYYY-MM-DD] -format FORMAT -out FILE - export a weekly report")
	fmt.Fprintln(cli.out, "  seed - load the demo groups, students and attendance")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Give the user the admin role (teacher otherwise).")

	importCmd := flag.NewFlagSet("importstudents", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "The roster spreadsheet (.xlsx).")

	exportCmd := flag.NewFlagSet("exportattendance", flag.ContinueOnError)
	exportAudience := exportCmd.String("audience", attendance.AudienceStudents, "students or teachers.")
	exportLevel := exportCmd.String("level", attendance.LevelAll, "all, primary or secondary.")
	exportWeek := exportCmd.String("week", "", "The Monday of the week (YYYY-MM-DD); the current week by default.")
	exportFormat := exportCmd.String("format", "xlsx", "json, svg, png, xlsx or pdf.")
	exportOut := exportCmd.String("out", "", "The output file.")

	for _, fs := range []*flag.FlagSet{addUserCmd, importCmd, exportCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		fmt.Fprint(cli.out, "Enter password:")
		pwd, err := readPasswordFunc(int(syscall.Stdin))
		fmt.Fprintln(cli.out)
		if err != nil {
			return err
		}
		if len(pwd) == 0 {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, string(pwd), *addUserAdmin)
	case "importstudents":
		if err := importCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importStudents(*importFile)
	case "exportattendance":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *exportOut == "" {
			exportCmd.Usage()
			return errHelp
		}
		return cli.exportAttendance(*exportAudience, *exportLevel, *exportWeek, *exportFormat, *exportOut)
	case "seed":
		return cli.seed()
	default:
		cli.printUsage()
		return errHelp
	}
}
