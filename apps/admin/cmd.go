package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/volatiletech/null/v8"
	"golang.org/x/term"

	echoapi "github.com/trezcool/enrollment/apps/api/echo"
	"github.com/trezcool/enrollment/core"
	"github.com/trezcool/enrollment/core/enrollment"
	"github.com/trezcool/enrollment/core/school"
)

var (
	isTerminalFunc = term.IsTerminal // mockable

	errHelp = errors.New("help provided")
)

type migrator interface {
	Up() error
	UpByOne() error
	UpTo(version int64) error
	Down() error
	DownTo(version int64) error
	Redo() error
}

type commandLine struct {
	conf          *core.Config
	in            io.Reader
	out           io.Writer
	migrator      migrator
	schoolSvc     school.Service
	enrollmentSvc enrollment.Service
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate up|up-by-one|up-to VERSION|down|down-to VERSION|redo - apply or roll back migrations")
	fmt.Fprintln(cli.out, "  addgrade -name NAME [-level LEVEL] [-enrollment-fee N] [-monthly-fee N] [-installments N] - create a grade")
	fmt.Fprintln(cli.out, "  addclassroom -grade ID -section SECTION [-capacity N] - create a classroom; no capacity means unbounded")
	fmt.Fprintln(cli.out, "  classrooms -grade ID - list the classrooms of a grade with their load")
	fmt.Fprintln(cli.out, "  withdraw -enrollment ID [-yes] - withdraw the classroom assignment of an enrollment")
	fmt.Fprintln(cli.out, "  token -username USERNAME [-email EMAIL] [-id ID] - issue an API token for a staff member")
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return errHelp
	}
	return nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}
	ctx := context.Background()

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "addgrade":
		cmd := newFlagSet("addgrade")
		name := cmd.String("name", "", "The grade name, eg: 3rd")
		level := cmd.String("level", "", "The school level, eg: primary")
		enrollmentFee := cmd.Int64("enrollment-fee", 0, "The enrollment fee, in minor currency units")
		monthlyFee := cmd.Int64("monthly-fee", 0, "The monthly fee, in minor currency units")
		installments := cmd.Int("installments", 10, "The number of monthly installments")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *name == "" {
			return errHelp
		}
		grade, err := cli.schoolSvc.AddGrade(ctx, school.NewGrade{
			Name:          *name,
			Level:         *level,
			EnrollmentFee: *enrollmentFee,
			MonthlyFee:    *monthlyFee,
			Installments:  *installments,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "grade %q created with id %d\n", grade.Name, grade.ID)
		return nil

	case "addclassroom":
		cmd := newFlagSet("addclassroom")
		gradeID := cmd.Int64("grade", 0, "The grade id")
		section := cmd.String("section", "", "The section label, eg: A")
		capacity := cmd.Int("capacity", -1, "The maximum number of students; negative for unbounded")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *gradeID == 0 || *section == "" {
			return errHelp
		}
		c, err := cli.schoolSvc.AddClassroom(ctx, school.NewClassroom{
			GradeID:  *gradeID,
			Section:  *section,
			Capacity: null.NewInt(*capacity, *capacity >= 0),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "classroom %q created with id %d\n", c.Section, c.ID)
		return nil

	case "classrooms":
		cmd := newFlagSet("classrooms")
		gradeID := cmd.Int64("grade", 0, "The grade id")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *gradeID == 0 {
			return errHelp
		}
		return cli.listClassrooms(ctx, *gradeID)

	case "withdraw":
		cmd := newFlagSet("withdraw")
		enrollmentID := cmd.Int64("enrollment", 0, "The enrollment id")
		yes := cmd.Bool("yes", false, "Do not ask for confirmation")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *enrollmentID == 0 {
			return errHelp
		}
		if !*yes {
			ok, err := cli.confirm(fmt.Sprintf("Withdraw enrollment %d?", *enrollmentID))
			if err != nil || !ok {
				return err
			}
		}
		asgmt, err := cli.enrollmentSvc.Withdraw(ctx, *enrollmentID)
		if err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "enrollment %d withdrawn from classroom %d\n", asgmt.EnrollmentID, asgmt.ClassroomID)
		return nil

	case "token":
		cmd := newFlagSet("token")
		id := cmd.String("id", "", "The staff member id; defaults to the username")
		username := cmd.String("username", "", "The staff member username")
		email := cmd.String("email", "", "The staff member email")
		if err := parseFlags(cmd, args[2:]); err != nil {
			return err
		}
		if *username == "" {
			return errHelp
		}
		if *id == "" {
			*id = *username
		}
		actor := core.Actor{ID: *id, Username: *username, Email: *email}
		token, err := echoapi.GenerateToken(cli.conf, echoapi.NewClaims(cli.conf, actor))
		if err != nil {
			return err
		}
		fmt.Fprintln(cli.out, token)
		return nil

	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) migrate(args []string) error {
	version := func() (int64, error) {
		if len(args) < 2 {
			return 0, fmt.Errorf("%s must be of form: migrate %s VERSION", args[0], args[0])
		}
		v, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("version must be a number (got '%s')", args[1])
		}
		return v, nil
	}

	switch args[0] {
	case "up":
		return cli.migrator.Up()
	case "up-by-one":
		return cli.migrator.UpByOne()
	case "up-to":
		v, err := version()
		if err != nil {
			return err
		}
		return cli.migrator.UpTo(v)
	case "down":
		return cli.migrator.Down()
	case "down-to":
		v, err := version()
		if err != nil {
			return err
		}
		return cli.migrator.DownTo(v)
	case "redo":
		return cli.migrator.Redo()
	default:
		return fmt.Errorf("%q: no such command", args[0])
	}
}

func (cli *commandLine) listClassrooms(ctx context.Context, gradeID int64) error {
	grade, err := cli.schoolSvc.GetGrade(ctx, gradeID)
	if err != nil {
		return err
	}
	avail, err := cli.schoolSvc.ListAvailableClassrooms(ctx, gradeID)
	if err != nil {
		return err
	}

	fmt.Fprintf(cli.out, "Grade %s\n", grade.Name)
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSECTION\tCAPACITY\tOCCUPANCY\tAVAILABLE")
	for _, a := range avail {
		capacity, available := "-", "-"
		if a.Capacity.Valid {
			capacity = strconv.Itoa(a.Capacity.Int)
			available = strconv.Itoa(a.Available.Int)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", a.ClassroomID, a.Section, capacity, a.Occupancy, available)
	}
	return w.Flush()
}

// confirm asks a yes/no question; it refuses to guess when stdin is not a terminal.
func (cli *commandLine) confirm(question string) (bool, error) {
	if !isTerminalFunc(int(os.Stdin.Fd())) {
		return false, errors.New("not a terminal: pass -yes to confirm")
	}
	fmt.Fprintf(cli.out, "%s [y/N] ", question)
	answer, err := bufio.NewReader(cli.in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	default:
		fmt.Fprintln(cli.out, "aborted")
		return false, nil
	}
}
