package main

import (
	"context"
	"fmt"
	"os"

	"github.com/talaan-ph/talaan/core/school"
)

// importDays loads a non-school-day CSV into the given school year, or the
// active one when no ID is given.
func (cli *commandLine) importDays(schoolYearID, path string) error {
	ctx := context.Background()

	var sy school.SchoolYear
	var err error
	if schoolYearID == "" {
		sy, err = cli.schoolSvc.Active(ctx)
	} else {
		sy, err = cli.schoolSvc.GetByID(ctx, schoolYearID)
	}
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := cli.attSvc.ImportNonSchoolDays(ctx, sy, f)
	if err != nil {
		return err
	}
	fmt.Printf("%s: %d created, %d updated, %d skipped\n", sy.Name, res.Created, res.Updated, res.Skipped)
	return nil
}
