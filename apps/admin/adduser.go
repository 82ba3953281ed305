package main

import (
	"context"

	"github.com/talaan-ph/talaan/core"
	"github.com/talaan-ph/talaan/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(uname, email, pwd string, isAdmin bool) error {
	var usr user.User
	var err error
	ctx := context.Background()
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	create := false
	lookup := uname
	if lookup == "" {
		lookup = email
	}
	if usr, err = cli.usrRepo.GetUser(ctx, user.GetFilter{UsernameOrEmail: lookup}); err != nil {
		if err != user.ErrNotFound {
			return err
		}
		create = true
		usr = user.User{
			Username: uname,
			Email:    email,
		}
	}
	if isAdmin {
		usr.Roles = user.AllRoles
	}
	active := true
	usr.IsActive = &active
	if err = usr.SetPassword(pwd); err != nil {
		return err
	}

	if create {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
		return err
	}
	_, err = cli.usrRepo.UpdateUser(ctx, usr, usr.IsActive)
	return err
}
