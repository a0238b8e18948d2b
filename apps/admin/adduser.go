package main

import (
	"context"
	"fmt"

	"github.com/trezcool/aula/core/user"
)

// addUser validates and creates a user.User
func (cli *commandLine) addUser(name, uname, email, pwd string, isAdmin bool) error {
	ctx := context.Background()
	if name == "" {
		name = uname
	}
	role := user.RoleTeacher
	if isAdmin {
		role = user.RoleAdmin
	}

	nu := user.NewUser{
		Name:            name,
		Username:        uname,
		Email:           email,
		Password:        pwd,
		PasswordConfirm: pwd,
		Roles:           []string{role},
	}
	if err := nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
		return err
	}
	usr, err := cli.usrSvc.Create(ctx, nu)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "user %s created (%s)\n", usr.Username, usr.ID)
	return nil
}
