// staffctl provisions clinic staff accounts. It talks directly to the
// database and is never exposed over HTTP.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"

	"github.com/shinagawa-clinic/reservation-api/internal/config"
	"github.com/shinagawa-clinic/reservation-api/internal/model"
	"github.com/shinagawa-clinic/reservation-api/internal/repository"
	"github.com/shinagawa-clinic/reservation-api/internal/repository/store"
	"github.com/shinagawa-clinic/reservation-api/pkg/security"
)

type cliContext struct {
	repo   repository.StaffUserRepository
	hasher security.PasswordHasher
}

type createCmd struct {
	Email    string `required:"" help:"Login email, stored lowercased."`
	Name     string `required:"" help:"Display name."`
	Password string `env:"STAFFCTL_PASSWORD" required:"" help:"Initial password (or set STAFFCTL_PASSWORD)."`
}

func (c *createCmd) Run(cli *cliContext) error {
	hash, err := cli.hasher.Hash(c.Password)
	if err != nil {
		return err
	}
	user := &model.StaffUser{
		Email:        c.Email,
		Name:         c.Name,
		PasswordHash: hash,
		Active:       true,
	}
	if err := cli.repo.Create(context.Background(), user); err != nil {
		return err
	}
	fmt.Printf("created staff user %s (%s)\n", user.Email, user.ID)
	return nil
}

type listCmd struct {
	Limit int `default:"200" help:"Maximum users to show."`
}

func (c *listCmd) Run(cli *cliContext) error {
	users, err := cli.repo.List(context.Background(), c.Limit)
	if err != nil {
		return err
	}
	for _, u := range users {
		state := "active"
		if !u.Active {
			state = "inactive"
		}
		fmt.Printf("%s\t%s\t%s\t%s\n", u.Email, u.Name, state, u.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

type setActiveCmd struct {
	Email  string `required:"" help:"Email of the account to change."`
	Active bool   `kong:"-"`
}

func (c *setActiveCmd) Run(cli *cliContext) error {
	user, err := cli.repo.GetByEmail(context.Background(), c.Email)
	if err != nil {
		return err
	}
	if err := cli.repo.SetActive(context.Background(), user.ID, c.Active); err != nil {
		return err
	}
	fmt.Printf("%s is now active=%v\n", user.Email, c.Active)
	return nil
}

var cli struct {
	Create     createCmd    `cmd:"" help:"Create a staff account."`
	List       listCmd      `cmd:"" help:"List staff accounts."`
	Activate   setActiveCmd `cmd:"" help:"Re-enable a staff account."`
	Deactivate setActiveCmd `cmd:"" help:"Disable a staff account."`
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	db, err := store.NewDB(cfg.Database)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()

	ktx := kong.Parse(&cli, kong.Name("staffctl"), kong.Description("Clinic staff account provisioning."))
	switch ktx.Command() {
	case "activate":
		cli.Activate.Active = true
	case "deactivate":
		cli.Deactivate.Active = false
	}

	err = ktx.Run(&cliContext{
		repo:   store.NewStaffUserRepository(db),
		hasher: security.NewBcryptHasher(12),
	})
	ktx.FatalIfErrorf(err)
}
