package cli

import (
	"context"
	"time"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/models"
)

func (a *App) credentials() (string, []byte, error) {
	userName, err := GetSimpleText(a.reader, "Enter username:", a.out)
	if err != nil {
		return "", nil, err
	}
	password, err := GetPassword(a.out)
	if err != nil {
		return "", nil, err
	}
	return userName, password, nil
}

func (a *App) Register(ctx context.Context, _ []string) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.svc.Users.Register(ctx, userName, string(password))
	if err != nil {
		return err
	}
	a.printf("Account %q created. You can login now.\n", user.UserName)
	return nil
}

func (a *App) Login(ctx context.Context, _ []string) error {
	userName, password, err := a.credentials()
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.svc.Users.Authenticate(ctx, userName, string(password))
	if err != nil {
		return err
	}
	a.session = &models.Session{UserID: user.ID, UserName: user.UserName}
	a.println("Login successful")
	return nil
}

func (a *App) Logout(_ context.Context, _ []string) error {
	name := a.session.UserName
	a.session = &models.Session{}
	a.printf("Goodbye, %s.\n", name)
	return nil
}

func (a *App) WhoAmI(ctx context.Context, _ []string) error {
	u, err := a.svc.Users.GetUser(ctx, a.session.UserID)
	if err != nil {
		return err
	}
	a.printf("%s (member since %s), balance $%s\n", u.UserName, u.CreatedAt.Format(time.DateOnly), u.Balance.StringFixed(2))
	return nil
}
