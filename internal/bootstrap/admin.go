package bootstrap

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"

	"github.com/dropDatabas3/blueprint/internal/domain/repository"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper"
	"github.com/dropDatabas3/blueprint/internal/gatekeeper/account"
	"github.com/dropDatabas3/blueprint/internal/observability/logger"
)

// ErrPasswordMismatch indica que la confirmación no coincide.
var ErrPasswordMismatch = errors.New("bootstrap: passwords do not match")

// CreateSuperUser da de alta un superusuario. Si la cuenta ya existe no la
// toca y retorna (nil, false, nil).
func CreateSuperUser(ctx context.Context, accounts account.Service, email, plain string) (*repository.Account, bool, error) {
	res, err := accounts.Create(ctx, account.CreateInput{
		Username:  email,
		Email:     email,
		Password:  plain,
		SuperUser: true,
	}, account.CreateOptions{})
	if _, ok := gatekeeper.AsConflict(err); ok {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("bootstrap: create super user: %w", err)
	}
	logger.From(ctx).Info("super user created",
		logger.Component("bootstrap"),
		logger.AccountID(res.Account.ID),
	)
	return res.Account, true, nil
}

// Prompt lee email y contraseña de una terminal. La contraseña se pide dos
// veces sin eco; fd es el descriptor de la terminal (os.Stdin.Fd()).
type Prompt struct {
	In  io.Reader
	Out io.Writer
	FD  int
	// ReadPassword reemplaza a term.ReadPassword en tests.
	ReadPassword func(fd int) ([]byte, error)
}

// Credentials pide las credenciales del superusuario.
func (p Prompt) Credentials() (email, plain string, err error) {
	read := p.ReadPassword
	if read == nil {
		read = term.ReadPassword
	}

	fmt.Fprint(p.Out, "Admin email: ")
	line, err := bufio.NewReader(p.In).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", "", err
	}
	email = strings.TrimSpace(line)
	if email == "" {
		return "", "", errors.New("bootstrap: email cannot be empty")
	}

	fmt.Fprint(p.Out, "Admin password: ")
	pw, err := read(p.FD)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", "", err
	}
	fmt.Fprint(p.Out, "Confirm password: ")
	confirm, err := read(p.FD)
	fmt.Fprintln(p.Out)
	if err != nil {
		return "", "", err
	}
	if string(pw) != string(confirm) {
		return "", "", ErrPasswordMismatch
	}
	return email, string(pw), nil
}
