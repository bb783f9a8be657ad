package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dropDatabas3/blueprint/internal/bootstrap"
)

func newSeedCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Carga las cuentas y clientes de desarrollo",
		RunE: func(cmd *cobra.Command, args []string) error {
			ac, err := g.buildContext(cmd.Context())
			if err != nil {
				return err
			}
			defer ac.Close()

			res, err := bootstrap.Seed(cmd.Context(), ac.Accounts, ac.Clients, bootstrap.DefaultFixtures())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "accounts: %d created\nclients: %v\n", len(res.AccountIDs), res.ClientIDs)
			return nil
		},
	}
}

func newCreateAdminCmd(g *globalFlags) *cobra.Command {
	var email, plain string
	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Crea un superusuario (interactivo si faltan flags)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" || plain == "" {
				if !term.IsTerminal(int(os.Stdin.Fd())) {
					return fmt.Errorf("--email y --password son requeridos fuera de una terminal")
				}
				var err error
				email, plain, err = bootstrap.Prompt{
					In:  os.Stdin,
					Out: cmd.OutOrStdout(),
					FD:  int(os.Stdin.Fd()),
				}.Credentials()
				if err != nil {
					return err
				}
			}

			ac, err := g.buildContext(cmd.Context())
			if err != nil {
				return err
			}
			defer ac.Close()

			acc, created, err := bootstrap.CreateSuperUser(cmd.Context(), ac.Accounts, email, plain)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(cmd.OutOrStdout(), "account %s already exists\n", email)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "super user created: %s\n", acc.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Email del admin")
	cmd.Flags().StringVar(&plain, "password", "", "Contraseña del admin")
	return cmd
}
