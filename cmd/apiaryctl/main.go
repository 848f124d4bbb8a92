package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/apiarium/apiary/cmd/apiaryd/config"
	"github.com/apiarium/apiary/storage/model"
)

var rootCmd = &cobra.Command{
	Use:   "apiaryctl",
	Short: "apiaryctl manages an apiary server from the command line",
	Long:  "apiaryctl manages an apiary server from the command line",
}

var configFile string
var usersStorage model.UsersStore

func loadConfig(cmd *cobra.Command, args []string) error {
	config.Load(configFile)
	c := config.Get()

	backs, err := config.LoadStorageBackends(c.Storage)
	if err != nil {
		log.Fatal(err)
	}
	usersStorage = backs.Users
	return nil
}

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		users, err := usersStorage.List()
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSERNAME\tROLE\tLOCKED\tLAST LOGIN")
		for _, u := range users {
			lastLogin := "never"
			if u.LastLogin != nil {
				lastLogin = u.LastLogin.Format("2006-01-02 15:04")
			}
			// List strips credentials, so credential presence needs the
			// full record
			full, err := usersStorage.GetByID(u.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(
				w, "%d\t%s\t%s\t%t\t%s\n", u.ID, u.Username, u.Role, full.Locked(), lastLogin,
			)
		}
		return w.Flush()
	},
}

var userRole string

var userAddCmd = &cobra.Command{
	Use:   "add <username> <password>",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := model.Role(userRole)
		if !role.Valid() {
			return fmt.Errorf("unknown role '%s'", userRole)
		}
		u, err := usersStorage.Create(args[0], args[1], role)
		if err != nil {
			return err
		}
		fmt.Printf("created user %s (id %d) with role %s\n", u.Username, u.ID, u.Role)
		return nil
	},
}

var userSetRoleCmd = &cobra.Command{
	Use:   "set-role <username> <role>",
	Short: "Assign a new role to a user account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		role := model.Role(args[1])
		if !role.Valid() {
			return fmt.Errorf("unknown role '%s'", args[1])
		}
		u, err := usersStorage.Get(args[0])
		if err != nil {
			return err
		}
		if err = usersStorage.UpdateRole(u.ID, role); err != nil {
			return err
		}
		fmt.Printf("user %s now has role %s\n", u.Username, role)
		return nil
	},
}

// user reset-password is the out-of-band recovery path for accounts whose
// credential was cleared by the login-failure lockout.
var userResetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username> <password>",
	Short: "Replace a user account's password, unlocking a locked account",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := usersStorage.Get(args[0])
		if err != nil {
			return err
		}
		if err = usersStorage.SetPassword(u.ID, args[1]); err != nil {
			return err
		}
		fmt.Printf("password of user %s was reset\n", u.Username)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := usersStorage.Get(args[0])
		if err != nil {
			return err
		}
		if err = usersStorage.Delete(u.ID); err != nil {
			return err
		}
		fmt.Printf("deleted user %s\n", u.Username)
		return nil
	},
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "the config file to use")
	rootCmd.PersistentPreRunE = loadConfig
	userAddCmd.Flags().StringVar(&userRole, "role", string(model.RoleContributor), "the role of the new user")
	userCmd.AddCommand(userListCmd, userAddCmd, userSetRoleCmd, userResetPasswordCmd, userDeleteCmd)
	rootCmd.AddCommand(userCmd)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
