package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/devanmodhavadiya189/chatapp/internal/config"
	"github.com/devanmodhavadiya189/chatapp/internal/database"
	"github.com/devanmodhavadiya189/chatapp/internal/domain"
)

var (
	userEmail    string
	userPassword string
	userName     string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	Long:  `Creates a user account directly against the database, bypassing the HTTP signup endpoint.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if userEmail == "" || userPassword == "" {
			return fmt.Errorf("both --email and --password are required")
		}

		name := userName
		if name == "" {
			name = displayNameFromEmail(userEmail)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		cfg := config.New()
		db, err := database.NewDB(ctx, cfg)
		if err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close(ctx)

		users := database.NewUserStore(db, cfg.GetDBNs(), cfg.GetDBDb())
		user := &domain.User{
			Email: userEmail,
			Name:  &name,
		}
		if _, err := users.SignUp(ctx, user, userPassword); err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Printf("Created user %s (%s)\n", name, userEmail)
		return nil
	},
}

// displayNameFromEmail turns "jane.doe@example.com" into "Jane Doe".
func displayNameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	local = strings.NewReplacer(".", " ", "_", " ", "-", " ").Replace(local)
	return cases.Title(language.English).String(local)
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "email address for the new account")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password for the new account")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name (derived from the email if omitted)")

	userCmd.AddCommand(userCreateCmd)
	rootCmd.AddCommand(userCmd)
}
