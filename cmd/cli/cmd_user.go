package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/sguter90/agrimaestro/pkg/assistant"
	"github.com/sguter90/agrimaestro/pkg/models"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage dashboard users",
	Long:  `Create dashboard users, list the members of a community and set their assistant language.`,
}

var createUserCmd = &cobra.Command{
	Use:   "create [username]",
	Short: "Create a new dashboard user",
	Long: `Create a new dashboard user, optionally assigned to a community.
The username is prompted for when not given as an argument; the password is always prompted for.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCreateUser,
}

var listUsersCmd = &cobra.Command{
	Use:   "list",
	Short: "List the users of a community",
	RunE:  runListUsers,
}

var userLanguageCmd = &cobra.Command{
	Use:   "language <username> <english|hindi>",
	Short: "Set the language the assistant answers a user in",
	Args:  cobra.ExactArgs(2),
	RunE:  runUserLanguage,
}

var userCommunityID string

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createUserCmd)
	userCmd.AddCommand(listUsersCmd)
	userCmd.AddCommand(userLanguageCmd)

	createUserCmd.Flags().StringVar(&userCommunityID, "community", "", "community ID the user belongs to")
	listUsersCmd.Flags().StringVar(&userCommunityID, "community", "", "community ID (empty lists users without a community)")
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	var username string
	if len(args) == 1 {
		username = args[0]
	} else {
		fmt.Print("Enter username: ")
		username, err = bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username cannot be empty")
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	user, err := dbManager.CreateUser(cmd.Context(), username, password, userCommunityID)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	fmt.Printf("✓ User %s created with ID: %s\n", user.Username, user.ID)
	if user.CommunityID != "" {
		fmt.Printf("Community: %s\n", user.CommunityID)
	}
	return nil
}

// promptPassword reads a password and its confirmation without echo
func promptPassword() (string, error) {
	fmt.Print("Enter password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(passwordBytes) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}

	fmt.Print("Confirm password: ")
	confirmBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password confirmation: %w", err)
	}
	if string(passwordBytes) != string(confirmBytes) {
		return "", fmt.Errorf("passwords do not match")
	}

	return string(passwordBytes), nil
}

func runListUsers(cmd *cobra.Command, args []string) error {
	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	users, err := dbManager.ListUsers(cmd.Context(), userCommunityID)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		fmt.Println("No users found.")
		return nil
	}

	return printUsers(os.Stdout, users)
}

func printUsers(out io.Writer, users []models.User) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tUSERNAME\tLANGUAGE\tCREATED")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Username, u.Language, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func runUserLanguage(cmd *cobra.Command, args []string) error {
	language, err := parseLanguage(args[1])
	if err != nil {
		return err
	}

	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	if err := dbManager.SetUserLanguage(cmd.Context(), args[0], language); err != nil {
		return err
	}

	fmt.Printf("✓ %s now chats in %s\n", args[0], language)
	return nil
}

func parseLanguage(value string) (string, error) {
	switch language := strings.ToLower(strings.TrimSpace(value)); language {
	case assistant.LanguageEnglish, assistant.LanguageHindi:
		return language, nil
	}
	return "", fmt.Errorf("unsupported language %q (valid: %s, %s)", value, assistant.LanguageEnglish, assistant.LanguageHindi)
}
