package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var communityCmd = &cobra.Command{
	Use:   "community",
	Short: "Manage communities",
	Long:  `Create and list the communities readings, devices and users belong to.`,
}

var communityCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new community",
	RunE:  runCommunityCreate,
}

var communityListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all communities",
	RunE:  runCommunityList,
}

var (
	communityName        string
	communityDescription string
	communityLocation    string
)

func init() {
	rootCmd.AddCommand(communityCmd)
	communityCmd.AddCommand(communityCreateCmd)
	communityCmd.AddCommand(communityListCmd)

	communityCreateCmd.Flags().StringVar(&communityName, "name", "", "community name")
	communityCreateCmd.Flags().StringVar(&communityDescription, "description", "", "short description")
	communityCreateCmd.Flags().StringVar(&communityLocation, "location", "", "village or district")
	communityCreateCmd.MarkFlagRequired("name")
}

func runCommunityCreate(cmd *cobra.Command, args []string) error {
	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	community, err := dbManager.CreateCommunity(cmd.Context(), strings.TrimSpace(communityName), communityDescription, communityLocation)
	if err != nil {
		return fmt.Errorf("failed to create community: %w", err)
	}

	fmt.Printf("✓ Community created with ID: %s\n", community.ID)
	return nil
}

func runCommunityList(cmd *cobra.Command, args []string) error {
	dbManager, err := appFromContext(cmd.Context()).DB()
	if err != nil {
		return err
	}

	communities, err := dbManager.ListCommunities(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list communities: %w", err)
	}

	if len(communities) == 0 {
		fmt.Println("No communities found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tLOCATION\tCREATED")
	for _, c := range communities {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Location, c.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return w.Flush()
}
