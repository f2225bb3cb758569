package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/christopherklint97/vrcxpredict/internal/config"
	"github.com/christopherklint97/vrcxpredict/internal/store"
	"github.com/christopherklint97/vrcxpredict/internal/tui"
)

var tablesCmd = &cobra.Command{
	Use:   "tables",
	Short: "List VRCX online/offline feed tables",
	Args:  cobra.NoArgs,
	RunE:  runTables,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List display names in the feed table",
	Args:  cobra.NoArgs,
	RunE:  runUsers,
}

var pickCmd = &cobra.Command{
	Use:   "pick",
	Short: "Pick the user to analyze and save it to the config",
	Args:  cobra.NoArgs,
	RunE:  runPick,
}

func init() {
	usersCmd.Flags().StringP("search", "s", "", "Only names containing this text")
	usersCmd.Flags().Int("limit", 0, "Maximum names to list")
	pickCmd.Flags().StringP("search", "s", "", "Only offer names containing this text")
}

func runTables(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openSource(cfg, newLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	tables, err := db.ListTables(context.Background())
	if err != nil {
		return err
	}
	if len(tables) == 0 {
		fmt.Println("No feed tables found.")
		return nil
	}

	fmt.Printf("Found %d tables:\n\n", len(tables))
	for _, t := range tables {
		marker := " "
		if t == cfg.Source.Table {
			marker = "*"
		}
		fmt.Printf(" %s %s\n", marker, t)
	}
	return nil
}

func listNames(ctx context.Context, db *store.DB, table, search string, limit int) ([]string, error) {
	if search != "" {
		return db.SearchDisplayNames(ctx, table, search, limit)
	}
	return db.ListDisplayNames(ctx, table, limit)
}

func runUsers(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openSource(cfg, newLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	table, err := resolveTable(ctx, cfg, db)
	if err != nil {
		return err
	}
	names, err := listNames(ctx, db, table, search, limit)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		fmt.Println("No display names found.")
		return nil
	}
	for _, n := range names {
		fmt.Println(n)
	}
	return nil
}

func runPick(cmd *cobra.Command, args []string) error {
	search, _ := cmd.Flags().GetString("search")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openSource(cfg, newLogger())
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	table, err := resolveTable(ctx, cfg, db)
	if err != nil {
		return err
	}
	names, err := listNames(ctx, db, table, search, 0)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return fmt.Errorf("no display names in %s", table)
	}

	app := tui.NewNamePickerApp("Select a user", names)
	p := tea.NewProgram(app)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running picker: %w", err)
	}

	result := app.GetResult()
	if result == nil || result.Canceled {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := config.SaveSource(config.SourceConfig{
		DBPath: db.Path(),
		Table:  table,
		User:   result.Name,
	}); err != nil {
		return fmt.Errorf("saving selection: %w", err)
	}
	fmt.Printf("Saved %s as the default user.\n", result.Name)
	return nil
}
