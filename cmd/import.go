package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nemopss/budgetly/catalog"
	"github.com/nemopss/budgetly/common"
	"github.com/nemopss/budgetly/importer"
	"github.com/nemopss/budgetly/ledger"
	"github.com/nemopss/budgetly/models"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func importOFXCmd() *cobra.Command {
	var (
		email      string
		categoryID int64
	)

	c := &cobra.Command{
		Use:   "import-ofx [files...]",
		Short: "Import spending from OFX/QFX statements",
		Long: `Records every debit in the given OFX or QFX statements as a transaction of one
user under one category. Credits are skipped. Lines imported before are skipped,
so a statement can be imported again safely.

Examples:
  budgetly import-ofx --email an@example.com --category 3 ~/Downloads/*.qfx`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := expandFiles(args)
			if err != nil {
				return err
			}

			st, err := openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			u, err := st.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
			if errors.Is(err, common.ErrNotFound) {
				return fmt.Errorf("no user with email %s", email)
			}
			if err != nil {
				return err
			}
			if u.Role != models.RoleUser {
				return fmt.Errorf("%s is not a user account", email)
			}

			cat := catalog.NewService(st, nil, logger)
			im := importer.New(ledger.NewService(st, cat, cfg.LedgerPageSize, nil, logger), logger)

			var total importer.Result
			for _, path := range files {
				res, err := importFile(cmd, im, path, u.ID, categoryID)
				if err != nil {
					return err
				}
				total.Imported += res.Imported
				total.Duplicates += res.Duplicates
				total.Credits += res.Credits
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions (%d already imported, %d credits skipped)\n",
				total.Imported, total.Duplicates, total.Credits)
			return nil
		},
	}

	c.Flags().StringVar(&email, "email", "", "email of the user the spending belongs to")
	c.Flags().Int64Var(&categoryID, "category", 0, "id of the active category to record under")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("category")
	return c
}

func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err != nil {
				return nil, fmt.Errorf("no files match %s", pattern)
			}
			matches = []string{pattern}
		}
		files = append(files, matches...)
	}
	return files, nil
}

func importFile(cmd *cobra.Command, im *importer.Importer, path string, userID, categoryID int64) (importer.Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return importer.Result{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	lines, err := importer.ParseOFX(f)
	if err != nil {
		return importer.Result{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	bar := progressbar.NewOptions(len(lines),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription(filepath.Base(path)),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)
	res, err := im.Import(cmd.Context(), userID, categoryID, lines, func() { _ = bar.Add(1) })
	_ = bar.Finish()
	if err != nil {
		return res, fmt.Errorf("failed to import %s: %w", path, err)
	}

	logger.Info("Statement imported", "file", filepath.Base(path),
		"imported", res.Imported, "duplicates", res.Duplicates, "credits", res.Credits)
	return res, nil
}
