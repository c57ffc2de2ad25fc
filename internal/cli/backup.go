package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ramonehamilton/booster-companion/internal/storage"
)

// passwordEnv supplies the backup password when --password is not given.
const passwordEnv = "BOOSTER_BACKUP_PASSWORD"

func (a *app) backupDir(dbPath string) string {
	if a.cfg.Storage.BackupDir != "" {
		return a.cfg.Storage.BackupDir
	}
	return filepath.Join(filepath.Dir(dbPath), "backups")
}

func backupPassword(flag string) string {
	if flag != "" {
		return flag
	}
	return os.Getenv(passwordEnv)
}

func (a *app) backupCmd() *cobra.Command {
	var (
		name     string
		password string
		list     bool
	)
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Snapshot the economy database, or list snapshots with --list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := a.cfg.DatabasePath()
			if err != nil {
				return err
			}

			db, err := storage.Open(storage.DefaultConfig(dbPath))
			if err != nil {
				return err
			}
			defer db.Close()
			manager := storage.NewBackupManager(db, a.backupDir(dbPath))

			if list {
				backups, err := manager.ListBackups()
				if err != nil {
					return err
				}
				if len(backups) == 0 {
					fmt.Fprintf(a.out, "No backups in %s\n", manager.Dir())
				}
				for _, b := range backups {
					lock := ""
					if b.Encrypted {
						lock = color.YellowString(" [encrypted]")
					}
					fmt.Fprintf(a.out, "  %s  %8d bytes  %s%s\n", b.ModTime.Local().Format("2006-01-02 15:04"), b.Size, b.Path, lock)
				}
				return nil
			}

			path, err := manager.Backup(context.Background(), storage.BackupOptions{
				Name:     name,
				Password: backupPassword(password),
				Verify:   true,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s\n", color.GreenString("Backup written:"), path)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Snapshot file name (default: timestamped)")
	cmd.Flags().StringVar(&password, "password", "", "Encrypt the snapshot (or set "+passwordEnv+")")
	cmd.Flags().BoolVar(&list, "list", false, "List existing snapshots")
	return cmd
}

func (a *app) restoreCmd() *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "restore <backup-file>",
		Short: "Replace the economy database with a snapshot",
		Long: `Replace the economy database with a snapshot.

The current database is kept next to it with an .old suffix. Stop any running
'serve' process first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, err := a.cfg.DatabasePath()
			if err != nil {
				return err
			}
			if err := storage.RestoreBackup(args[0], dbPath, backupPassword(password)); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s %s\n", color.GreenString("Restored:"), dbPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "Password of an encrypted snapshot (or set "+passwordEnv+")")
	return cmd
}
