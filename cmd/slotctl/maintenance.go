package main

import (
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/securecookie"
	"github.com/spf13/cobra"

	"github.com/codr1/nailbook/internal/api/auth"
	"github.com/codr1/nailbook/internal/scheduler"
)

func newPurgeCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "purge",
		Short: "Drop reservations older than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.open()
			if err != nil {
				return err
			}
			defer s.Close()

			removed, err := scheduler.PurgeExpired(commandContext(cmd), s.session, s.repo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %d entries dated before %s\n", removed, s.repo.Cutoff())
			return nil
		},
	}
}

func newSchemaCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Apply pending migrations and print the schema version and stored namespaces",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := env.open()
			if err != nil {
				return err
			}
			defer s.Close()

			version, dirty, err := s.db.MigrationVersion()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %d, Dirty: %v\n", version, dirty)

			namespaces, err := s.db.KV.Namespaces(commandContext(cmd))
			if err != nil {
				return err
			}
			for _, name := range slices.Sorted(maps.Keys(namespaces)) {
				fmt.Fprintf(out, "%s\t%s\n", name, namespaces[name].Format(time.RFC3339))
			}
			return nil
		},
	}
}

func newHashPasswordCmd() *cobra.Command {
	var password string

	c := &cobra.Command{
		Use:   "hash-password",
		Short: "Print an ADMIN_PASSWORD_HASH value for a password",
		RunE: func(cmd *cobra.Command, args []string) error {
			password = strings.TrimSpace(password)
			if password == "" {
				return fmt.Errorf("--password must not be blank")
			}
			hash, err := auth.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ADMIN_PASSWORD_HASH='%s'\n", hash)
			return nil
		},
	}

	c.Flags().StringVar(&password, "password", "", "admin password")
	_ = c.MarkFlagRequired("password")
	return c
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Generate SESSION_HASH_KEY and SESSION_BLOCK_KEY values (base64)",
		RunE: func(cmd *cobra.Command, args []string) error {
			hash := securecookie.GenerateRandomKey(32)
			block := securecookie.GenerateRandomKey(32)
			if hash == nil || block == nil {
				return fmt.Errorf("could not read random bytes")
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "SESSION_HASH_KEY=%s\n", base64.StdEncoding.EncodeToString(hash))
			fmt.Fprintf(out, "SESSION_BLOCK_KEY=%s\n", base64.StdEncoding.EncodeToString(block))
			return nil
		},
	}
}
