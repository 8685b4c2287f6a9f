package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/codr1/nailbook/internal/legacy"
	"github.com/codr1/nailbook/internal/slots"
)

func newImportLegacyCmd(env *environment) *cobra.Command {
	var slotsPath, donePath, markedPath, namesPath string
	var replace bool

	c := &cobra.Command{
		Use:   "import-legacy",
		Short: "Load exported browser-storage JSON documents into the store",
		Long: "Reads any of the four legacy documents (open slots, done list, marked days, name map),\n" +
			"normalises every historical shape and merges the result into the store.\n" +
			"With --replace the current state is discarded first.",
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := readDocuments(slotsPath, donePath, markedPath, namesPath)
			if err != nil {
				return err
			}

			s, err := env.open()
			if err != nil {
				return err
			}
			defer s.Close()

			imported, dropped := legacy.Normalize(docs, time.Now())
			for _, rec := range dropped {
				log.Warn().Err(rec).Msg("Dropped malformed record")
			}

			err = s.session.Update(commandContext(cmd), func(store *slots.Store) error {
				if replace {
					store.Replace(imported)
					return nil
				}
				mergeInto(store, imported)
				return nil
			})
			if err != nil {
				return err
			}

			snap := imported.Snapshot()
			open := 0
			for _, bucket := range snap.Open {
				open += len(bucket)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d open, %d done, %d marked days (%d records dropped)\n",
				open, len(snap.Done), len(snap.Marked), len(dropped))
			return nil
		},
	}

	c.Flags().StringVar(&slotsPath, "slots", "", "open slots document (nails.v1.slots)")
	c.Flags().StringVar(&donePath, "done", "", "done list document (nails.v1.slots.done)")
	c.Flags().StringVar(&markedPath, "marked", "", "marked days document (nails.v1.markedDays)")
	c.Flags().StringVar(&namesPath, "names", "", "auxiliary name map (nails.v1.slots.names)")
	c.Flags().BoolVar(&replace, "replace", false, "discard current state instead of merging")
	return c
}

func readDocuments(slotsPath, donePath, markedPath, namesPath string) (legacy.Documents, error) {
	var docs legacy.Documents
	targets := []struct {
		path string
		dst  *json.RawMessage
	}{
		{slotsPath, &docs.Slots},
		{donePath, &docs.Done},
		{markedPath, &docs.Marked},
		{namesPath, &docs.Names},
	}

	read := 0
	for _, target := range targets {
		if target.path == "" {
			continue
		}
		data, err := os.ReadFile(target.path)
		if err != nil {
			return legacy.Documents{}, fmt.Errorf("read %s: %w", target.path, err)
		}
		*target.dst = data
		read++
	}
	if read == 0 {
		return legacy.Documents{}, fmt.Errorf("at least one of --slots, --done, --marked or --names is required")
	}
	return docs, nil
}

// mergeInto folds imported into store. Existing entries keep their fields;
// imported ones only fill blanks.
func mergeInto(store, imported *slots.Store) {
	snap := imported.Snapshot()
	for d, bucket := range snap.Open {
		for _, entry := range bucket {
			store.Upsert(d, entry)
		}
	}
	for _, rec := range snap.Done {
		store.AddDone(rec)
	}
	for _, d := range snap.Marked {
		store.Mark(d)
	}
}
