package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	storageapp "github.com/BariVakhidov/eventboard/internal/app/storage"
	"github.com/BariVakhidov/eventboard/internal/config"
	"github.com/BariVakhidov/eventboard/internal/domain/filter"
	"github.com/BariVakhidov/eventboard/internal/domain/models"
	"github.com/BariVakhidov/eventboard/internal/services/eventstore"
	"github.com/spf13/cobra"
)

var (
	eventsCriteria filter.Criteria
	eventsJSON     bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Fetch events once and print the filtered list",
	Long: `Fetch every event from the data service, apply the search and the
type, location and date selectors, and print the result together with the
available types and locations.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsCriteria.Search, "q", "", "Free-text search over title, description and host")
	eventsCmd.Flags().StringVar(&eventsCriteria.Type, "type", "", "Exact event type")
	eventsCmd.Flags().StringVar(&eventsCriteria.Location, "location", "", "Exact location")
	eventsCmd.Flags().StringVar(&eventsCriteria.Date, "date", "", "Exact date (YYYY-MM-DD)")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output as JSON")
}

type eventsOutput struct {
	Events    []models.Event `json:"events"`
	Types     []string       `json:"types"`
	Locations []string       `json:"locations"`
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	// Logs go to stderr so the listing can be piped.
	logger := setupLogger(cfg.Env, os.Stderr)

	st, err := storageapp.New(cmd.Context(), cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer st.Stop()

	store := eventstore.New(logger, st.Storage, st.Storage, st.Storage, st.Storage, eventstore.Opts{})
	if err := store.FetchEvents(cmd.Context()); err != nil {
		return errors.New(store.Snapshot().Err)
	}

	events := store.Events()
	out := eventsOutput{
		Events:    filter.VisibleEvents(events, eventsCriteria),
		Types:     filter.DistinctTypes(events),
		Locations: filter.DistinctLocations(events),
	}

	if eventsJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	return printEvents(cmd.OutOrStdout(), out)
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	if path == "" {
		return nil, errors.New("config path is empty: use --config or CONFIG_PATH")
	}

	return config.Load(path)
}

func printEvents(w io.Writer, out eventsOutput) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	if len(out.Events) == 0 {
		fmt.Fprintln(tw, "No events found")
	} else {
		fmt.Fprintln(tw, "DATE\tTYPE\tTITLE\tLOCATION\tHOST")
		for _, e := range out.Events {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.DisplayDate(), e.Type, e.Title, e.Location, e.Host)
		}
	}

	fmt.Fprintln(tw)
	fmt.Fprintf(tw, "Types:\t%s\n", joinOrDash(out.Types))
	fmt.Fprintf(tw, "Locations:\t%s\n", joinOrDash(out.Locations))

	return tw.Flush()
}

func joinOrDash(values []string) string {
	if len(values) == 0 {
		return "-"
	}

	return strings.Join(values, ", ")
}
