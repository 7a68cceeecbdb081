package main

import (
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"housingsweep/internal/model"
	"housingsweep/internal/postgres"
	"housingsweep/internal/service/history"
	"housingsweep/internal/service/seen"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

func main() {
	pflag.String("db-url", "", "PostgreSQL connection URL (defaults to DB_URL)")
	pflag.Int16("world", 0, "World id")
	pflag.Int16("territory", 0, "Residential territory id")
	pflag.Int("limit", 0, "Only replay the most recent N observations (0 for all)")
	pflag.Bool("purge", false, "Delete the zone's history after printing it")
	pflag.Parse()

	v := viper.New()
	v.AutomaticEnv()
	if err := v.BindPFlags(pflag.CommandLine); err != nil {
		log.Fatalf("Failed to bind flags: %v", err)
	}

	dbURL := v.GetString("db-url")
	if dbURL == "" {
		dbURL = v.GetString("DB_URL")
	}
	if dbURL == "" || !pflag.CommandLine.Changed("world") || !pflag.CommandLine.Changed("territory") {
		pflag.Usage()
		os.Exit(2)
	}

	zone := model.ZoneKey{
		WorldID:     int16(v.GetInt("world")),
		TerritoryID: int16(v.GetInt("territory")),
	}

	postgres.Init(dbURL)
	defer postgres.Close()
	store := postgres.NewHistoryStore(postgres.GetDB())

	rows, err := store.LoadObservations(zone, v.GetInt("limit"))
	if err != nil {
		log.Fatalf("Failed to load history: %v", err)
	}

	seenStore := seen.NewStore()
	merged, skipped := history.Replay(rows, seenStore)
	log.Printf("Replayed %d observations of zone %s (%d skipped)", merged, zone, skipped)

	printSummary(zone, seenStore)

	if v.GetBool("purge") {
		n, err := store.DeleteZone(zone)
		if err != nil {
			log.Fatalf("Failed to purge history: %v", err)
		}
		log.Printf("Deleted %d observations of zone %s", n, zone)
	}
}

func printSummary(zone model.ZoneKey, store *seen.Store) {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "WARD\tVACANT\tMEDIUM\tLARGE")
	for ward := int16(1); ward <= model.WardsPerZone; ward++ {
		plots := store.GetWard(zone, ward)
		if plots == nil {
			continue
		}
		s := model.SummarizeWard(ward, plots)
		fmt.Fprintf(w, "%d\t%d\t%t\t%t\n", s.WardNumber, s.Vacant, s.HasMedium, s.HasLarge)
	}
}
