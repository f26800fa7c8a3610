// Seed tool that generates a synthetic reefer fleet and writes it to the
// Reefwatch database.
//
// Usage:
//
//	go run cmd/seed/main.go -db ./reefwatch.db -vessels 200 -years 4
//
// The generated data is deterministic for a given -seed, so test
// environments can be rebuilt byte-for-byte.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/opensource-ocean/reefwatch/internal/domain"
	"github.com/opensource-ocean/reefwatch/internal/repository"
)

var flags = []string{"PAN", "RUS", "CHN", "KOR", "LBR", "VUT", "FRA", "ESP", "NOR", "USA", "GBR", "BHS"}

var fishingFlags = []string{"CHN", "TWN", "KOR", "ESP", "RUS", "JPN"}

var ports = []struct {
	name    string
	country string
}{
	{"VLADIVOSTOK", "Russia"},
	{"BUSAN", "South Korea"},
	{"MONTEVIDEO", "Uruguay"},
	{"LAS PALMAS", "Spain"},
	{"PORT LOUIS", "Mauritius"},
	{"SINGAPORE", "Singapore"},
	{"CALLAO", "Peru"},
	{"CAPE TOWN", "South Africa"},
}

var rfmos = []string{"ICCAT", "IOTC", "WCPFC", "NPFC", "SPRFMO"}

func main() {
	dbPath := flag.String("db", "./reefwatch.db", "SQLite database path")
	vessels := flag.Int("vessels", 200, "Number of reefer vessels to generate")
	years := flag.Int("years", 4, "Years of history to generate")
	seed := flag.Int64("seed", 42, "Random seed")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))

	repo, err := repository.New(domain.RepositoryConfig{
		Driver:     "sqlite",
		SQLitePath: *dbPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()
	end := time.Date(time.Now().UTC().Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	start := end.AddDate(-*years, 0, 0)

	var encounters []*domain.EncounterRecord
	var visits []*domain.PortVisitRecord
	statusCount := 0

	for i := 0; i < *vessels; i++ {
		mmsi := fmt.Sprintf("%09d", 200000000+rng.Intn(600000000))
		name := fmt.Sprintf("REEFER %03d", i+1)
		flagCode := flags[rng.Intn(len(flags))]

		// Meeting activity is heavy-tailed: most vessels meet rarely,
		// a few meet constantly.
		meetings := 1 + rng.Intn(8)
		if rng.Float64() < 0.15 {
			meetings = 15 + rng.Intn(60)
		}

		for m := 0; m < meetings; m++ {
			id := uuid.New().String()
			at := start.Add(time.Duration(rng.Int63n(int64(end.Sub(start)))))
			dur := time.Duration(2+rng.Intn(20)) * time.Hour
			distM := rng.Float64() * 250 * domain.MetersPerNauticalMile

			auth := domain.AuthUnknown
			switch rng.Intn(3) {
			case 0:
				auth = domain.AuthAuthorized
			case 1:
				auth = domain.AuthUnauthorized
			}

			port := ports[rng.Intn(len(ports))]
			regions := []string{rfmos[rng.Intn(len(rfmos))]}

			rec := &domain.EncounterRecord{
				ID:                 id,
				VesselMMSI:         mmsi,
				VesselName:         name,
				VesselFlag:         flagCode,
				Start:              at,
				End:                at.Add(dur),
				DistanceFromShoreM: distM,
				Authorization:      auth,
				DestinationPortName:    port.name,
				DestinationPortCountry: port.country,
				RegionMemberships:      regions,
			}

			// Two thirds of meetings are with tracked fishing vessels;
			// tracked meetings emit a mirrored loitering row under the
			// same id, the way paired detections arrive upstream.
			if rng.Float64() < 0.66 {
				rec.Type = domain.EventEncounter
				rec.OtherVesselName = fmt.Sprintf("FISHING %04d", rng.Intn(2000))
				rec.OtherVesselFlag = fishingFlags[rng.Intn(len(fishingFlags))]
				encounters = append(encounters, rec)

				mirror := *rec
				mirror.Type = domain.EventLoitering
				mirror.OtherVesselName = ""
				mirror.OtherVesselFlag = ""
				encounters = append(encounters, &mirror)
			} else {
				rec.Type = domain.EventLoitering
				encounters = append(encounters, rec)
			}
		}

		// Port visits between meetings
		visitCount := 1 + rng.Intn(5)
		for v := 0; v < visitCount; v++ {
			port := ports[rng.Intn(len(ports))]
			at := start.Add(time.Duration(rng.Int63n(int64(end.Sub(start)))))
			dur := time.Duration(12+rng.Intn(120)) * time.Hour
			visits = append(visits, &domain.PortVisitRecord{
				VesselMMSI:  mmsi,
				Start:       at,
				End:         at.Add(dur),
				PortName:    port.name,
				PortCountry: port.country,
			})
		}

		// Current status snapshot
		nav := "under way using engine"
		if rng.Float64() < 0.2 {
			nav = domain.NavStatusMoored
		}
		status := &domain.VesselStatus{
			MMSI:             mmsi,
			Name:             name,
			Flag:             flagCode,
			Longitude:        rng.Float64()*360 - 180,
			Latitude:         rng.Float64()*160 - 80,
			NavigationStatus: nav,
			Destination:      ports[rng.Intn(len(ports))].name,
			EEZ:              flags[rng.Intn(len(flags))],
			LastTransmission: end.Add(-time.Duration(rng.Intn(72)) * time.Hour),
		}
		if err := repo.SaveVesselStatus(ctx, status); err != nil {
			fmt.Fprintf(os.Stderr, "failed to save status for %s: %v\n", mmsi, err)
			os.Exit(1)
		}
		statusCount++
	}

	if err := repo.SaveEncounters(ctx, encounters); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save encounters: %v\n", err)
		os.Exit(1)
	}
	if err := repo.SavePortVisits(ctx, visits); err != nil {
		fmt.Fprintf(os.Stderr, "failed to save port visits: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("seeded %s\n", *dbPath)
	fmt.Printf("  vessels:     %d\n", *vessels)
	fmt.Printf("  event rows:  %d\n", len(encounters))
	fmt.Printf("  port visits: %d\n", len(visits))
	fmt.Printf("  statuses:    %d\n", statusCount)
}
