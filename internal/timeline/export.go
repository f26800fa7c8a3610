package timeline

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/opensource-ocean/reefwatch/internal/store"
)

// exportHeader is the column order of the flat meeting export.
var exportHeader = []string{
	"id", "vessel_mmsi", "vessel_name", "vessel_flag",
	"start", "end", "type", "distance_from_shore_m",
	"other_vessel_name", "other_vessel_flag", "other_vessel_origin_port_country",
	"authorization", "destination_port_name", "destination_port_country",
	"regions",
}

// ExportCSV writes one vessel's raw meeting rows (not deduped) as CSV.
// An unknown vessel yields a header-only export.
func ExportCSV(s *store.EventStore, mmsi string, w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return err
	}

	for _, e := range s.Events(store.ByVessel(mmsi)) {
		row := []string{
			e.ID,
			e.VesselMMSI,
			e.VesselName,
			e.VesselFlag,
			e.Start.UTC().Format("2006-01-02T15:04:05Z"),
			e.End.UTC().Format("2006-01-02T15:04:05Z"),
			string(e.Type),
			strconv.FormatFloat(e.DistanceFromShoreM, 'f', -1, 64),
			e.OtherVesselName,
			e.OtherVesselFlag,
			e.OtherVesselOriginPortCountry,
			string(e.Authorization),
			e.DestinationPortName,
			e.DestinationPortCountry,
			strings.Join(e.RegionMemberships, ";"),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
