package errs

import "fmt"

type Code string

const (
	CSVWithJSON      Code = "CSV_WITH_JSON"
	ConfigExists     Code = "CONFIG_EXISTS"
	NoCacheWithCache Code = "NO_CACHE_WITH_CACHE"
	NegativeLimit    Code = "NEGATIVE_LIMIT"
	NothingToChart   Code = "NOTHING_TO_CHART"
	PipelinesFailed  Code = "PIPELINES_FAILED"
)

var messages = map[Code]string{
	CSVWithJSON: `Invalid flag combination: cannot use --csv with --json

Usage:
  - Export the series as CSV:
      knotwatch history --csv history.csv
  - Print the series as JSON:
      knotwatch history --json

Reason:
  Both flags select the output format of the same series.`,

	ConfigExists: `Configuration already exists: %[1]s

Usage:
  knotwatch init --force     # overwrite with the defaults`,

	NoCacheWithCache: `Invalid flag combination: --no-cache with "cache %[1]s"

Reason:
  --no-cache swaps the cache for an in-memory one, so there is nothing to %[1]s.`,

	NegativeLimit: `Invalid value for --limit: %[1]d

Usage:
  knotwatch versions --limit 10`,

	NothingToChart: `Nothing to chart: %[1]s

Reason:
  The pipeline returned no data for this chart.`,

	PipelinesFailed: `Some data could not be loaded: %[1]s`,
}

func Msg(code Code, a ...any) string {
	msg := messages[code]
	if msg == "" {
		msg = string(code)
	}
	return fmt.Sprintf(msg, a...)
}
