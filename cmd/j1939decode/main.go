// Command j1939decode decodes CAN/J1939 capture files or single messages
// into JSON, CSV or a SQLite database, guided by one or more digital
// annex specification files.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"

	"github.com/jjepson/can-parser"
	"github.com/jjepson/can-parser/annex"
	"github.com/jjepson/can-parser/sink"
)

func main() {
	filePath := flag.String("file", "", "CAN log file to parse")
	message := flag.String("message", "", "single CAN message line to parse")
	template := flag.String("template", "", "named regex template for parsing (candump)")
	customRegex := flag.String("custom_regex", "", "custom regex expression with named groups timestamp/id/data")
	specsRaw := flag.String("specs", "", "comma separated list of specification files")
	specsTypesRaw := flag.String("specs_types", "", "comma separated list of specification types (j1939, can, uds, transport)")
	output := flag.String("output", "", "file path to write the results; prints to stdout when omitted")
	force := flag.Bool("force", false, "forcefully overwrite the output file if it exists")
	format := flag.String("format", "json", "output format (json, csv, sqlite)")
	flag.Parse()

	if (*filePath == "") == (*message == "") {
		log.Fatal("exactly one of -file or -message must be given")
	}
	if (*template == "") == (*customRegex == "") {
		log.Fatal("exactly one of -template or -custom_regex must be given")
	}

	pattern := *customRegex
	if *template != "" {
		if *template != "candump" {
			log.Fatalf("unknown template %q, only candump is available", *template)
		}
		pattern = canparser.CandumpTemplate
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		log.Fatalf("invalid line regex: %v", err)
	}

	var loader annex.Loader
	if specs, err := parseSpecsArgs(*specsRaw, *specsTypesRaw); err != nil {
		log.Fatal(err)
	} else if specs != nil {
		loader = specs.J1939
	}

	pipeline, err := canparser.NewPipeline(canparser.NewLineParser(re), loader, canparser.PolicyWarn)
	if err != nil {
		log.Fatal(err)
	}

	batch, err := decodeInput(pipeline, *filePath, *message)
	if err != nil {
		log.Fatal(err)
	}
	for _, warning := range batch.Warnings {
		fmt.Fprintf(os.Stderr, "# warning: %s\n", warning)
	}

	if err := writeResults(batch, *output, *format, *force); err != nil {
		log.Fatal(err)
	}
}

// parseSpecsArgs zips the -specs and -specs_types comma lists into the
// type-to-annex map canparser.NewSpecs expects. Returns nil when neither
// flag was given.
func parseSpecsArgs(specsRaw, typesRaw string) (*canparser.Specs, error) {
	if specsRaw == "" && typesRaw == "" {
		return nil, nil
	}
	if specsRaw == "" || typesRaw == "" {
		return nil, fmt.Errorf("-specs and -specs_types must be given together")
	}

	sources := strings.Split(specsRaw, ",")
	types := strings.Split(typesRaw, ",")
	if len(sources) != len(types) {
		return nil, fmt.Errorf("the number of specification files (%d) and types (%d) must be equal", len(sources), len(types))
	}

	annexes := make(map[string]string, len(sources))
	for i, t := range types {
		annexes[strings.TrimSpace(t)] = strings.TrimSpace(sources[i])
	}
	return canparser.NewSpecs(annexes)
}

func decodeInput(pipeline *canparser.Pipeline, filePath, message string) (canparser.Batch, error) {
	if filePath != "" {
		f, err := os.Open(filePath)
		if err != nil {
			return canparser.Batch{}, fmt.Errorf("failed to open input file: %w", err)
		}
		defer f.Close()

		lines, err := canparser.ReadLines(f)
		if err != nil {
			return canparser.Batch{}, fmt.Errorf("failed to read input file: %w", err)
		}
		return pipeline.RunParallel(lines, 0)
	}
	return pipeline.Run([]string{message})
}

func writeResults(batch canparser.Batch, output, format string, force bool) error {
	if output != "" && !force {
		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("output file %s already exists, use -force to overwrite", output)
		}
	}

	switch format {
	case "json":
		if output == "" {
			b, err := sink.JSON(batch)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		return sink.WriteJSON(batch, output)
	case "csv":
		if output == "" {
			s, err := sink.CSV(batch)
			if err != nil {
				return err
			}
			fmt.Print(s)
			return nil
		}
		return sink.WriteCSV(batch, output)
	case "sqlite":
		if output == "" {
			return fmt.Errorf("sqlite output requires -output")
		}
		return sink.WriteSQLite(batch, output)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
