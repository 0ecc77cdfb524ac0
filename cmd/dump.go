package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/astrokit/fits"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/sjson"
)

func dump(cmd *cobra.Command, files []string) {
	jsonOutput := cmd.Flags().Lookup("json").Changed

	only, err := strconv.Atoi(cmd.Flags().Lookup("hdu").Value.String())
	if err != nil {
		logrus.Fatalf("failed to parse hdu: %s", err.Error())
	}

	for _, filepath := range files {
		startTime := time.Now()
		cardsPerHDU := make(map[int]int)

		reader, file, err := fits.OpenFile(filepath)
		if err != nil {
			logrus.Errorf("failed to open file: %s", err.Error())
			continue
		}

		for index := 0; ; index++ {
			header, err := reader.ReadHeader()
			if err == io.EOF {
				break
			}
			if err != nil {
				logrus.WithFields(logrus.Fields{
					"file": filepath,
					"hdu":  index,
				}).Errorf("failed to read header: %v", err)
				break
			}

			if only < 0 || only == index {
				cardsPerHDU[index] = header.Len()
				if jsonOutput {
					fmt.Println(headerJSON(filepath, index, header))
				} else {
					fmt.Print(header.String())
				}
			}

			// Nothing left to do once the requested HDU is printed.
			if only >= 0 && index >= only {
				break
			}

			if err := reader.SkipData(header); err != nil {
				logrus.WithFields(logrus.Fields{
					"file": filepath,
					"hdu":  index,
				}).Errorf("failed to skip data unit: %v", err)
				break
			}
		}

		reader.Close()
		file.Close()

		if !jsonOutput {
			printDumpReport(filepath, cardsPerHDU, time.Since(startTime))
		}
	}
}

// headerJSON renders one HDU header as a single JSON object, keyed by
// the distinct keywords of the map view.
func headerJSON(filepath string, index int, header *fits.Header) string {
	out := "{}"
	out, _ = sjson.Set(out, "file", filepath)
	out, _ = sjson.Set(out, "hdu", index)

	view := fits.NewMapView(header)
	for _, keyword := range view.Keys() {
		if keyword == "" {
			// Blank commentary keywords have no sensible JSON key.
			continue
		}
		value, _ := view.Get(keyword)
		out, _ = sjson.Set(out, "header."+keyword, value)
	}
	return out
}
