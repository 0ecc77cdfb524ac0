package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/astrokit/fits"
	"github.com/remeh/sizedwaitgroup"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type result struct {
	structureErrorsCount int
	structureValid       bool
	bitpixValid          bool
	cardCount            int
}

type headerUnit struct {
	header *fits.Header
	hdu    int
}

func processVerifyHeader(unit headerUnit, filepath string, results chan<- result) {
	var res result
	res.structureErrorsCount, res.structureValid = verifyStructure(unit, filepath)
	res.bitpixValid = verifyBitpix(unit, filepath)
	res.cardCount = unit.header.Len()
	results <- res
}

func verify(cmd *cobra.Command, files []string) {
	threads, err := strconv.Atoi(cmd.Flags().Lookup("threads").Value.String())
	if err != nil {
		logrus.Fatalf("failed to parse threads: %s", err.Error())
	}

	logger := logrus.New()
	if cmd.Flags().Lookup("json").Changed {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	withChecksum := cmd.Flags().Lookup("checksum").Changed

	for _, filepath := range files {
		startTime := time.Now()
		valid := true
		allHeadersRead := false
		errorsCount := 0
		headerCount := 0
		cardCount := 0

		headerChan := make(chan headerUnit, threads*2)
		results := make(chan result, threads*2)

		if !cmd.Flags().Lookup("json").Changed {
			// Output the message if not in --json mode
			logrus.WithFields(logrus.Fields{
				"file":    filepath,
				"threads": threads,
			}).Info("verifying")
		}

		swg := sizedwaitgroup.New(threads)
		for i := 0; i < threads; i++ {
			swg.Add()
			go func() {
				defer swg.Done()
				for unit := range headerChan {
					processVerifyHeader(unit, filepath, results)
				}
			}()
		}

		reader, file, err := fits.OpenFile(filepath)
		if err != nil {
			close(headerChan)
			swg.Wait()
			close(results)
			logrus.WithFields(logrus.Fields{
				"file": filepath,
			}).Errorf("failed to open file: %v", err)
			continue
		}

		var g errgroup.Group

		// Read headers and send them to workers
		g.Go(func() error {
			defer close(headerChan)
			for index := 0; ; index++ {
				header, err := reader.ReadHeader()
				if err == io.EOF {
					allHeadersRead = true
					return nil
				}
				if err != nil {
					logrus.WithFields(logrus.Fields{
						"file": filepath,
						"hdu":  index,
					}).Errorf("failed to read header: %v", err)
					errorsCount++
					valid = false
					return nil
				}
				headerCount++

				headerChan <- headerUnit{header: header, hdu: index}

				if withChecksum {
					data, err := reader.SpoolData(header)
					if err != nil {
						logrus.WithFields(logrus.Fields{
							"file": filepath,
							"hdu":  index,
						}).Errorf("failed to spool data unit: %v", err)
						errorsCount++
						valid = false
						return nil
					}
					sum, err := fits.Checksum(data)
					data.Close()
					if err != nil {
						logrus.WithFields(logrus.Fields{
							"file": filepath,
							"hdu":  index,
						}).Errorf("failed to checksum data unit: %v", err)
						errorsCount++
						valid = false
						return nil
					}
					logger.WithFields(logrus.Fields{
						"file":     filepath,
						"hdu":      index,
						"checksum": sum,
					}).Info("data unit checksum")
					continue
				}

				if err := reader.SkipData(header); err != nil {
					logrus.WithFields(logrus.Fields{
						"file": filepath,
						"hdu":  index,
					}).Errorf("failed to skip data unit: %v", err)
					errorsCount++
					valid = false
					return nil
				}
			}
		})

		// Collect results from workers
		g.Go(func() error {
			for res := range results {
				if !res.structureValid {
					valid = false
					errorsCount += res.structureErrorsCount
				}
				if !res.bitpixValid {
					valid = false
					errorsCount++
				}
				cardCount += res.cardCount
			}
			return nil
		})

		// The collector only finishes once the workers are done and
		// the results channel is closed behind them.
		go func() {
			swg.Wait()
			close(results)
		}()

		g.Wait()
		reader.Close()
		file.Close()

		if headerCount == 0 {
			logrus.Errorf("no headers present in file. Nothing has been checked")
		}

		fields := logger.WithFields(logrus.Fields{
			"file":           filepath,
			"valid":          valid,
			"errors":         errorsCount,
			"headers":        headerCount,
			"cards":          cardCount,
			"allHeadersRead": allHeadersRead,
		})

		// Ensure there is a visible difference when errors are present.
		if errorsCount > 0 {
			fields.Errorf("checked in %s", time.Since(startTime))
		} else {
			fields.Infof("checked in %s", time.Since(startTime))
		}
	}
}

// verifyStructure checks the mandatory keywords of a header: SIMPLE
// or XTENSION leading the header, BITPIX and NAXIS present, and one
// NAXISn card for every axis.
func verifyStructure(unit headerUnit, filepath string) (errorsCount int, valid bool) {
	valid = true
	header := unit.header

	leading, ok := header.KeywordAt(0)
	if !ok {
		logrus.WithFields(logrus.Fields{
			"file": filepath,
			"hdu":  unit.hdu,
		}).Errorf("header is empty")
		return 1, false
	}

	if unit.hdu == 0 && leading != "SIMPLE" {
		logrus.WithFields(logrus.Fields{
			"file": filepath,
			"hdu":  unit.hdu,
		}).Errorf("primary header does not start with SIMPLE: %s", leading)
		valid = false
		errorsCount++
	}
	if unit.hdu > 0 && leading != "XTENSION" {
		logrus.WithFields(logrus.Fields{
			"file": filepath,
			"hdu":  unit.hdu,
		}).Errorf("extension header does not start with XTENSION: %s", leading)
		valid = false
		errorsCount++
	}

	naxisCard, ok := header.FirstCard("NAXIS")
	if !ok || naxisCard.Value.Kind() != fits.ValueInteger {
		logrus.WithFields(logrus.Fields{
			"file": filepath,
			"hdu":  unit.hdu,
		}).Errorf("NAXIS is missing or not an integer")
		return errorsCount + 1, false
	}

	for i := int64(1); i <= naxisCard.Value.Int(); i++ {
		axis := fmt.Sprintf("NAXIS%d", i)
		card, ok := header.FirstCard(axis)
		if !ok || card.Value.Kind() != fits.ValueInteger {
			logrus.WithFields(logrus.Fields{
				"file": filepath,
				"hdu":  unit.hdu,
			}).Errorf("%s is missing or not an integer", axis)
			valid = false
			errorsCount++
		}
	}

	return errorsCount, valid
}

// verifyBitpix checks that BITPIX exists and carries one of the legal
// values.
func verifyBitpix(unit headerUnit, filepath string) bool {
	card, ok := unit.header.FirstCard("BITPIX")
	if !ok || card.Value.Kind() != fits.ValueInteger {
		logrus.WithFields(logrus.Fields{
			"file": filepath,
			"hdu":  unit.hdu,
		}).Errorf("BITPIX is missing or not an integer")
		return false
	}

	switch card.Value.Int() {
	case 8, 16, 32, 64, -32, -64:
		return true
	}

	logrus.WithFields(logrus.Fields{
		"file": filepath,
		"hdu":  unit.hdu,
	}).Errorf("illegal BITPIX value: %d", card.Value.Int())
	return false
}
