package main

import (
	"fmt"
	"log/slog"
	"time"
)

func printDumpReport(filePath string, cardsPerHDU map[int]int, elapsed time.Duration) {
	total := 0

	for _, v := range cardsPerHDU {
		total += v
	}

	slog.Info(fmt.Sprintf("Processed file %s in %s", filePath, elapsed.String()))
	slog.Info(fmt.Sprintf("Number of cards dumped: %d", total))
	for k, v := range cardsPerHDU {
		slog.Info(fmt.Sprintf("- HDU %d: %d\n", k, v))
	}
}
