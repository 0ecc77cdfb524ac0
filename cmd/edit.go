package main

import (
	"os"
	"strings"

	"github.com/astrokit/fits"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

func edit(cmd *cobra.Command, files []string) {
	filepath := files[0]

	patchPath := cmd.Flags().Lookup("patch").Value.String()
	patchData, err := os.ReadFile(patchPath)
	if err != nil {
		logrus.Fatalf("failed to read patch file: %s", err.Error())
	}
	if !gjson.ValidBytes(patchData) {
		logrus.Fatalf("patch file %s is not valid JSON", patchPath)
	}
	patch := gjson.ParseBytes(patchData)
	if !patch.IsObject() {
		logrus.Fatalf("patch file %s must contain a JSON object", patchPath)
	}

	reader, file, err := fits.OpenFile(filepath)
	if err != nil {
		logrus.Fatalf("failed to open file: %s", err.Error())
	}
	defer file.Close()

	header, err := reader.ReadHeader()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"file": filepath,
		}).Fatalf("failed to read primary header: %v", err)
	}

	// Everything after the primary header is carried through
	// unmodified.
	tail, err := reader.SpoolRemainder()
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"file": filepath,
		}).Fatalf("failed to buffer file remainder: %v", err)
	}
	defer tail.Close()
	reader.Close()

	view := fits.NewMapView(header)
	patch.ForEach(func(key, value gjson.Result) bool {
		if err = applyEdit(view, key.String(), value); err != nil {
			return false
		}
		return true
	})
	if err != nil {
		logrus.Fatalf("failed to apply patch: %s", err.Error())
	}

	output := cmd.Flags().Lookup("output").Value.String()
	if output == "" {
		output = filepath
	}

	compression := cmd.Flags().Lookup("compression").Value.String()
	if !cmd.Flags().Lookup("compression").Changed {
		// Default to whatever the input used.
		switch reader.Compression() {
		case fits.CompressionGZIP:
			compression = "GZIP"
		case fits.CompressionZSTD:
			compression = "ZSTD"
		}
	}

	if err := fits.WriteBack(output, header, tail, compression); err != nil {
		logrus.Fatalf("failed to write %s: %s", output, err.Error())
	}

	logrus.WithFields(logrus.Fields{
		"file":   filepath,
		"output": output,
		"edits":  len(patch.Map()),
	}).Info("patched")
}

// applyEdit maps one JSON patch entry onto the map view: null deletes
// the keyword, scalars and arrays are stored through Set.
func applyEdit(view *fits.MapView, keyword string, value gjson.Result) error {
	switch value.Type {
	case gjson.Null:
		view.Delete(keyword)
		return nil
	case gjson.True:
		return view.Set(keyword, true)
	case gjson.False:
		return view.Set(keyword, false)
	case gjson.String:
		return view.Set(keyword, value.String())
	case gjson.Number:
		if strings.ContainsAny(value.Raw, ".eE") {
			return view.Set(keyword, value.Float())
		}
		return view.Set(keyword, value.Int())
	}

	if value.IsArray() {
		elems := make([]any, 0, len(value.Array()))
		for _, elem := range value.Array() {
			elems = append(elems, elem.Value())
		}
		return view.Set(keyword, elems)
	}

	return fits.ErrInvalidValue
}
