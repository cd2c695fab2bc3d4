package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/tilevec/tilevec/pkg/gridsizes"
	"github.com/tilevec/tilevec/pkg/gtruth"
	"github.com/tilevec/tilevec/pkg/hyper"
	"github.com/tilevec/tilevec/pkg/maskstore"
	"github.com/tilevec/tilevec/pkg/seg"
	"github.com/tilevec/tilevec/pkg/submission"
)

func main() {
	logger, err := logs.NewLog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	parser := argparse.NewParser("makesubmission", "Build a competition submission CSV from segmentation model predictions")
	server := parser.String("s", "server", &argparse.Options{Help: "Inference service URL (eg http://localhost:8970). Omit to use cached masks only", Required: false, Default: ""})
	output := parser.String("o", "output", &argparse.Options{Help: "Submission csv", Required: true})
	sample := parser.String("", "sample", &argparse.Options{Help: "Sample submission csv", Required: false, Default: "sample_submission.csv"})
	grid := parser.String("", "grid", &argparse.Options{Help: "Grid sizes csv", Required: false, Default: "grid_sizes.csv"})
	trainWkt := parser.String("", "wkt", &argparse.Options{Help: "Training set WKT csv", Required: false, Default: "train_wkt.csv"})
	trainOnly := parser.Flag("", "train-only", &argparse.Options{Help: "Predict only train images"})
	only := parser.String("", "only", &argparse.Options{Help: "Only predict these image ids (comma-separated)", Required: false, Default: ""})
	hps := parser.String("", "hps", &argparse.Options{Help: "Change hyperparameters in k1=v1,k2=v2 format", Required: false, Default: ""})
	threshold := parser.Float("t", "threshold", &argparse.Options{Help: "Probability threshold", Required: false, Default: 0.5})
	epsilon := parser.Float("e", "epsilon", &argparse.Options{Help: "Polygon smoothing tolerance, in pixels", Required: false, Default: 5.0})
	masksOnly := parser.Flag("", "masks-only", &argparse.Options{Help: "Do only mask prediction"})
	err = parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	if !strings.HasSuffix(*output, ".csv") {
		logger.Errorf("Output path '%v' must end in .csv", *output)
		os.Exit(1)
	}

	params := hyper.NewParams()
	if err := params.Update(*hps); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	truth, err := gtruth.Load(*trainWkt)
	check(logger, err)
	gridTable, err := gridsizes.Load(*grid)
	check(logger, err)
	header, sampleIDs, err := submission.ReadSample(*sample)
	check(logger, err)

	store, err := maskstore.NewStore(logger, strings.TrimSuffix(*output, ".csv"))
	check(logger, err)
	if n, err := store.Count(); err == nil && n > 0 {
		logger.Infof("Mask store has %v cached masks", n)
	}

	var onlyIDs []string
	if *only != "" {
		onlyIDs = strings.Split(*only, ",")
	}
	targets := submission.Targets(*trainOnly, onlyIDs, truth, sampleIDs)
	for _, id := range targets {
		if !gridTable.Has(id) {
			check(logger, fmt.Errorf("no grid size for image '%v'", id))
		}
	}

	if *server != "" {
		model := seg.NewClient(logger, *server)
		if info, err := model.ModelInfo(); err != nil {
			logger.Warnf("Failed to query model info: %v", err)
		} else {
			logger.Infof("Model %v (%v classes)", info.Name, info.Classes)
		}
		err = submission.PredictMasks(logger, model, store, targets)
		model.Close()
		check(logger, err)
	} else {
		logger.Infof("No inference service given, using cached masks only")
	}

	if *masksOnly {
		logger.Infof("Was building masks only, done.")
		return
	}

	logger.Infof("Building polygons")
	cfg := &submission.Config{
		Log:       logger,
		Store:     store,
		Grid:      gridTable,
		Truth:     truth,
		Classes:   params.Classes,
		Threshold: float32(*threshold),
		Epsilon:   *epsilon,
	}
	check(logger, cfg.BuildSubmission(targets, header, *output))
}

func check(logger logs.Log, err error) {
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}
