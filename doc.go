// Package gamgo provides generalized additive models for Go, trained with
// bagged stochastic gradient descent and designed for ranking and scoring
// services.
//
// A fitted model is a sum of per-feature transfer functions: piecewise-linear
// splines for continuous features and affine functions for features that
// should stay linear. Training subsamples the data each iteration, trains an
// independent model replica per bag in parallel, then averages, smooths and
// prunes the feature functions. The result is interpretable: every feature's
// contribution can be read (and plotted) directly from its curve.
//
// # Installation
//
// Install gamgo using go get:
//
//	go get github.com/YuminosukeSato/gamgo
//
// # Quick Start
//
// Training a regression model on labeled feature vectors:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "github.com/YuminosukeSato/gamgo/additive"
//	)
//
//	func main() {
//	    examples := []additive.Example{
//	        additive.NewExample(additive.FeatureVector{
//	            "$rank":   {"": 4.5},
//	            "listing": {"accommodates": 2, "cleanliness": 4},
//	        }),
//	        // ...
//	    }
//
//	    trainer, err := additive.NewTrainer(additive.TrainerParams{
//	        Loss:         "regression",
//	        RankKey:      "$rank",
//	        NumBins:      16,
//	        NumBags:      4,
//	        Iterations:   20,
//	        LearningRate: 0.05,
//	        LInfinityCap: 5,
//	    })
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if err := trainer.Fit(examples); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    score, err := trainer.Predict(examples[0])
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println("score:", score)
//	}
//
// # Packages
//
// The library is organized into several packages:
//
//   - additive: feature functions, the model, losses and the bagged trainer
//   - metrics: evaluation metrics (MSE, MAE, R², AUC, log loss, NDCG)
//   - core/model: estimator interfaces, fit-state tracking, gob persistence
//   - core/parallel: chunked data-parallel execution helpers
//   - pkg/errors: structured error types, warnings and numerical guards
//   - pkg/log: structured logging with zerolog and slog backends
//
// # Losses
//
// Three objectives are built in: "logistic" and "hinge" for binary targets
// (raw labels are thresholded into -1/+1 via rank_threshold) and
// "regression", an epsilon-insensitive absolute loss for real-valued
// targets. Feature dropout, per-function L-infinity capping, cubic spline
// smoothing and small-spline pruning regularize the fit.
//
// # Reproducibility
//
// All sampling flows from the Seed parameter through PCG generators, so a
// fixed seed reproduces a training run bit for bit regardless of map
// iteration order or bag scheduling.
//
// # License
//
// gamgo is released under the MIT License.
package gamgo
