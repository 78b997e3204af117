// Package automation runs batches of comparisons: scripted YAML scenarios
// and Monte Carlo robustness checks that perturb the plant around a base
// configuration.
package automation
