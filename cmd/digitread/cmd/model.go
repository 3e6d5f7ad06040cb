package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/MeKo-Tech/digitread/internal/common"
	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/spf13/cobra"
)

func newModelCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "Inspect classifier artifacts",
	}
	cmd.AddCommand(newModelInfoCommand(a), newModelCheckCommand(a))
	return cmd
}

func newModelInfoCommand(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info",
		Short: "List the supported classifiers and where their artifacts are expected",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store := models.NewStore(a.cfg.ToStoreConfig())
			statuses := store.Models()
			if asJSON {
				b, err := json.MarshalIndent(statuses, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
				return err
			}
			return printModelTable(cmd.OutOrStdout(), a.cfg.ModelsDir, statuses)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")
	return cmd
}

func printModelTable(w io.Writer, dir string, statuses []models.ModelStatus) error {
	_, _ = fmt.Fprintf(w, "Models directory: %s\n\n", dir)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "KIND\tLABEL\tPATH\tFOUND\tENV")
	for _, st := range statuses {
		found := "no"
		if st.Exists {
			found = "yes"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", st.Kind, st.Label, st.Path, found, st.EnvVar)
	}
	return tw.Flush()
}

func newModelCheckCommand(a *app) *cobra.Command {
	var (
		kindName string
		path     string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load a classifier artifact and print what it contains",
		Long: `Load a classifier artifact, validate it and print its estimator,
class table, HOG parameters and scaler.

Examples:
  digitread model check
  digitread model check --kind knn
  digitread model check --path ./artifacts/svm_digits.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if kindName == "" {
				kindName = a.cfg.Model.Kind
			}
			kind, err := models.ParseKind(kindName)
			if err != nil {
				return err
			}

			store := models.NewStore(a.cfg.ToStoreConfig())
			var bundle *models.Bundle
			m := common.Measure("load "+string(kind), 1, func() error {
				var err error
				bundle, err = store.Load(kind, path)
				return err
			})
			if m.Error != nil {
				return fmt.Errorf("model check failed: %w", m.Error)
			}
			if bundle == nil {
				return errors.New("model check failed: no bundle loaded")
			}
			return printBundle(cmd.OutOrStdout(), bundle, m)
		},
	}
	cmd.Flags().StringVar(&kindName, "kind", "", "classifier kind: svm or knn (default: configured kind)")
	cmd.Flags().StringVar(&path, "path", "", "artifact path overriding the resolved one")
	return cmd
}

func printBundle(w io.Writer, b *models.Bundle, m common.Measurement) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "Name:\t%s\n", b.Name)
	_, _ = fmt.Fprintf(tw, "Kind:\t%s\n", b.Kind)
	_, _ = fmt.Fprintf(tw, "Path:\t%s\n", b.Path)
	_, _ = fmt.Fprintf(tw, "Estimator:\t%s (%s)\n", b.Estimator.Kind(), b.Estimator.Capability())
	classes := b.Estimator.Classes()
	if len(classes) == 0 {
		_, _ = fmt.Fprintf(tw, "Classes:\tnone (argmax index is the label)\n")
	} else {
		_, _ = fmt.Fprintf(tw, "Classes:\t%s\n", strings.Join(classes, " "))
	}
	_, _ = fmt.Fprintf(tw, "HOG length:\t%d\n", b.HOG.Length())
	scaler := "none"
	if b.Scaler != nil {
		scaler = b.Scaler.Kind()
	}
	_, _ = fmt.Fprintf(tw, "Scaler:\t%s\n", scaler)
	_, _ = fmt.Fprintf(tw, "Load time:\t%s\n", m.Duration)
	return tw.Flush()
}
